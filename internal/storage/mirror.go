package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

// MirrorOptions controls which files Mirror copies.
type MirrorOptions struct {
	Folders []string
	// Extensions limits copied files, e.g. ".xlsx". Empty copies everything.
	Extensions []string
}

// Mirror copies the files of each folder from src into dst and returns the
// copied paths.
func Mirror(ctx context.Context, src, dst FileStore, opts MirrorOptions) ([]string, error) {
	var copied []string
	for _, folder := range opts.Folders {
		files, err := src.Search(ctx, domain.SearchCriteria{Path: folder})
		if err != nil {
			return copied, fmt.Errorf("list %s: %w", folder, err)
		}

		for _, f := range files {
			select {
			case <-ctx.Done():
				return copied, ctx.Err()
			default:
			}

			if f.IsFolder || !hasExtension(f.Name, opts.Extensions) {
				continue
			}

			data, err := src.GetFileContent(ctx, f.Path)
			if err != nil {
				return copied, fmt.Errorf("failed to download %s: %w", f.Path, err)
			}
			if _, err := dst.WriteFile(ctx, f.Path, data); err != nil {
				return copied, fmt.Errorf("failed to write %s: %w", f.Path, err)
			}

			log.Info().Str("path", f.Path).Int("bytes", len(data)).Msg("mirrored file")
			copied = append(copied, f.Path)
		}
	}
	return copied, nil
}

func hasExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(path.Ext(name))
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
