package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

// MostRecent returns the most recently modified file in folder matching any
// of mimeTypes. Ties go to the first listed file, searching types in order.
func MostRecent(ctx context.Context, store FileStore, folder string, mimeTypes ...string) (domain.FileMetadata, error) {
	if len(mimeTypes) == 0 {
		mimeTypes = []string{domain.MimeXLSX}
	}

	var (
		best  domain.FileMetadata
		found bool
	)
	for _, mimeType := range mimeTypes {
		files, err := store.Search(ctx, domain.SearchCriteria{Path: folder, MimeType: mimeType})
		if err != nil {
			return domain.FileMetadata{}, fmt.Errorf("list %s: %w", folder, err)
		}
		for _, f := range files {
			if f.IsFolder {
				continue
			}
			if !found || f.ModifiedTime.After(best.ModifiedTime) {
				best = f
				found = true
			}
		}
	}
	if !found {
		return domain.FileMetadata{}, fmt.Errorf("no %s file in %s: %w", strings.Join(mimeTypes, " or "), folder, ErrNotFound)
	}
	return best, nil
}

// ResolvePath returns explicit when set, otherwise the most recent file in
// folder of the given types (xlsx when none are given), otherwise fallback.
func ResolvePath(ctx context.Context, store FileStore, explicit, folder, fallback string, mimeTypes ...string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	meta, err := MostRecent(ctx, store, folder, mimeTypes...)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return meta.Path, nil
}
