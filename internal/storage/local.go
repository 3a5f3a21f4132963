package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

// LocalStore keeps files under a directory on disk.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("local storage root must be provided")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root %s: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

func (s *LocalStore) abs(p string) string {
	return filepath.Join(s.root, filepath.FromSlash(CleanPath(p)))
}

func (s *LocalStore) GetFileContent(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.abs(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p, err)
	}
	return data, nil
}

// WriteFile writes through a temporary file so readers never observe a
// partial workbook.
func (s *LocalStore) WriteFile(ctx context.Context, p string, data []byte) (domain.FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return domain.FileMetadata{}, err
	}

	dest := s.abs(p)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return domain.FileMetadata{}, fmt.Errorf("failed creating directory for %s: %w", p, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return domain.FileMetadata{}, fmt.Errorf("failed creating temp file for %s: %w", p, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return domain.FileMetadata{}, fmt.Errorf("failed writing %s: %w", p, err)
	}
	if err := tmp.Close(); err != nil {
		return domain.FileMetadata{}, fmt.Errorf("failed writing %s: %w", p, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return domain.FileMetadata{}, fmt.Errorf("failed moving %s into place: %w", p, err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return domain.FileMetadata{}, fmt.Errorf("failed to stat %s: %w", p, err)
	}
	return s.meta(CleanPath(p), info), nil
}

func (s *LocalStore) Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	folder := CleanPath(criteria.Path)
	entries, err := os.ReadDir(s.abs(folder))
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.FileMetadata{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", folder, err)
	}

	files := make([]domain.FileMetadata, 0, len(entries))
	for _, e := range entries {
		if e.Name()[0] == '.' {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		meta := s.meta(path.Join(folder, e.Name()), info)
		if Matches(meta, criteria) {
			files = append(files, meta)
		}
	}
	return files, nil
}

func (s *LocalStore) meta(p string, info fs.FileInfo) domain.FileMetadata {
	meta := domain.FileMetadata{
		ID:           p,
		Name:         info.Name(),
		Path:         p,
		Size:         info.Size(),
		ModifiedTime: info.ModTime().UTC(),
		IsFolder:     info.IsDir(),
	}
	if meta.IsFolder {
		meta.MimeType = domain.MimeFolder
		meta.Size = 0
	} else {
		meta.MimeType = MimeType(meta.Name)
	}
	return meta
}

var _ FileStore = (*LocalStore)(nil)
