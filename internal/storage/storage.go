// Package storage provides the file stores holding master data, inventory,
// templates and generated purchase orders.
package storage

import (
	"context"
	"mime"
	"path"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/autopo-lab/internal/domain"
)

// ErrNotFound is returned for paths that do not exist in a store.
var ErrNotFound = domain.ErrFileNotFound

// FileStore is the minimal file access the workflows need. Paths are
// slash-separated and relative to the store root.
type FileStore interface {
	GetFileContent(ctx context.Context, path string) ([]byte, error)
	WriteFile(ctx context.Context, path string, data []byte) (domain.FileMetadata, error)
	// Search lists the direct children of criteria.Path that match the
	// remaining criteria.
	Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FileMetadata, error)
}

// CleanPath normalizes p to a root-relative slash path.
func CleanPath(p string) string {
	p = path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(p, "/")
}

// MimeType guesses the MIME type from the file extension.
func MimeType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return domain.MimeXLSX
	case ".csv":
		return domain.MimeCSV
	}
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// Matches reports whether meta satisfies the mime and name filters of
// criteria. The path filter is applied by the store.
func Matches(meta domain.FileMetadata, criteria domain.SearchCriteria) bool {
	if criteria.MimeType != "" && !meta.IsFolder && meta.MimeType != criteria.MimeType {
		return false
	}
	if criteria.MimeType != "" && meta.IsFolder && criteria.MimeType != domain.MimeFolder {
		return false
	}
	if criteria.NameContains != "" && !strings.Contains(strings.ToLower(meta.Name), strings.ToLower(criteria.NameContains)) {
		return false
	}
	return true
}
