package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/chartmuseum/storage"

	"github.com/andresuchdata/autopo-lab/internal/config"
	"github.com/andresuchdata/autopo-lab/internal/domain"
)

// BackendStore adapts a chartmuseum storage backend (S3, or a local
// directory in tests) to FileStore.
type BackendStore struct {
	backend storage.Backend
	name    string
}

func NewBackendStore(backend storage.Backend, name string) *BackendStore {
	return &BackendStore{backend: backend, name: name}
}

// NewS3Store builds a store backed by chartmuseum's Amazon S3 backend. It
// works against any S3-compatible endpoint.
func NewS3Store(cfg config.ObjectStoreConfig) (*BackendStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket must be provided")
	}

	endpoint := cfg.Endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		scheme := "https"
		if !cfg.UseSSL {
			scheme = "http"
		}
		endpoint = fmt.Sprintf("%s://%s", scheme, strings.TrimPrefix(cfg.Endpoint, "//"))
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	// The AWS SDK behind chartmuseum reads credentials from the environment.
	os.Setenv("AWS_ACCESS_KEY_ID", cfg.AccessKey)
	os.Setenv("AWS_SECRET_ACCESS_KEY", cfg.SecretKey)
	os.Setenv("AWS_REGION", region)
	os.Setenv("AWS_DEFAULT_REGION", region)

	backend := storage.NewAmazonS3BackendWithOptions(
		cfg.Bucket,
		"",
		region,
		endpoint,
		"",
		&storage.AmazonS3Options{
			S3ForcePathStyle: awsBool(true),
		},
	)

	return NewBackendStore(backend, "s3"), nil
}

func (s *BackendStore) GetFileContent(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	object, err := s.backend.GetObject(CleanPath(p))
	if err != nil {
		if isMissing(err) {
			return nil, fmt.Errorf("%s: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("%s get %s failed: %w", s.name, p, err)
	}
	return object.Content, nil
}

func (s *BackendStore) WriteFile(ctx context.Context, p string, data []byte) (domain.FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return domain.FileMetadata{}, err
	}

	key := CleanPath(p)
	if err := s.backend.PutObject(key, data); err != nil {
		return domain.FileMetadata{}, fmt.Errorf("%s put %s failed: %w", s.name, p, err)
	}

	return domain.FileMetadata{
		ID:           key,
		Name:         path.Base(key),
		Path:         key,
		MimeType:     MimeType(key),
		Size:         int64(len(data)),
		ModifiedTime: time.Now().UTC(),
	}, nil
}

// Search lists objects directly under criteria.Path. Nested keys are not
// reported by the backend.
func (s *BackendStore) Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FileMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	folder := CleanPath(criteria.Path)
	objects, err := s.backend.ListObjects(folder)
	if err != nil {
		if isMissing(err) {
			return []domain.FileMetadata{}, nil
		}
		return nil, fmt.Errorf("%s list failed: %w", s.name, err)
	}

	files := make([]domain.FileMetadata, 0, len(objects))
	for _, object := range objects {
		key := path.Join(folder, object.Path)
		meta := domain.FileMetadata{
			ID:           key,
			Name:         path.Base(object.Path),
			Path:         key,
			MimeType:     MimeType(object.Path),
			Size:         int64(len(object.Content)),
			ModifiedTime: object.LastModified.UTC(),
		}
		if Matches(meta, criteria) {
			files = append(files, meta)
		}
	}
	return files, nil
}

func isMissing(err error) bool {
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "NotFound")
}

func awsBool(v bool) *bool {
	return &v
}

var _ FileStore = (*BackendStore)(nil)
