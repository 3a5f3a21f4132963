package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/andresuchdata/autopo-lab/internal/config"
	"github.com/andresuchdata/autopo-lab/internal/domain"
)

// MinioStore keeps files in a MinIO bucket.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func NewMinioStore(cfg config.ObjectStoreConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket must be provided")
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) GetFileContent(ctx context.Context, p string) ([]byte, error) {
	key := CleanPath(p)
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.wrap("get", p, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.wrap("read", p, err)
	}
	return data, nil
}

func (s *MinioStore) WriteFile(ctx context.Context, p string, data []byte) (domain.FileMetadata, error) {
	key := CleanPath(p)
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: MimeType(key),
	})
	if err != nil {
		return domain.FileMetadata{}, s.wrap("put", p, err)
	}

	return domain.FileMetadata{
		ID:           info.ETag,
		Name:         path.Base(key),
		Path:         key,
		MimeType:     MimeType(key),
		Size:         info.Size,
		ModifiedTime: info.LastModified.UTC(),
	}, nil
}

func (s *MinioStore) Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FileMetadata, error) {
	prefix := CleanPath(criteria.Path)
	if prefix != "" {
		prefix += "/"
	}

	files := []domain.FileMetadata{}
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if obj.Err != nil {
			return nil, s.wrap("list", criteria.Path, obj.Err)
		}

		key := strings.TrimSuffix(obj.Key, "/")
		meta := domain.FileMetadata{
			ID:           obj.Key,
			Name:         path.Base(key),
			Path:         key,
			Size:         obj.Size,
			ModifiedTime: obj.LastModified.UTC(),
			IsFolder:     strings.HasSuffix(obj.Key, "/"),
		}
		if meta.IsFolder {
			meta.MimeType = domain.MimeFolder
		} else {
			meta.MimeType = MimeType(key)
		}
		if Matches(meta, criteria) {
			files = append(files, meta)
		}
	}
	return files, nil
}

func (s *MinioStore) wrap(op, p string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%s: %w", p, ErrNotFound)
	}
	return fmt.Errorf("minio %s %s failed: %w", op, p, err)
}

var _ FileStore = (*MinioStore)(nil)
