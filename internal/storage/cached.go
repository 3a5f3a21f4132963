package storage

import (
	"context"
	"path"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/autopo-lab/internal/cache"
	"github.com/andresuchdata/autopo-lab/internal/domain"
)

// CachedStore reads listings through a ListingCache. Writes invalidate the
// listings of the written folder.
type CachedStore struct {
	inner FileStore
	cache cache.ListingCache
}

func NewCachedStore(inner FileStore, listings cache.ListingCache) *CachedStore {
	if listings == nil {
		listings = cache.NewNoopListingCache()
	}
	return &CachedStore{inner: inner, cache: listings}
}

func (s *CachedStore) GetFileContent(ctx context.Context, p string) ([]byte, error) {
	return s.inner.GetFileContent(ctx, p)
}

func (s *CachedStore) WriteFile(ctx context.Context, p string, data []byte) (domain.FileMetadata, error) {
	meta, err := s.inner.WriteFile(ctx, p, data)
	if err != nil {
		return meta, err
	}

	folder := path.Dir(CleanPath(p))
	if folder == "." {
		folder = ""
	}
	if err := s.cache.InvalidateFolder(ctx, folder); err != nil {
		log.Warn().Err(err).Str("folder", folder).Msg("failed to invalidate listing cache")
	}
	return meta, nil
}

func (s *CachedStore) Search(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FileMetadata, error) {
	if files, ok, err := s.cache.GetListing(ctx, criteria); err != nil {
		log.Warn().Err(err).Str("path", criteria.Path).Msg("listing cache read failed")
	} else if ok {
		return files, nil
	}

	files, err := s.inner.Search(ctx, criteria)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetListing(ctx, criteria, files); err != nil {
		log.Warn().Err(err).Str("path", criteria.Path).Msg("listing cache write failed")
	}
	return files, nil
}

// Invalidate drops cached listings for folder.
func (s *CachedStore) Invalidate(ctx context.Context, folder string) error {
	return s.cache.InvalidateFolder(ctx, folder)
}

// Backend returns the uncached store, for callers that must observe
// listings as they are right now.
func (s *CachedStore) Backend() FileStore {
	return s.inner
}
