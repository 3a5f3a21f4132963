package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/andresuchdata/autopo-lab/internal/config"
	"github.com/andresuchdata/autopo-lab/internal/domain"
)

const (
	listingKeyPrefix     = "files:listing"
	listingScanBatchSize = 100
)

// ListingCache stores file listings keyed by search criteria so repeated
// "most recent file" lookups do not hit the remote store.
type ListingCache interface {
	GetListing(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FileMetadata, bool, error)
	SetListing(ctx context.Context, criteria domain.SearchCriteria, files []domain.FileMetadata) error
	InvalidateFolder(ctx context.Context, folder string) error
	InvalidateAll(ctx context.Context) error
}

type noopListingCache struct{}

func NewListingCache(cfg config.CacheConfig) (ListingCache, error) {
	if !cfg.Enabled {
		return &noopListingCache{}, nil
	}

	c, err := newRedisListingCache(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func NewNoopListingCache() ListingCache {
	return &noopListingCache{}
}

func (n *noopListingCache) GetListing(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FileMetadata, bool, error) {
	return nil, false, nil
}

func (n *noopListingCache) SetListing(ctx context.Context, criteria domain.SearchCriteria, files []domain.FileMetadata) error {
	return nil
}

func (n *noopListingCache) InvalidateFolder(ctx context.Context, folder string) error {
	return nil
}

func (n *noopListingCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// memoryListingCache is an in-process ListingCache for single-process
// tools such as the CLI watcher.
type memoryListingCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

type memoryEntry struct {
	files   []domain.FileMetadata
	expires time.Time
}

func NewMemoryListingCache(ttl time.Duration) ListingCache {
	if ttl <= 0 {
		ttl = defaultListingTTL
	}
	return &memoryListingCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *memoryListingCache) GetListing(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FileMetadata, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := listingKey(criteria)
	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if m.now().After(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]domain.FileMetadata(nil), e.files...), true, nil
}

func (m *memoryListingCache) SetListing(ctx context.Context, criteria domain.SearchCriteria, files []domain.FileMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[listingKey(criteria)] = memoryEntry{
		files:   append([]domain.FileMetadata(nil), files...),
		expires: m.now().Add(m.ttl),
	}
	return nil
}

func (m *memoryListingCache) InvalidateFolder(ctx context.Context, folder string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := folderKeyPrefix(folder)
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			delete(m.entries, k)
		}
	}
	return nil
}

func (m *memoryListingCache) InvalidateAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = make(map[string]memoryEntry)
	return nil
}

// Keys embed a hash of the folder so folder names never need glob escaping
// in SCAN patterns.
func folderKeyPrefix(folder string) string {
	return fmt.Sprintf("%s:%s:", listingKeyPrefix, shortHash(normalizeFolder(folder)))
}

func listingKey(criteria domain.SearchCriteria) string {
	filter := strings.ToLower(strings.TrimSpace(criteria.MimeType)) + "|" +
		strings.ToLower(strings.TrimSpace(criteria.NameContains))
	return folderKeyPrefix(criteria.Path) + shortHash(filter)
}

func normalizeFolder(folder string) string {
	return strings.Trim(strings.TrimSpace(folder), "/")
}

func shortHash(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:8])
}
