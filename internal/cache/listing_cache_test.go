package cache

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/autopo-lab/internal/config"
	"github.com/andresuchdata/autopo-lab/internal/domain"
)

func TestListingKey(t *testing.T) {
	a := listingKey(domain.SearchCriteria{Path: "/MasterData/", MimeType: domain.MimeXLSX})
	b := listingKey(domain.SearchCriteria{Path: "MasterData", MimeType: domain.MimeXLSX})
	if a != b {
		t.Errorf("equivalent folders should share a key: %s vs %s", a, b)
	}

	c := listingKey(domain.SearchCriteria{Path: "MasterData"})
	if a == c {
		t.Error("different mime filters should not share a key")
	}

	prefix := folderKeyPrefix("MasterData")
	if a[:len(prefix)] != prefix {
		t.Errorf("key %s should start with folder prefix %s", a, prefix)
	}
}

func TestMemoryListingCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryListingCache(time.Minute).(*memoryListingCache)
	now := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	master := domain.SearchCriteria{Path: "MasterData"}
	inventory := domain.SearchCriteria{Path: "CurrentInventory"}
	files := []domain.FileMetadata{{Name: "Master_Data.xlsx", Path: "MasterData/Master_Data.xlsx"}}

	if _, ok, _ := c.GetListing(ctx, master); ok {
		t.Fatal("empty cache should miss")
	}

	_ = c.SetListing(ctx, master, files)
	_ = c.SetListing(ctx, inventory, files)

	got, ok, err := c.GetListing(ctx, master)
	if err != nil || !ok || len(got) != 1 {
		t.Fatalf("GetListing = %v, %v, %v", got, ok, err)
	}

	_ = c.InvalidateFolder(ctx, "MasterData")
	if _, ok, _ := c.GetListing(ctx, master); ok {
		t.Error("folder invalidation should drop the listing")
	}
	if _, ok, _ := c.GetListing(ctx, inventory); !ok {
		t.Error("other folders should survive folder invalidation")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.GetListing(ctx, inventory); ok {
		t.Error("expired entry should miss")
	}
}

func TestNewListingCacheDisabled(t *testing.T) {
	c, err := NewListingCache(config.CacheConfig{Enabled: false})
	if err != nil {
		t.Fatalf("NewListingCache: %v", err)
	}
	if _, ok := c.(*noopListingCache); !ok {
		t.Fatalf("expected noop cache, got %T", c)
	}
}

func TestListingRedisOptions(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.CacheConfig
		addr     string
		password string
		db       int
		wantErr  bool
	}{
		{name: "defaults", cfg: config.CacheConfig{}, addr: "127.0.0.1:6379"},
		{name: "host and port", cfg: config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2}, addr: "cache:6380", db: 2},
		{name: "url wins", cfg: config.CacheConfig{RedisURL: "redis://:secret@redis.local:6379/1", RedisHost: "ignored"}, addr: "redis.local:6379", password: "secret", db: 1},
		{name: "bad url", cfg: config.CacheConfig{RedisURL: "://bad"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := listingRedisOptions(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", opts)
				}
				return
			}
			if err != nil {
				t.Fatalf("listingRedisOptions: %v", err)
			}
			if opts.Addr != tt.addr || opts.Password != tt.password || opts.DB != tt.db {
				t.Errorf("opts = %+v", opts)
			}
		})
	}
}

func TestListingTTL(t *testing.T) {
	tests := []struct {
		seconds int
		want    time.Duration
	}{
		{0, defaultListingTTL},
		{-5, defaultListingTTL},
		{90, 90 * time.Second},
	}
	for _, tt := range tests {
		if got := listingTTL(config.CacheConfig{ListingTTLSeconds: tt.seconds}); got != tt.want {
			t.Errorf("listingTTL(%d) = %v, want %v", tt.seconds, got, tt.want)
		}
	}
}

func TestNewListingCacheUnreachable(t *testing.T) {
	_, err := NewListingCache(config.CacheConfig{Enabled: true, RedisHost: "127.0.0.1", RedisPort: "1"})
	if err == nil {
		t.Fatal("expected an error when the cache server is unreachable")
	}
}
