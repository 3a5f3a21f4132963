package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/andresuchdata/autopo-lab/internal/config"
	"github.com/andresuchdata/autopo-lab/internal/domain"
)

const (
	defaultListingTTL = 5 * time.Minute
	redisPingTimeout  = 5 * time.Second
)

type redisListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// newRedisListingCache connects to the listing cache and fails fast when the
// server does not answer a ping.
func newRedisListingCache(cfg config.CacheConfig) (*redisListingCache, error) {
	opts, err := listingRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("listing cache unreachable at %s: %w", opts.Addr, err)
	}

	return &redisListingCache{client: client, ttl: listingTTL(cfg)}, nil
}

// listingRedisOptions prefers REDIS_URL and otherwise builds the address
// from host and port, defaulting to a local server.
func listingRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid listing cache url: %w", err)
		}
		return opts, nil
	}

	host, port := cfg.RedisHost, cfg.RedisPort
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func listingTTL(cfg config.CacheConfig) time.Duration {
	if cfg.ListingTTLSeconds <= 0 {
		return defaultListingTTL
	}
	return time.Duration(cfg.ListingTTLSeconds) * time.Second
}

func (c *redisListingCache) GetListing(ctx context.Context, criteria domain.SearchCriteria) ([]domain.FileMetadata, bool, error) {
	payload, err := c.client.Get(ctx, listingKey(criteria)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var files []domain.FileMetadata
	if err := json.Unmarshal(payload, &files); err != nil {
		return nil, false, fmt.Errorf("decode file listing cache: %w", err)
	}
	return files, true, nil
}

func (c *redisListingCache) SetListing(ctx context.Context, criteria domain.SearchCriteria, files []domain.FileMetadata) error {
	payload, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("encode file listing cache: %w", err)
	}

	if err := c.client.Set(ctx, listingKey(criteria), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisListingCache) InvalidateFolder(ctx context.Context, folder string) error {
	return c.evict(ctx, folderKeyPrefix(folder))
}

func (c *redisListingCache) InvalidateAll(ctx context.Context) error {
	return c.evict(ctx, listingKeyPrefix+":")
}

// evict walks the listings under prefix and unlinks them in batches. Keys
// added while the scan runs may survive; the TTL bounds their lifetime.
func (c *redisListingCache) evict(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", listingScanBatchSize).Iterator()

	batch := make([]string, 0, listingScanBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.client.Unlink(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("evict listings under %s: %w", prefix, err)
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == listingScanBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan listings under %s: %w", prefix, err)
	}
	return flush()
}
