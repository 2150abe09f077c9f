package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	talentErrors "talentsearch/internal/errors"
	"talentsearch/internal/types"
)

// PageBackend is the durable page store the Redis layer fronts.
type PageBackend interface {
	GetPage(ctx context.Context, searchID string, pageIndex int) (*types.ResultPage, bool, error)
	PutPage(ctx context.Context, page types.ResultPage) (*types.ResultPage, error)
}

// NewRedisClient parses url, connects and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisPageCache is a read-through cache in front of a PageBackend. The
// backend stays the source of truth: Redis failures are logged and the
// call falls through to it.
type RedisPageCache struct {
	client  redis.Cmdable
	backend PageBackend
	prefix  string
	ttl     time.Duration
	logger  *talentErrors.Logger
}

// NewRedisPageCache wraps backend. A zero ttl stores pages without expiry,
// which is safe because pages never change once written.
func NewRedisPageCache(client redis.Cmdable, backend PageBackend, prefix string, ttl time.Duration, logger *talentErrors.Logger) *RedisPageCache {
	if prefix == "" {
		prefix = "talentsearch"
	}
	return &RedisPageCache{
		client:  client,
		backend: backend,
		prefix:  prefix,
		ttl:     ttl,
		logger:  logger,
	}
}

func (c *RedisPageCache) key(searchID string, pageIndex int) string {
	return fmt.Sprintf("%s:page:%s:%d", c.prefix, searchID, pageIndex)
}

// GetPage serves the page from Redis when present, otherwise from the
// backend, filling Redis on the way out.
func (c *RedisPageCache) GetPage(ctx context.Context, searchID string, pageIndex int) (*types.ResultPage, bool, error) {
	key := c.key(searchID, pageIndex)

	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ids []string
		if jsonErr := json.Unmarshal(raw, &ids); jsonErr == nil {
			return &types.ResultPage{
				SearchID:     searchID,
				PageIndex:    pageIndex,
				CandidateIDs: nonNil(ids),
				Source:       types.PageSourceRedis,
			}, true, nil
		}
		c.logger.Warn("Discarding undecodable cached page", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn("Redis page lookup failed, falling back to database", "key", key, "error", err)
	}

	page, found, err := c.backend.GetPage(ctx, searchID, pageIndex)
	if err != nil || !found {
		return page, found, err
	}
	c.fill(ctx, page)
	return page, true, nil
}

// PutPage writes through to the backend and caches the canonical page it
// returns.
func (c *RedisPageCache) PutPage(ctx context.Context, page types.ResultPage) (*types.ResultPage, error) {
	stored, err := c.backend.PutPage(ctx, page)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, stored)
	return stored, nil
}

func (c *RedisPageCache) fill(ctx context.Context, page *types.ResultPage) {
	data, err := json.Marshal(nonNil(page.CandidateIDs))
	if err != nil {
		return
	}
	key := c.key(page.SearchID, page.PageIndex)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache result page in redis", "key", key, "error", err)
	}
}
