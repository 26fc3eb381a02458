// Package cache is the Redis-backed listing cache. Only the public listing
// goes through it: admin and per-group views are cheap and must never serve
// stale rows.
//
// Invalidation uses a version key. Every mutation bumps the version, which
// orphans all cached pages at once; orphans expire via TTL. This avoids
// SCAN-and-delete over arbitrary filter combinations.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"specregistry/internal/platform/config"
	"specregistry/internal/platform/redis"
	"specregistry/internal/specification/models"
	"specregistry/pkg/pagination"
)

const versionKey = "speclist:version"

// Listing caches public listing pages keyed by their full filter.
type Listing struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewListing constructs the listing cache. A nil client disables caching;
// every method on the returned value is then a no-op.
func NewListing(client *redis.Client, logger *slog.Logger) *Listing {
	return &Listing{client: client, ttl: config.ListingCacheTTL, logger: logger}
}

// Get returns a cached page for the filter, if present. Redis failures count
// as misses.
func (c *Listing) Get(ctx context.Context, filter models.ListFilter) (pagination.PagedResult[models.Specification], bool) {
	var zero pagination.PagedResult[models.Specification]
	if c == nil || c.client == nil {
		return zero, false
	}
	key, err := c.key(ctx, filter)
	if err != nil {
		return zero, false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return zero, false
	}
	var result pagination.PagedResult[models.Specification]
	if err := json.Unmarshal(payload, &result); err != nil {
		c.warn(ctx, "decode cached listing", err)
		return zero, false
	}
	return result, true
}

// Set stores one listing page. Failures are logged and ignored.
func (c *Listing) Set(ctx context.Context, filter models.ListFilter, result pagination.PagedResult[models.Specification]) {
	if c == nil || c.client == nil {
		return
	}
	key, err := c.key(ctx, filter)
	if err != nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		c.warn(ctx, "encode listing for cache", err)
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.warn(ctx, "store listing in cache", err)
	}
}

// Invalidate bumps the version so every cached page goes stale immediately.
func (c *Listing) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		c.warn(ctx, "bump listing cache version", err)
	}
}

func (c *Listing) key(ctx context.Context, filter models.ListFilter) (string, error) {
	version, err := c.client.Get(ctx, versionKey).Int64()
	if err != nil && err != redis.Nil {
		return "", err
	}
	raw, err := json.Marshal(filter)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("speclist:v%d:%s", version, hex.EncodeToString(sum[:8])), nil
}

func (c *Listing) warn(ctx context.Context, msg string, err error) {
	if c.logger != nil {
		c.logger.WarnContext(ctx, msg, "error", err)
	}
}
