// Package rediscache provides a Redis-backed read cache for stored cards.
//
// Cards are immutable after creation, so a TTL is the only invalidation the
// cache needs. A broken or unreachable Redis behaves like a miss and never
// fails a request.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/history-ai-wiki/internal/adapter/observability"
	"github.com/fairyhunter13/history-ai-wiki/internal/domain"
)

const keyPrefix = "card:"

// CardCache stores cards keyed by id with a TTL.
type CardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// New constructs a CardCache against the given Redis address.
func New(addr string, ttl time.Duration) *CardCache {
	return &CardCache{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

// NewWithClient constructs a CardCache over an existing client.
func NewWithClient(rdb *redis.Client, ttl time.Duration) *CardCache {
	return &CardCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached card for id, and whether it was found.
func (c *CardCache) Get(ctx context.Context, id string) (domain.Card, bool) {
	raw, err := c.rdb.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if err != redis.Nil {
			observability.CacheOpsTotal.WithLabelValues("card", "error").Inc()
			slog.Warn("card cache get failed", slog.Any("error", err))
		} else {
			observability.CacheOpsTotal.WithLabelValues("card", "miss").Inc()
		}
		return domain.Card{}, false
	}
	var card domain.Card
	if err := json.Unmarshal(raw, &card); err != nil {
		observability.CacheOpsTotal.WithLabelValues("card", "error").Inc()
		slog.Warn("card cache decode failed", slog.Any("error", err))
		return domain.Card{}, false
	}
	observability.CacheOpsTotal.WithLabelValues("card", "hit").Inc()
	return card, true
}

// Set stores a card with the configured TTL.
func (c *CardCache) Set(ctx context.Context, card domain.Card) {
	raw, err := json.Marshal(card)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, keyPrefix+card.ID, raw, c.ttl).Err(); err != nil {
		slog.Warn("card cache set failed", slog.Any("error", err))
	}
}

// Ping reports whether the Redis backend is reachable.
func (c *CardCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
