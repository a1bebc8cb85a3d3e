// Package pricecache caches resolved current-price quotes in Redis for
// display reads. Cached values may be stale: every authoritative write path
// invalidates the key, and a short TTL bounds staleness when invalidation is
// missed. Arbitration never reads from this cache.
package pricecache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"auction-engine/utils"
)

const defaultTTL = 2 * time.Second

// Cache wraps a Redis client with price-quote operations. A nil *Cache is
// valid and turns every operation into a no-op, so callers need no
// configuration checks.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection.
func New(addr, password string, db int) (*Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	return &Cache{client: rdb, ttl: defaultTTL}, nil
}

func quoteKey(auctionID string) string {
	return fmt.Sprintf("auction:%s:current_price", auctionID)
}

// GetQuote returns the cached price quote for an auction and whether it was
// found. The value encodes "amount|flag" where flag marks an active highest
// bid.
func (c *Cache) GetQuote(ctx context.Context, auctionID string) (amount float64, hasHighestBid, ok bool) {
	if c == nil {
		return 0, false, false
	}
	val, err := c.client.Get(ctx, quoteKey(auctionID)).Result()
	if err != nil {
		if err != redis.Nil {
			utils.Warn("price cache read failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
		}
		return 0, false, false
	}
	parts := strings.SplitN(val, "|", 2)
	if len(parts) != 2 {
		return 0, false, false
	}
	amount, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, false, false
	}
	return amount, parts[1] == "1", true
}

// SetQuote stores the resolved quote with the cache TTL. Failures are logged
// and swallowed; the cache is an optimization, not a source of truth.
func (c *Cache) SetQuote(ctx context.Context, auctionID string, amount float64, hasHighestBid bool) {
	if c == nil {
		return
	}
	flag := "0"
	if hasHighestBid {
		flag = "1"
	}
	val := strconv.FormatFloat(amount, 'f', -1, 64) + "|" + flag
	if err := c.client.Set(ctx, quoteKey(auctionID), val, c.ttl).Err(); err != nil {
		utils.Warn("price cache write failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
	}
}

// Invalidate drops the cached quote after an authoritative change.
func (c *Cache) Invalidate(ctx context.Context, auctionID string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, quoteKey(auctionID)).Err(); err != nil {
		utils.Warn("price cache invalidate failed", map[string]any{"auction_id": auctionID, "error": err.Error()})
	}
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
