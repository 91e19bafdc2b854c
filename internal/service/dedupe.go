package service

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDeduper remembers processed gateway event ids in Redis with a TTL.
// It fails open: any Redis error is logged and treated as "not seen",
// leaving the ledger's conditional update to absorb the duplicate.
type RedisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisDeduper wraps a Redis client. Returns nil when the client is nil
// so callers can wire it straight through from a degraded Redis setup.
func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) *RedisDeduper {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

func (d *RedisDeduper) key(eventID string) string { return "webhook:event:" + eventID }

// Seen reports whether the event id was marked before.
func (d *RedisDeduper) Seen(ctx context.Context, eventID string) bool {
	n, err := d.rdb.Exists(ctx, d.key(eventID)).Result()
	if err != nil {
		log.Printf("dedupe: redis exists failed for %s: %v", eventID, err)
		return false
	}
	return n > 0
}

// Mark records the event id after a delivery has been fully handled. Marking
// only after success keeps a failed apply retryable.
func (d *RedisDeduper) Mark(ctx context.Context, eventID string) {
	if err := d.rdb.Set(ctx, d.key(eventID), 1, d.ttl).Err(); err != nil {
		log.Printf("dedupe: redis set failed for %s: %v", eventID, err)
	}
}
