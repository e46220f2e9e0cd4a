// Package cache holds the Redis-backed intake deduplication. Kafka delivers
// alert events at least once; the deduper keeps redeliveries from reaching
// the store.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "alert:intake:"

// Connect creates and pings a Redis client.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("unable to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Deduper remembers recently ingested alert ids.
type Deduper struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDeduper wraps a Redis client. ttl bounds how long an id is remembered;
// it only needs to outlive Kafka's redelivery window.
func NewDeduper(client *redis.Client, ttl time.Duration) *Deduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Deduper{client: client, ttl: ttl}
}

// Seen records the id and reports whether it was already present. The check
// and the record are one atomic SET NX.
func (d *Deduper) Seen(ctx context.Context, id int64) (bool, error) {
	set, err := d.client.SetNX(ctx, fmt.Sprintf("%s%d", keyPrefix, id), 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check for alert %d: %w", id, err)
	}
	return !set, nil
}
