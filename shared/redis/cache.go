package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ViewCache is a generic JSON-backed Redis cache for read model projections.
// Cache failures never fail the caller; they are logged and treated as misses.
type ViewCache[T any] struct {
	client goredis.Cmdable
	prefix string
	ttl    time.Duration
	log    *logrus.Entry
}

// NewViewCache creates a ViewCache whose keys are prefix+key. A zero ttl
// means entries do not expire.
func NewViewCache[T any](client goredis.Cmdable, prefix string, ttl time.Duration, log *logrus.Entry) *ViewCache[T] {
	return &ViewCache[T]{client: client, prefix: prefix, ttl: ttl, log: log}
}

// Get returns (nil, false) on a miss or any decode error.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.WithError(err).WithField("key", c.prefix+key).Warn("view cache read failed")
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.log.WithError(err).WithField("key", c.prefix+key).Warn("view cache entry is corrupt")
		return nil, false
	}
	return &v, true
}

// Set stores value under key. If the write fails the key is dropped so a
// stale entry cannot outlive the change that should have replaced it.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.WithError(err).WithField("key", c.prefix+key).Warn("view cache marshal failed")
		c.Delete(ctx, key)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", c.prefix+key).Warn("view cache write failed")
		c.Delete(ctx, key)
	}
}

func (c *ViewCache[T]) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.log.WithError(err).WithField("key", c.prefix+key).Warn("view cache delete failed")
	}
}
