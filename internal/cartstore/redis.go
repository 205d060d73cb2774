// Package cartstore persists session carts in Redis. The cart is the only
// server-side session state: one JSON blob per session key, rewritten in
// full after every mutation. Reloading a missing or unreadable blob yields
// an empty cart so a corrupt entry never breaks the session.
package cartstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/gkpcrackers/storefront/internal/domain/cart"
)

const keyPrefix = "cart:"

var _ cart.Store = (*RedisStore)(nil)

// RedisStore implements cart.Store backed by Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a RedisStore from a Redis URL and verifies connectivity.
// Carts expire after ttl of inactivity; every Save resets the clock.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis URL")
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Wrap(err, "connect to redis")
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

// Ping reports Redis connectivity; used by the readiness probe.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Load fetches the cart for the given session. A missing key or a blob
// that fails to decode degrades to an empty cart; only transport errors
// propagate.
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*cart.Cart, error) {
	data, err := s.client.Get(ctx, keyPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &cart.Cart{}, nil
		}
		return nil, errors.Wrap(err, "load cart")
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		zctx.From(ctx).Warn("discarding unreadable cart blob",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		return &cart.Cart{}, nil
	}
	return &c, nil
}

// Save serializes the full cart under the session key and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, sessionID string, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}
	if err := s.client.Set(ctx, keyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "save cart")
	}
	return nil
}

// Clear deletes the session's cart.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}
