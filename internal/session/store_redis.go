package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"fedvault/pkg/platform/sentinel"
)

// Redis key prefix for mirrored session references.
const mirrorKeyPrefix = "fed:session:"

// RedisMirror is a Redis-backed session Mirror. Only the session id and the
// pinned origin are stored, with a TTL, so a redirect flow can resume after a
// full-page navigation without ever persisting tokens.
type RedisMirror struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMirror constructs a mirror over an existing client. The client
// lifecycle is managed externally.
func NewRedisMirror(client *redis.Client, ttl time.Duration) *RedisMirror {
	return &RedisMirror{client: client, ttl: ttl}
}

// Save records the session reference with the configured TTL.
func (m *RedisMirror) Save(ctx context.Context, id, origin string) error {
	if id == "" {
		return nil
	}
	return m.client.Set(ctx, mirrorKeyPrefix+id, origin, m.ttl).Err()
}

// Load returns the origin recorded for a session id.
func (m *RedisMirror) Load(ctx context.Context, id string) (string, error) {
	origin, err := m.client.Get(ctx, mirrorKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return origin, nil
}

// Drop removes the mirrored reference on terminal transition.
func (m *RedisMirror) Drop(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	return m.client.Del(ctx, mirrorKeyPrefix+id).Err()
}
