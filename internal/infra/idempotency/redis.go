// Package idempotency stops a retried request from being applied twice.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Guard claims request keys. Claim returns false when the key was already
// claimed within the TTL.
type Guard interface {
	Claim(ctx context.Context, tenantID uuid.UUID, key string) (bool, error)
	Release(ctx context.Context, tenantID uuid.UUID, key string) error
}

type client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Redis struct {
	rdb client
	ttl time.Duration
}

// Connect dials redis and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return rdb, nil
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func redisKey(tenantID uuid.UUID, key string) string {
	return "idem:" + tenantID.String() + ":" + key
}

func (g *Redis) Claim(ctx context.Context, tenantID uuid.UUID, key string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, redisKey(tenantID, key), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim idempotency key: %w", err)
	}
	return ok, nil
}

// Release frees a key whose request failed, so the client may retry it.
func (g *Redis) Release(ctx context.Context, tenantID uuid.UUID, key string) error {
	return g.rdb.Del(ctx, redisKey(tenantID, key)).Err()
}

// Nop accepts every key. Used when redis is not configured.
type Nop struct{}

func (Nop) Claim(context.Context, uuid.UUID, string) (bool, error) { return true, nil }

func (Nop) Release(context.Context, uuid.UUID, string) error { return nil }
