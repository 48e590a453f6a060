// Package cache provides Redis-backed coordination primitives.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/erp/amazon-connector/internal/infrastructure/config"
)

// NewRedisClient connects a Redis client from configuration and verifies
// the connection.
func NewRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// SchedulerLock keeps multiple instances from triggering the same scheduled
// operation at once. Acquisition is an atomic SETNX with TTL, so a crashed
// holder releases the lock when the TTL expires.
type SchedulerLock struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewSchedulerLock creates a lock manager with the given TTL.
func NewSchedulerLock(client *redis.Client, ttl time.Duration) *SchedulerLock {
	return &SchedulerLock{
		client:    client,
		keyPrefix: "sync:lock:",
		ttl:       ttl,
	}
}

// Acquire attempts to take the lock for a (backend, operation) pair.
// Returns true when this caller now holds it.
func (l *SchedulerLock) Acquire(ctx context.Context, backendID, operation string) (bool, error) {
	key := l.key(backendID, operation)
	ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	return ok, nil
}

// Release frees the lock before its TTL expires.
func (l *SchedulerLock) Release(ctx context.Context, backendID, operation string) error {
	key := l.key(backendID, operation)
	if err := l.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}

func (l *SchedulerLock) key(backendID, operation string) string {
	return l.keyPrefix + backendID + ":" + operation
}
