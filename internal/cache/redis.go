package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache caches computed reports per person so repeated report requests
// do not recompute over the full series. Entries are invalidated whenever a
// new reading arrives for the person.
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
	ttl    time.Duration
}

// NewRedisCache creates a new Redis-backed report cache
func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCache{
		client: client,
		ctx:    ctx,
		ttl:    ttl,
	}, nil
}

func reportKey(personID string) string {
	return fmt.Sprintf("report:%s", personID)
}

// StoreReport caches a serialized report for a person
func (r *RedisCache) StoreReport(personID string, report interface{}) error {
	jsonData, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	return r.client.Set(r.ctx, reportKey(personID), jsonData, r.ttl).Err()
}

// GetReport returns the cached report JSON for a person, if present
func (r *RedisCache) GetReport(personID string) ([]byte, bool, error) {
	data, err := r.client.Get(r.ctx, reportKey(personID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached report: %w", err)
	}
	return data, true, nil
}

// InvalidateReport drops the cached report for a person
func (r *RedisCache) InvalidateReport(personID string) error {
	return r.client.Del(r.ctx, reportKey(personID)).Err()
}

// Ping checks Redis availability
func (r *RedisCache) Ping() error {
	return r.client.Ping(r.ctx).Err()
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
