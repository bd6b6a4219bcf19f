package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps values as JSON under "<prefix><key>", so state survives
// restarts and can be shared by several bot replicas.
type RedisStore[T any] struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore[T any](client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore[T] {
	return &RedisStore[T]{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisStore[T]) key(key int64) string {
	return fmt.Sprintf("%s%d", r.prefix, key)
}

func (r *RedisStore[T]) Get(ctx context.Context, key int64) (T, bool, error) {
	var value T
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return value, false, nil
	}
	if err != nil {
		return value, false, fmt.Errorf("get state %d: %w", key, err)
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false, fmt.Errorf("decode state %d: %w", key, err)
	}
	return value, true, nil
}

func (r *RedisStore[T]) Put(ctx context.Context, key int64, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode state %d: %w", key, err)
	}
	if err := r.client.Set(ctx, r.key(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("set state %d: %w", key, err)
	}
	return nil
}

func (r *RedisStore[T]) Delete(ctx context.Context, key int64) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("delete state %d: %w", key, err)
	}
	return nil
}
