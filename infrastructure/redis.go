package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"resume-analyzer/domain"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisKV stores values as plain Redis strings under an optional prefix.
type RedisKV struct {
	client *redis.Client
	prefix string
}

func NewRedisKV(cfg RedisConfig) *RedisKV {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisKV{client: client, prefix: cfg.Prefix}
}

func (r *RedisKV) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// List scans keys matching pattern. Keys removed between the scan and the
// value lookup are skipped.
func (r *RedisKV) List(ctx context.Context, pattern string, withValues bool) ([]domain.KVItem, error) {
	iter := r.client.Scan(ctx, 0, r.prefix+pattern, 100).Iterator()

	keys := make([]string, 0)
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	sort.Strings(keys)

	items := make([]domain.KVItem, 0, len(keys))
	for _, full := range keys {
		item := domain.KVItem{Key: strings.TrimPrefix(full, r.prefix)}
		if withValues {
			val, err := r.client.Get(ctx, full).Result()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("redis get: %w", err)
			}
			item.Value = val
		}
		items = append(items, item)
	}
	return items, nil
}

// Flush removes every key under the prefix, or the whole database when
// no prefix is set.
func (r *RedisKV) Flush(ctx context.Context) error {
	if r.prefix == "" {
		if err := r.client.FlushDB(ctx).Err(); err != nil {
			return fmt.Errorf("redis flush: %w", err)
		}
		return nil
	}

	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis delete by prefix: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}

func (r *RedisKV) Close() error {
	return r.client.Close()
}
