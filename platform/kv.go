package platform

import (
	"context"
	"fmt"

	"resume-analyzer/domain"
)

type KV struct {
	c *Client
}

// Get returns a nil value with ok=true when key is missing. ok=false means
// the call itself failed.
func (k *KV) Get(ctx context.Context, key string) (*string, bool) {
	if !k.c.begin(ctx, "kv") {
		return nil, false
	}
	defer k.c.endOp()

	value, found, err := k.c.backends.KV.Get(ctx, key)
	if err != nil {
		k.c.fail(ctx, "kv", fmt.Errorf("failed to get key %q: %w", key, err))
		return nil, false
	}
	if !found {
		return nil, true
	}
	return &value, true
}

func (k *KV) Set(ctx context.Context, key, value string) bool {
	if !k.c.begin(ctx, "kv") {
		return false
	}
	defer k.c.endOp()

	if err := k.c.backends.KV.Set(ctx, key, value); err != nil {
		k.c.fail(ctx, "kv", fmt.Errorf("failed to set key %q: %w", key, err))
		return false
	}
	return true
}

func (k *KV) Delete(ctx context.Context, key string) bool {
	if !k.c.begin(ctx, "kv") {
		return false
	}
	defer k.c.endOp()

	if err := k.c.backends.KV.Delete(ctx, key); err != nil {
		k.c.fail(ctx, "kv", fmt.Errorf("failed to delete key %q: %w", key, err))
		return false
	}
	return true
}

func (k *KV) List(ctx context.Context, pattern string, withValues bool) ([]domain.KVItem, bool) {
	if !k.c.begin(ctx, "kv") {
		return nil, false
	}
	defer k.c.endOp()

	items, err := k.c.backends.KV.List(ctx, pattern, withValues)
	if err != nil {
		k.c.fail(ctx, "kv", fmt.Errorf("failed to list keys: %w", err))
		return nil, false
	}
	return items, true
}

func (k *KV) Flush(ctx context.Context) bool {
	if !k.c.begin(ctx, "kv") {
		return false
	}
	defer k.c.endOp()

	if err := k.c.backends.KV.Flush(ctx); err != nil {
		k.c.fail(ctx, "kv", fmt.Errorf("failed to flush store: %w", err))
		return false
	}
	return true
}
