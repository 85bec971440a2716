package infrastructure

import (
	"context"
	"fmt"
	"path"
	"sort"
	"sync"

	"resume-analyzer/domain"
)

// MemoryKV is a process-local store for development and tests. Patterns
// use path.Match syntax.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryKV) List(_ context.Context, pattern string, withValues bool) ([]domain.KVItem, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]domain.KVItem, 0)
	for k, v := range m.values {
		if ok, _ := path.Match(pattern, k); !ok {
			continue
		}
		item := domain.KVItem{Key: k}
		if withValues {
			item.Value = v
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

func (m *MemoryKV) Flush(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	return nil
}
