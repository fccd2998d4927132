package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/GriffinCanCode/CueDeck/backend/internal/shared/types"
)

// Memory is an in-process catalog
type Memory struct {
	mu    sync.RWMutex
	items map[string]types.Item
}

// NewMemory creates a catalog holding items
func NewMemory(items ...types.Item) *Memory {
	m := &Memory{items: make(map[string]types.Item, len(items))}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

// Lookup returns the item with id
func (m *Memory) Lookup(ctx context.Context, id string) (types.Item, bool, error) {
	if err := ctx.Err(); err != nil {
		return types.Item{}, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[id]
	return it, ok, nil
}

// Put adds or replaces an item
func (m *Memory) Put(it types.Item) {
	m.mu.Lock()
	m.items[it.ID] = it
	m.mu.Unlock()
}

// Remove deletes the item with id
func (m *Memory) Remove(id string) {
	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
}

// List returns every item ordered by ID
func (m *Memory) List() []types.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Item, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Close is a no-op
func (m *Memory) Close() error { return nil }
