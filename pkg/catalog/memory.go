package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/Sternrassler/flashsale-itemcache/pkg/itemcache"
)

// MemoryStore is an in-process itemcache.ItemStore. It backs examples and
// tests that do not need the HTTP catalog.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[int64]itemcache.Item
	calls atomic.Int64
}

var _ itemcache.ItemStore = (*MemoryStore)(nil)

// NewMemoryStore returns a store holding items.
func NewMemoryStore(items ...itemcache.Item) *MemoryStore {
	s := &MemoryStore{items: make(map[int64]itemcache.Item, len(items))}
	for _, it := range items {
		s.items[it.ID] = it
	}
	return s
}

// Put inserts or replaces an item.
func (s *MemoryStore) Put(item itemcache.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// Delete removes an item.
func (s *MemoryStore) Delete(itemID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, itemID)
}

// FetchByID returns a copy of the stored item or itemcache.ErrItemNotFound.
func (s *MemoryStore) FetchByID(ctx context.Context, itemID int64) (*itemcache.Item, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[itemID]
	if !ok {
		return nil, itemcache.ErrItemNotFound
	}
	return &item, nil
}

// Calls returns how many times FetchByID has been invoked.
func (s *MemoryStore) Calls() int64 {
	return s.calls.Load()
}
