package state

import (
	"context"
	"sync"
	"time"
)

type memoryList struct {
	items     [][]byte
	expiresAt time.Time
}

// MemoryStore is a process-local ListStore with the same sliding expiry
// semantics as the Redis backends. Used by the chat CLI and in tests.
type MemoryStore struct {
	mu    sync.Mutex
	lists map[string]*memoryList
	now   func() time.Time
}

var _ ListStore = (*MemoryStore)(nil)

func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		lists: make(map[string]*memoryList),
		now:   now,
	}
}

func (s *MemoryStore) Append(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.live(key)
	if list == nil {
		list = &memoryList{}
		s.lists[key] = list
	}
	list.items = append(list.items, append([]byte(nil), value...))
	if ttl > 0 {
		list.expiresAt = s.now().Add(time.Duration(ttlSeconds(ttl)) * time.Second)
	} else {
		list.expiresAt = time.Time{}
	}
	return nil
}

func (s *MemoryStore) Range(_ context.Context, key string) ([][]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.live(key)
	if list == nil {
		return nil, nil
	}
	out := make([][]byte, len(list.items))
	for i, item := range list.items {
		out[i] = append([]byte(nil), item...)
	}
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	delete(s.lists, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Len(_ context.Context, key string) (int64, error) {
	if key == "" {
		return 0, ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.live(key)
	if list == nil {
		return 0, nil
	}
	return int64(len(list.items)), nil
}

// live returns the list for key, dropping it first if it has expired.
// Caller holds s.mu.
func (s *MemoryStore) live(key string) *memoryList {
	list, ok := s.lists[key]
	if !ok {
		return nil
	}
	if !list.expiresAt.IsZero() && !s.now().Before(list.expiresAt) {
		delete(s.lists, key)
		return nil
	}
	return list
}
