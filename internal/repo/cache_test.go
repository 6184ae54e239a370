package repo

import (
	"context"
	"sync"
	"time"

	"github.com/miradorstack/mirador-shiftreport/internal/cache"
)

type stubCache struct {
	mu      sync.Mutex
	store   map[string][]byte
	gets    int
	deletes []string
	// beforeSet runs ahead of every Set, outside the lock.
	beforeSet func(key string)
}

func newStubCache() *stubCache {
	return &stubCache{store: make(map[string][]byte)}
}

func (s *stubCache) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	value, ok := s.store[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return append([]byte(nil), value...), nil
}

func (s *stubCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if s.beforeSet != nil {
		s.beforeSet(key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store[key] = append([]byte(nil), value...)
	return nil
}

func (s *stubCache) SetNX(_ context.Context, key string, value []byte, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.store[key]; exists {
		return false, nil
	}
	s.store[key] = append([]byte(nil), value...)
	return true, nil
}

func (s *stubCache) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.store, key)
		s.deletes = append(s.deletes, key)
	}
	return nil
}

func (s *stubCache) Close() error { return nil }

func (s *stubCache) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.store[key]
	return ok
}
