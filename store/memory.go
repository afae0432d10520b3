package store

import (
	"context"
	"sync"
	"time"

	"github.com/wearlane/recsys/core"
)

type memoryEntry struct {
	value    []byte
	expireAt time.Time // zero means no expiry
}

// MemoryStore is an in-process key-value store with per-key TTL. It serves as
// the cache backend for single-node and test setups; production setups use
// RedisStore behind the same interface.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]memoryEntry

	stopCleanup chan struct{}
	closeOnce   sync.Once
}

var _ core.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		data:        make(map[string]memoryEntry),
		stopCleanup: make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.removeExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryStore) removeExpired() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.data {
		if !e.expireAt.IsZero() && now.After(e.expireAt) {
			delete(s.data, k)
		}
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	if !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		s.mu.Lock()
		delete(s.data, key)
		s.mu.Unlock()
		return nil, core.ErrStoreNotFound
	}
	return e.value, nil
}

// Set stores a value. The optional ttl is in seconds; zero or omitted means
// no expiry.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl ...int) error {
	e := memoryEntry{value: value}
	if len(ttl) > 0 && ttl[0] > 0 {
		e.expireAt = time.Now().Add(time.Duration(ttl[0]) * time.Second)
	}
	s.mu.Lock()
	s.data[key] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) BatchGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		v, err := s.Get(ctx, k)
		if err != nil {
			if core.IsStoreNotFound(err) {
				continue
			}
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) BatchSet(ctx context.Context, kvs map[string][]byte, ttl ...int) error {
	for k, v := range kvs {
		if err := s.Set(ctx, k, v, ttl...); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopCleanup) })
	return nil
}
