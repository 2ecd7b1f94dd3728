package store

import (
	"context"
	"sync"
	"time"
)

// entry represents a stored counter with expiration.
type entry struct {
	value      int64
	expiration time.Time
}

// MemoryStore implements Store using in-process storage. It exists mainly
// for tests and single-node deployments that still want the Store seam.
type MemoryStore struct {
	mu      sync.Mutex
	data    map[string]*entry
	cleanup *time.Ticker
	done    chan struct{}
	closed  sync.Once
}

// NewMemoryStore creates a new in-memory store with a one minute cleanup
// interval.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithCleanupInterval(time.Minute)
}

// NewMemoryStoreWithCleanupInterval creates a new in-memory store with a
// custom cleanup interval.
func NewMemoryStoreWithCleanupInterval(interval time.Duration) *MemoryStore {
	s := &MemoryStore{
		data:    make(map[string]*entry),
		cleanup: time.NewTicker(interval),
		done:    make(chan struct{}),
	}

	go s.runCleanup()

	return s
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok || s.expired(e) {
		delete(s.data, key)
		return 0, &ErrKeyNotFound{Key: key}
	}
	return e.value, nil
}

// IncrementWithExpiry implements Store.
func (s *MemoryStore) IncrementWithExpiry(ctx context.Context, key string, delta int64, expiration time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok || s.expired(e) {
		e = &entry{value: delta, expiration: time.Now().Add(expiration)}
		s.data[key] = e
		return e.value, nil
	}

	e.value += delta
	return e.value, nil
}

// TTL implements Store.
func (s *MemoryStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.data[key]
	if !ok || s.expired(e) {
		return 0, nil
	}
	return time.Until(e.expiration), nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// Close implements Store. It is idempotent.
func (s *MemoryStore) Close() error {
	s.closed.Do(func() {
		s.cleanup.Stop()
		close(s.done)

		s.mu.Lock()
		s.data = make(map[string]*entry)
		s.mu.Unlock()
	})
	return nil
}

// expired reports whether the entry has passed its expiration.
func (s *MemoryStore) expired(e *entry) bool {
	return !e.expiration.IsZero() && time.Now().After(e.expiration)
}

// runCleanup removes expired entries until Close is called.
func (s *MemoryStore) runCleanup() {
	for {
		select {
		case <-s.done:
			return
		case <-s.cleanup.C:
			s.mu.Lock()
			for key, e := range s.data {
				if s.expired(e) {
					delete(s.data, key)
				}
			}
			s.mu.Unlock()
		}
	}
}
