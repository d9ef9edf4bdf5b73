package session

import (
	"context"
	"sync"
)

// Store keys used by the session manager.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyUser         = "user"
)

// Store is a durable client-local key space for session credentials and the
// cached identity. Get on a missing key returns an empty string and no
// error: absence is an expected state, not a failure.
type Store interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

// MemoryStore is an in-process Store. Sessions do not survive a restart;
// it is intended for tests and ephemeral runs.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// NoopStore is the fallback Store used when no durable storage is
// available. Every operation is a safe no-op; Get always reports absence.
type NoopStore struct{}

// NewNoopStore creates a store that retains nothing.
func NewNoopStore() *NoopStore {
	return &NoopStore{}
}

func (NoopStore) Set(context.Context, string, string) error { return nil }

func (NoopStore) Get(context.Context, string) (string, error) { return "", nil }

func (NoopStore) Remove(context.Context, string) error { return nil }
