package credstore

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials in process memory. Used by tests and by
// short-lived tools that must not touch disk.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value for service
func (m *MemoryStore) Get(ctx context.Context, service string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[service]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value for service
func (m *MemoryStore) Set(ctx context.Context, service, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[service] = value
	return nil
}

// Clear removes service
func (m *MemoryStore) Clear(ctx context.Context, service string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, service)
	return nil
}

// SetPair replaces access and refresh under one lock
func (m *MemoryStore) SetPair(ctx context.Context, access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[ServiceAccessToken] = access
	m.values[ServiceRefreshToken] = refresh
	return nil
}
