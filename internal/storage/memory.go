package storage

import (
	"context"
	"sync"
)

// Memory is an in-process backend. Every store opened on the same Memory shares
// one keyspace and receives change signals from the others, the way browser tabs
// share localStorage.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
	hub  *hub
}

func NewMemory() *Memory {
	return &Memory{
		data: map[string]string{},
		hub:  newHub(),
	}
}

func (m *Memory) Get(_ context.Context, scope, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.data[hubKey(normalizeScope(scope), key)]
	return value, ok, nil
}

func (m *Memory) Set(ctx context.Context, scope, key, value string) error {
	scope = normalizeScope(scope)
	m.mu.Lock()
	m.data[hubKey(scope, key)] = value
	m.mu.Unlock()

	m.hub.publish(Change{Scope: scope, Key: key, Origin: OriginFromContext(ctx)})
	return nil
}

func (m *Memory) Delete(ctx context.Context, scope, key string) error {
	scope = normalizeScope(scope)
	m.mu.Lock()
	delete(m.data, hubKey(scope, key))
	m.mu.Unlock()

	m.hub.publish(Change{Scope: scope, Key: key, Origin: OriginFromContext(ctx), Deleted: true})
	return nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}

func (m *Memory) Watch(ctx context.Context, scope, key string) (<-chan Change, error) {
	return m.hub.watch(ctx, normalizeScope(scope), key), nil
}

// Watchers reports how many watches are still registered.
func (m *Memory) Watchers() int {
	return m.hub.size()
}
