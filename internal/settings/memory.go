package settings

import (
	"context"
	"sync"
)

// MemoryStore keeps settings in process. It is the default backend and the
// one used in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	current Settings
}

// NewMemoryStore seeds a store with initial values.
func NewMemoryStore(initial Settings) *MemoryStore {
	return &MemoryStore{current: initial}
}

// Get implements Reader.
func (m *MemoryStore) Get(ctx context.Context) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, nil
}

// Update implements Store.
func (m *MemoryStore) Update(ctx context.Context, patch Patch) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = patch.Apply(m.current)
	return m.current, nil
}
