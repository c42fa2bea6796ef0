package cache

import (
	"context"
	"errors"
	"sync"
)

// ErrMiss est retourné quand la clé n'existe pas dans le slot
var ErrMiss = errors.New("cache miss")

// Slot est l'emplacement durable clé/valeur qui contient le panier sérialisé.
type Slot interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Watcher est implémenté par les slots capables de signaler une écriture externe
// (autre onglet, autre instance). Le canal reçoit un signal par écriture.
type Watcher interface {
	Watch(ctx context.Context, key string) (<-chan struct{}, func())
}

// MemorySlot garde les paniers en mémoire (dev local et tests)
type MemorySlot struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{data: make(map[string][]byte)}
}

func (m *MemorySlot) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrMiss
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemorySlot) Set(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(data))
	copy(v, data)
	m.data[key] = v
	return nil
}

func (m *MemorySlot) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}
