package pending

import (
	"context"
	"sync"
	"time"
)

type inMemory struct {
	mu      sync.RWMutex
	storage map[string]*Pending
}

// NewMemoryStore creates an in-process store, suitable when the same process
// resumes its own suspended dispatches.
func NewMemoryStore() Store {
	return &inMemory{}
}

func (m *inMemory) Put(ctx context.Context, p *Pending) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage == nil {
		// create on first use
		m.storage = make(map[string]*Pending)
	}
	cp := *p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.storage[p.InvocationID] = &cp
	return nil
}

func (m *inMemory) Take(ctx context.Context, invocationID string) (*Pending, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.storage[invocationID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.storage, invocationID)
	return p, nil
}

func (m *inMemory) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.storage))
	for id := range m.storage {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *inMemory) Delete(ctx context.Context, invocationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.storage != nil {
		delete(m.storage, invocationID)
	}
	return nil
}
