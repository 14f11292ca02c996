package amm

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryRegistry keeps pools in a map.
type MemoryRegistry struct {
	mu    sync.RWMutex
	pools map[string]Pool
}

var _ Registry = (*MemoryRegistry)(nil)

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{pools: make(map[string]Pool)}
}

func (r *MemoryRegistry) AmmPool(_ context.Context, id string) (*Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pool, ok := r.pools[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, id)
	}
	return &pool, nil
}

func (r *MemoryRegistry) SaveAmmPool(_ context.Context, pool Pool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[pool.ID] = pool
	return nil
}

// List returns every pool sorted by id.
func (r *MemoryRegistry) List() []Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Pool, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MemoryRegistry) Clone() *MemoryRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewMemoryRegistry()
	for k, v := range r.pools {
		c.pools[k] = v
	}
	return c
}
