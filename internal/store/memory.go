package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"curvedex/internal/amm"
	"curvedex/internal/dex"
	"curvedex/internal/ledger"
)

type memoryData struct {
	nextConfigID uint
	nextSwapID   uint
	configs      map[uint]dex.Config
	pools        map[string]dex.State
	swaps        []SwapRecord
	launches     map[string]LaunchRecord
	ledger       *ledger.Memory
	amms         *amm.MemoryRegistry
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		nextConfigID: d.nextConfigID,
		nextSwapID:   d.nextSwapID,
		configs:      make(map[uint]dex.Config, len(d.configs)),
		pools:        make(map[string]dex.State, len(d.pools)),
		// capped so appends never reach the committed backing array
		swaps:    d.swaps[:len(d.swaps):len(d.swaps)],
		launches: make(map[string]LaunchRecord, len(d.launches)),
		ledger:   d.ledger.Clone(),
		amms:     d.amms.Clone(),
	}
	for k, v := range d.configs {
		c.configs[k] = v
	}
	for k, v := range d.pools {
		c.pools[k] = v
	}
	for k, v := range d.launches {
		c.launches[k] = v
	}
	return c
}

// Memory is a Store held in process. Transactions run one at a time against
// a copy that replaces the committed data on success.
type Memory struct {
	mu   sync.RWMutex
	data *memoryData
}

var _ Store = (*Memory)(nil)

// NewMemory wraps tokens, which keeps belonging to the store afterwards.
func NewMemory(tokens *ledger.Memory) *Memory {
	return &Memory{data: &memoryData{
		nextConfigID: 1,
		nextSwapID:   1,
		configs:      make(map[uint]dex.Config),
		pools:        make(map[string]dex.State),
		launches:     make(map[string]LaunchRecord),
		ledger:       tokens,
		amms:         amm.NewMemoryRegistry(),
	}}
}

func (m *Memory) Transact(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.data.clone()
	if err := fn(&memoryTx{data: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.data = work
	return nil
}

func (m *Memory) View(_ context.Context, fn func(tx Tx) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fn(&memoryTx{data: m.data})
}

// Ledger returns the committed ledger.
func (m *Memory) Ledger() *ledger.Memory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.ledger
}

type memoryTx struct {
	data *memoryData
}

func (t *memoryTx) Ledger() Ledger {
	return t.data.ledger
}

func (t *memoryTx) AmmPool(ctx context.Context, id string) (*amm.Pool, error) {
	return t.data.amms.AmmPool(ctx, id)
}

func (t *memoryTx) SaveAmmPool(ctx context.Context, pool amm.Pool) error {
	return t.data.amms.SaveAmmPool(ctx, pool)
}

func (t *memoryTx) CreateConfig(_ context.Context, cfg dex.Config, _ string) (dex.Config, error) {
	if err := cfg.Validate(); err != nil {
		return dex.Config{}, err
	}
	cfg.ID = t.data.nextConfigID
	t.data.nextConfigID++
	t.data.configs[cfg.ID] = cfg
	return cfg, nil
}

func (t *memoryTx) Config(_ context.Context, id uint) (dex.Config, error) {
	cfg, ok := t.data.configs[id]
	if !ok {
		return dex.Config{}, fmt.Errorf("%w: config %d", ErrNotFound, id)
	}
	return cfg, nil
}

func (t *memoryTx) Configs(_ context.Context) ([]dex.Config, error) {
	out := make([]dex.Config, 0, len(t.data.configs))
	for _, cfg := range t.data.configs {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memoryTx) SaveConfig(_ context.Context, cfg dex.Config) error {
	if _, ok := t.data.configs[cfg.ID]; !ok {
		return fmt.Errorf("%w: config %d", ErrNotFound, cfg.ID)
	}
	t.data.configs[cfg.ID] = cfg
	return nil
}

func (t *memoryTx) CreatePool(_ context.Context, s dex.State) error {
	if _, ok := t.data.pools[s.ID]; ok {
		return fmt.Errorf("%w: %s", ErrPoolExists, s.ID)
	}
	t.data.pools[s.ID] = s
	return nil
}

func (t *memoryTx) Pool(_ context.Context, id string) (dex.State, error) {
	s, ok := t.data.pools[id]
	if !ok {
		return dex.State{}, fmt.Errorf("%w: pool %s", ErrNotFound, id)
	}
	return s, nil
}

func (t *memoryTx) Pools(_ context.Context, filter PoolFilter) ([]dex.State, error) {
	out := make([]dex.State, 0, len(t.data.pools))
	for _, s := range t.data.pools {
		if matches(s, filter) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (t *memoryTx) SavePool(_ context.Context, s dex.State) error {
	if _, ok := t.data.pools[s.ID]; !ok {
		return fmt.Errorf("%w: pool %s", ErrNotFound, s.ID)
	}
	t.data.pools[s.ID] = s
	return nil
}

func (t *memoryTx) RecordSwap(_ context.Context, trader string, ev *dex.SwapEvent) error {
	t.data.swaps = append(t.data.swaps, SwapRecord{ID: t.data.nextSwapID, Trader: trader, SwapEvent: *ev})
	t.data.nextSwapID++
	return nil
}

func (t *memoryTx) Swaps(_ context.Context, poolID string, limit int) ([]SwapRecord, error) {
	out := make([]SwapRecord, 0)
	for i := len(t.data.swaps) - 1; i >= 0; i-- {
		if t.data.swaps[i].PoolID != poolID {
			continue
		}
		out = append(out, t.data.swaps[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (t *memoryTx) RecordLaunch(_ context.Context, lpMint string, ev *dex.LaunchedEvent) error {
	if _, ok := t.data.launches[ev.PoolID]; ok {
		return fmt.Errorf("%w: launch of %s", dex.ErrLaunched, ev.PoolID)
	}
	t.data.launches[ev.PoolID] = LaunchRecord{LpMint: lpMint, LaunchedEvent: *ev}
	return nil
}

func (t *memoryTx) Launch(_ context.Context, poolID string) (*LaunchRecord, error) {
	rec, ok := t.data.launches[poolID]
	if !ok {
		return nil, fmt.Errorf("%w: launch of %s", ErrNotFound, poolID)
	}
	return &rec, nil
}
