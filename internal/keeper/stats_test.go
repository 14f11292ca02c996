package keeper

import (
	"context"
	"sync"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curvedex/internal/dex"
	"curvedex/internal/engine"
	"curvedex/internal/store"
)

type fakePools struct {
	pools map[string]*engine.PoolView
}

func (f *fakePools) Pools(_ context.Context, filter store.PoolFilter) ([]dex.State, error) {
	var out []dex.State
	for _, v := range f.pools {
		if filter.Phase == nil || v.Phase == *filter.Phase {
			out = append(out, v.State)
		}
	}
	return out, nil
}

func (f *fakePools) Pool(_ context.Context, id string) (*engine.PoolView, error) {
	v, ok := f.pools[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return v, nil
}

type fakeSink struct {
	mu      sync.Mutex
	set     map[string][2]uint64
	dropped []string
}

func (s *fakeSink) SetPool(id string, balances [2]uint64, _ uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set[id] = balances
}

func (s *fakeSink) DropPool(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.set, id)
	s.dropped = append(s.dropped, id)
}

func poolView(id string, phase dex.Phase, balances [2]uint64) *engine.PoolView {
	return &engine.PoolView{State: dex.State{ID: id, Phase: phase}, Balances: balances}
}

func TestPoolStatsUpdate(t *testing.T) {
	f := &fakePools{pools: map[string]*engine.PoolView{
		"a": poolView("a", dex.PhaseTrading, [2]uint64{1, 2}),
		"b": poolView("b", dex.PhaseTrading, [2]uint64{3, 4}),
		"c": poolView("c", dex.PhaseLaunched, [2]uint64{0, 0}),
	}}
	sink := &fakeSink{set: map[string][2]uint64{}}
	p := NewPoolStats(f, sink)

	require.NoError(t, p.Update(context.Background()))
	assert.Equal(t, map[string][2]uint64{"a": {1, 2}, "b": {3, 4}}, sink.set)

	f.pools["b"].Phase = dex.PhaseReadyToLaunch
	require.NoError(t, p.Update(context.Background()))
	assert.Equal(t, map[string][2]uint64{"a": {1, 2}}, sink.set)
	assert.Equal(t, []string{"b"}, sink.dropped)
}

func TestPoolStatsSchedule(t *testing.T) {
	p := NewPoolStats(&fakePools{}, &fakeSink{set: map[string][2]uint64{}})
	c := cron.New(cron.WithSeconds())
	_, err := p.Schedule(c, "")
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
}
