package keeper

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curvedex/internal/dex"
	"curvedex/internal/migration"
	"curvedex/internal/notify"
)

type fakeLauncher struct {
	ready    []dex.State
	failures map[string]error
	requests map[string]migration.LaunchRequest
}

func newFakeLauncher(ids ...string) *fakeLauncher {
	f := &fakeLauncher{failures: map[string]error{}, requests: map[string]migration.LaunchRequest{}}
	for _, id := range ids {
		f.ready = append(f.ready, dex.State{ID: id, Phase: dex.PhaseReadyToLaunch})
	}
	return f
}

func (f *fakeLauncher) ReadyPools(context.Context, int) ([]dex.State, error) {
	return f.ready, nil
}

func (f *fakeLauncher) Launch(_ context.Context, poolID string, req migration.LaunchRequest) (*dex.LaunchedEvent, error) {
	if err := f.failures[poolID]; err != nil {
		return nil, err
	}
	f.requests[poolID] = req
	return &dex.LaunchedEvent{PoolID: poolID, AmmPoolID: "amm-" + poolID}, nil
}

func TestSweep(t *testing.T) {
	f := newFakeLauncher("a", "b", "c")
	f.failures["b"] = dex.ErrZeroTradingTokens
	f.failures["c"] = dex.ErrLaunched
	k := New(f, "operator", [2]string{"fees-0", "fees-1"})

	launched, failed, err := k.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, launched)
	assert.Equal(t, 1, failed)
	assert.Equal(t, "operator", f.requests["a"].Admin)
	assert.Equal(t, [2]string{"fees-0", "fees-1"}, f.requests["a"].FeeRecipients)
	assert.Empty(t, k.inflight)
}

func TestLaunchOneSkipsInflight(t *testing.T) {
	f := newFakeLauncher()
	k := New(f, "operator", [2]string{})
	require.True(t, k.claim("a"))
	require.NoError(t, k.LaunchOne(context.Background(), "a"))
	assert.Empty(t, f.requests)
}

func envelope(t *testing.T, ev dex.Event) []byte {
	t.Helper()
	env, err := notify.NewEnvelope(ev)
	require.NoError(t, err)
	body, err := json.Marshal(env)
	require.NoError(t, err)
	return body
}

func TestHandleMessage(t *testing.T) {
	f := newFakeLauncher()
	f.failures["broken"] = errors.New("amm unavailable")
	handle := New(f, "operator", [2]string{}).HandleMessage(context.Background())

	require.NoError(t, handle(envelope(t, &dex.ReadyToLaunchEvent{PoolID: "pool"})))
	assert.Contains(t, f.requests, "pool")

	require.NoError(t, handle(envelope(t, &dex.SwapEvent{PoolID: "other"})))
	assert.NotContains(t, f.requests, "other")

	require.NoError(t, handle([]byte("not json")))
	assert.Error(t, handle(envelope(t, &dex.ReadyToLaunchEvent{PoolID: "broken"})))
}

func TestSchedule(t *testing.T) {
	c := cron.New(cron.WithSeconds())
	id, err := New(newFakeLauncher(), "operator", [2]string{}).Schedule(c, DefaultSchedule)
	require.NoError(t, err)
	assert.Equal(t, id, c.Entry(id).ID)

	_, err = New(newFakeLauncher(), "operator", [2]string{}).Schedule(c, "not a spec")
	assert.Error(t, err)
}
