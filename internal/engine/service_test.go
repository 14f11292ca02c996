package engine_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curvedex/internal/dex"
	"curvedex/internal/engine"
	"curvedex/internal/ledger"
	"curvedex/internal/metrics"
	"curvedex/internal/migration"
	"curvedex/internal/store"
	"curvedex/pkg/curve"
	solanautil "curvedex/pkg/solana"
)

const (
	wsol = "So11111111111111111111111111111111111111112"
	usdc = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ticker moves one second forward on every reading, so a pool is open by
// the time the first swap reaches it.
type ticker struct {
	mu sync.Mutex
	t  time.Time
}

func (c *ticker) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recorder struct {
	mu     sync.Mutex
	events []dex.Event
}

func (r *recorder) Notify(_ context.Context, ev dex.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.EventName()
	}
	return out
}

type harness struct {
	svc     *engine.Service
	events  *recorder
	metrics *metrics.Metrics
	cfg     dex.Config
	pool    dex.State
}

// newHarness opens a wSOL/USDC pool of 1M/1M with a 1% swap fee, a 2%
// launch fee and a 2M wSOL bound. The request lists the mints out of pool
// order.
func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	m, err := metrics.New(nil)
	require.NoError(t, err)
	h := &harness{events: &recorder{}, metrics: m}

	opts := engine.DefaultOptions()
	opts.FeeRecipients = [2]string{"fees-0", "fees-1"}
	opts.Now = (&ticker{t: now}).Now
	h.svc = engine.New(store.NewMemory(ledger.NewMemory()), h.events, m, opts)

	require.NoError(t, h.svc.RegisterMint(ctx, ledger.MintSpec{Address: wsol, Decimals: 9, Supported: true}))
	require.NoError(t, h.svc.RegisterMint(ctx, ledger.MintSpec{Address: usdc, Decimals: 6, Supported: true}))
	require.NoError(t, h.svc.MintTo(ctx, "creator-0", "creator", wsol, 1_000_000))
	require.NoError(t, h.svc.MintTo(ctx, "creator-1", "creator", usdc, 1_000_000))
	require.NoError(t, h.svc.MintTo(ctx, "trader-0", "trader", wsol, 5_000_000))

	h.cfg, err = h.svc.CreateConfig(ctx, "admin", dex.Config{
		SwapFeeRate:   10_000,
		LaunchFeeRate: 20_000,
		ReserveBound:  dex.ReserveBound{Amount: 2_000_000, Side: dex.Token0, Comparison: dex.AtLeast},
	})
	require.NoError(t, err)

	h.pool, err = h.svc.CreatePool(ctx, engine.CreatePoolRequest{
		ConfigID:        h.cfg.ID,
		Creator:         "creator",
		Mints:           [2]string{usdc, wsol},
		CreatorAccounts: [2]string{"creator-1", "creator-0"},
		InitAmounts:     [2]uint64{1_000_000, 1_000_000},
		OpenTime:        now,
	})
	require.NoError(t, err)
	return h
}

func (h *harness) buy(t *testing.T, amount, minOut uint64) (*dex.SwapEvent, error) {
	t.Helper()
	return h.svc.Swap(context.Background(), h.pool.ID, "trader", dex.SwapRequest{
		Direction:     curve.ZeroForOne,
		Mode:          dex.BaseInput,
		Amount:        amount,
		Limit:         minOut,
		InputAccount:  "trader-0",
		OutputAccount: "trader-1",
	})
}

func (h *harness) balance(t *testing.T, account string) uint64 {
	t.Helper()
	bal, err := h.svc.Balance(context.Background(), account)
	require.NoError(t, err)
	return bal
}

func TestCreatePoolOrdersMints(t *testing.T) {
	h := newHarness(t)

	want, err := solanautil.DeriveDexAddresses(solanautil.DEX_PROGRAM,
		solana.MustPublicKeyFromBase58(usdc), solana.MustPublicKeyFromBase58(wsol))
	require.NoError(t, err)

	assert.Equal(t, want.State.String(), h.pool.ID)
	assert.Equal(t, wsol, h.pool.Vaults[0].Mint)
	assert.Equal(t, usdc, h.pool.Vaults[1].Mint)
	assert.Equal(t, want.Vault0.String(), h.pool.Vaults[0].Account)
	assert.Equal(t, dex.PhaseTrading, h.pool.Phase)

	view, err := h.svc.Pool(context.Background(), h.pool.ID)
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{1_000_000, 1_000_000}, view.Balances)
	assert.Equal(t, uint64(1_000_000), view.Remaining)
	assert.Equal(t, []string{dex.EventPoolInitialized}, h.events.names())
}

func TestCreatePoolSyntheticAddresses(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	require.NoError(t, h.svc.RegisterMint(ctx, ledger.MintSpec{Address: "beta", Decimals: 6, Supported: true}))
	require.NoError(t, h.svc.RegisterMint(ctx, ledger.MintSpec{Address: "alpha", Decimals: 6, Supported: true}))
	require.NoError(t, h.svc.MintTo(ctx, "maker-b", "maker", "beta", 10))
	require.NoError(t, h.svc.MintTo(ctx, "maker-a", "maker", "alpha", 20))

	pool, err := h.svc.CreatePool(ctx, engine.CreatePoolRequest{
		ConfigID:        h.cfg.ID,
		Creator:         "maker",
		Mints:           [2]string{"beta", "alpha"},
		CreatorAccounts: [2]string{"maker-b", "maker-a"},
		InitAmounts:     [2]uint64{10, 20},
	})
	require.NoError(t, err)
	assert.Equal(t, "dex:alpha:beta", pool.ID)
	assert.Equal(t, "alpha", pool.Vaults[0].Mint)
	assert.Equal(t, uint64(20), h.balance(t, pool.Vaults[0].Account))

	_, err = h.svc.CreatePool(ctx, engine.CreatePoolRequest{ConfigID: h.cfg.ID, Mints: [2]string{"alpha", "alpha"}})
	assert.ErrorIs(t, err, dex.ErrInvalidInput)
}

func TestSwapLifecycleToLaunch(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	q, err := h.svc.Quote(ctx, h.pool.ID, dex.SwapRequest{Direction: curve.ZeroForOne, Mode: dex.BaseInput, Amount: 100_000})
	require.NoError(t, err)
	assert.Equal(t, uint64(90_081), q.AmountOut)
	assert.Equal(t, uint64(1_000), q.ProtocolFee)

	ev, err := h.buy(t, 100_000, 90_081)
	require.NoError(t, err)
	assert.Equal(t, uint64(90_081), ev.OutputAmount)
	assert.False(t, ev.ReadyToLaunch)

	ev, err = h.buy(t, 1_400_000, 0)
	require.NoError(t, err)
	require.True(t, ev.ReadyToLaunch)
	assert.Equal(t, []string{
		dex.EventPoolInitialized, dex.EventSwap, dex.EventSwap, dex.EventReadyToLaunch,
	}, h.events.names())

	ready, err := h.svc.ReadyPools(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, h.pool.ID, ready[0].ID)

	swaps, err := h.svc.Swaps(ctx, h.pool.ID, 10)
	require.NoError(t, err)
	require.Len(t, swaps, 2)
	assert.Equal(t, uint64(1_400_000), swaps[0].InputAmount)
	assert.Equal(t, "trader", swaps[0].Trader)

	plan, err := h.svc.LaunchPlan(ctx, h.pool.ID)
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{2_435_300, 394_367}, plan.Payouts)

	lev, err := h.svc.Launch(ctx, h.pool.ID, migration.LaunchRequest{Admin: "admin"})
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{2_435_300, 394_367}, lev.Amounts)
	assert.True(t, lev.Timestamp.After(h.pool.OpenTime))
	assert.Equal(t, uint64(64_700), h.balance(t, "fees-0"))
	assert.Equal(t, uint64(8_048), h.balance(t, "fees-1"))

	rec, err := h.svc.LaunchRecord(ctx, h.pool.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.LpMint)
	assert.Equal(t, lev.AmmPoolID, rec.AmmPoolID)

	view, err := h.svc.Pool(ctx, h.pool.ID)
	require.NoError(t, err)
	assert.Equal(t, dex.PhaseLaunched, view.Phase)
	assert.Equal(t, [2]uint64{}, view.Balances)

	_, err = h.svc.Launch(ctx, h.pool.ID, migration.LaunchRequest{Admin: "admin"})
	assert.ErrorIs(t, err, dex.ErrLaunched)
	_, err = h.buy(t, 1_000, 0)
	assert.ErrorIs(t, err, dex.ErrLaunched)

	families, err := h.metrics.Registry().Gather()
	require.NoError(t, err)
	var launches float64
	for _, mf := range families {
		if mf.GetName() == "curvedex_launches_total" {
			launches = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, launches)
}

func TestRejectedSwapLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	before := len(h.events.names())

	_, err := h.buy(t, 100_000, 90_082)
	require.ErrorIs(t, err, dex.ErrExceededSlippage)
	assert.Equal(t, dex.KindSlippage, dex.Kind(err))

	assert.Len(t, h.events.names(), before)
	assert.Equal(t, uint64(5_000_000), h.balance(t, "trader-0"))
	view, err := h.svc.Pool(ctx, h.pool.ID)
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{1_000_000, 1_000_000}, view.Balances)
	swaps, err := h.svc.Swaps(ctx, h.pool.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, swaps)

	_, err = h.svc.Swap(ctx, "missing", "trader", dex.SwapRequest{Amount: 1})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithdrawFeesWhileTrading(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.buy(t, 100_000, 0)
	require.NoError(t, err)

	ev, err := h.svc.WithdrawFees(ctx, h.pool.ID, [2]string{}, [2]uint64{250, 0})
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{250, 0}, ev.Amounts)
	assert.Equal(t, [2]string{"fees-0", "fees-1"}, ev.Recipients)
	view, err := h.svc.Pool(ctx, h.pool.ID)
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{750, 0}, view.SwapFees)

	ev, err = h.svc.WithdrawFees(ctx, h.pool.ID, [2]string{}, dex.WithdrawAll)
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{750, 0}, ev.Amounts)
	assert.Equal(t, uint64(1_000), h.balance(t, "fees-0"))

	view, err = h.svc.Pool(ctx, h.pool.ID)
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{}, view.SwapFees)
	assert.Equal(t, uint64(1_099_000), view.Balances[0])
}

func TestSwapFromVaultRejected(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	for _, req := range []dex.SwapRequest{
		{Amount: 100_000, InputAccount: h.pool.Vaults[0].Account, OutputAccount: "trader-1"},
		{Amount: 100_000, InputAccount: "trader-0", OutputAccount: h.pool.Vaults[1].Account},
	} {
		_, err := h.svc.Swap(ctx, h.pool.ID, "trader", req)
		assert.ErrorIs(t, err, dex.ErrInvalidVault)
	}

	view, err := h.svc.Pool(ctx, h.pool.ID)
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{1_000_000, 1_000_000}, view.Balances)
	assert.Equal(t, [2]uint64{}, view.SwapFees)
}

func TestFailedLaunchCanBeRetried(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	_, err := h.buy(t, 100_000, 0)
	require.NoError(t, err)
	ev, err := h.buy(t, 1_400_000, 0)
	require.NoError(t, err)
	require.True(t, ev.ReadyToLaunch)

	// trader-0 holds wSOL, so paying the USDC launch fee there fails after
	// the AMM pool was already created
	_, err = h.svc.Launch(ctx, h.pool.ID, migration.LaunchRequest{
		Admin:         "admin",
		FeeRecipients: [2]string{"fees-0", "trader-0"},
	})
	require.ErrorIs(t, err, ledger.ErrMintMismatch)

	view, err := h.svc.Pool(ctx, h.pool.ID)
	require.NoError(t, err)
	assert.Equal(t, dex.PhaseReadyToLaunch, view.Phase)
	assert.Equal(t, [2]uint64{2_500_000, 402_415}, view.Balances)
	assert.Equal(t, uint64(3_500_000), h.balance(t, "trader-0"))
	_, err = h.svc.LaunchRecord(ctx, h.pool.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotContains(t, h.events.names(), dex.EventLaunched)

	lev, err := h.svc.Launch(ctx, h.pool.ID, migration.LaunchRequest{Admin: "admin"})
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{2_435_300, 394_367}, lev.Amounts)
	assert.Equal(t, uint64(64_700), h.balance(t, "fees-0"))
	assert.Equal(t, uint64(8_048), h.balance(t, "fees-1"))

	view, err = h.svc.Pool(ctx, h.pool.ID)
	require.NoError(t, err)
	assert.Equal(t, dex.PhaseLaunched, view.Phase)
}

func TestUpdateConfigAndBound(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	cfg, err := h.svc.UpdateConfig(ctx, "admin", h.cfg.ID, dex.UpdateSwapFeeRate, 5_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), cfg.SwapFeeRate)
	last := h.events.events[len(h.events.events)-1].(*dex.ConfigUpdatedEvent)
	assert.Equal(t, uint64(10_000), last.OldValue)
	assert.Equal(t, "swap_fee_rate", last.Field)

	_, err = h.svc.UpdateConfig(ctx, "admin", h.cfg.ID, dex.UpdateSwapFeeRate, 40_000)
	assert.ErrorIs(t, err, dex.ErrInvalidFeeRate)
	stored, err := h.svc.Config(ctx, h.cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000), stored.SwapFeeRate)

	bound := dex.ReserveBound{Amount: 1_050_000, Side: dex.Token0, Comparison: dex.AtLeast}
	pool, err := h.svc.UpdateReserveBound(ctx, h.pool.ID, bound)
	require.NoError(t, err)
	assert.Equal(t, bound, pool.Bound)

	ev, err := h.buy(t, 100_000, 0)
	require.NoError(t, err)
	assert.True(t, ev.ReadyToLaunch)

	_, err = h.svc.UpdateReserveBound(ctx, h.pool.ID, bound)
	assert.ErrorIs(t, err, dex.ErrReadyToLaunch)
}

type fakeMints struct {
	info *solanautil.MintInfo
	err  error
}

func (f fakeMints) FetchMint(context.Context, solana.PublicKey) (*solanautil.MintInfo, uint64, error) {
	return f.info, 7, f.err
}

func TestSyncMint(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	key := solana.MustPublicKeyFromBase58("4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R")

	spec, err := h.svc.SyncMint(ctx, fakeMints{info: &solanautil.MintInfo{
		Address:  key,
		Program:  solanautil.TOKEN_PROGRAM,
		Decimals: 6,
	}}, key.String())
	require.NoError(t, err)
	assert.True(t, spec.Supported)

	accounts, err := h.svc.Accounts(ctx, key.String())
	require.NoError(t, err)
	assert.Empty(t, accounts)
	require.NoError(t, h.svc.MintTo(ctx, "holder", "holder", key.String(), 5))

	_, err = h.svc.SyncMint(ctx, fakeMints{}, "not base58!")
	assert.ErrorIs(t, err, dex.ErrInvalidInput)
	_, err = h.svc.SyncMint(ctx, fakeMints{err: errors.New("rpc down")}, key.String())
	assert.EqualError(t, err, "rpc down")
}
