package migration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curvedex/internal/amm"
	"curvedex/internal/dex"
	"curvedex/internal/ledger"
	"curvedex/internal/migration"
	"curvedex/pkg/curve"
	"curvedex/pkg/solana"
)

const (
	wsol = "So11111111111111111111111111111111111111112"
	usdc = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	tokens   *ledger.Memory
	registry *amm.MemoryRegistry
	cfg      dex.Config
	state    dex.State
}

func (f *fixture) coordinator() *migration.Coordinator {
	return migration.NewCoordinator(f.tokens, amm.New(f.tokens, f.registry, amm.DefaultOptions()))
}

func (f *fixture) balance(t *testing.T, account string) uint64 {
	t.Helper()
	bal, err := f.tokens.Balance(context.Background(), account)
	require.NoError(t, err)
	return bal
}

func (f *fixture) buy(t *testing.T, amount uint64) *dex.SwapEvent {
	t.Helper()
	next, ev, err := f.state.ExecuteSwap(context.Background(), f.cfg, f.tokens, dex.SwapRequest{
		Direction:     curve.ZeroForOne,
		Mode:          dex.BaseInput,
		Amount:        amount,
		InputAccount:  "trader-0",
		OutputAccount: "trader-1",
		Now:           now.Add(time.Minute),
	})
	require.NoError(t, err)
	f.state = next
	return ev
}

// newFixture opens a 1M/1M pool with a 1% swap fee, a 2% launch fee and a
// 2M bound on token 0.
func newFixture(t *testing.T, token1Fee *solana.TransferFeeConfig) *fixture {
	t.Helper()
	ctx := context.Background()
	tokens := ledger.NewMemory()
	require.NoError(t, tokens.RegisterMint(ctx, ledger.MintSpec{Address: wsol, Decimals: 9, Supported: true}))
	require.NoError(t, tokens.RegisterMint(ctx, ledger.MintSpec{Address: usdc, Decimals: 6, Supported: true, TransferFee: token1Fee}))
	require.NoError(t, tokens.MintTo(ctx, "creator-0", "creator", wsol, 1_000_000))
	require.NoError(t, tokens.MintTo(ctx, "creator-1", "creator", usdc, 2_000_000))
	require.NoError(t, tokens.MintTo(ctx, "trader-0", "trader", wsol, 5_000_000))

	cfg := dex.Config{
		ID:            1,
		SwapFeeRate:   10_000,
		LaunchFeeRate: 20_000,
		ReserveBound:  dex.ReserveBound{Amount: 2_000_000, Side: dex.Token0, Comparison: dex.AtLeast},
	}
	deposit1 := uint64(1_000_000)
	if token1Fee != nil {
		fee, ok := token1Fee.EpochFee(0).CalculateInverseFee(deposit1)
		require.True(t, ok)
		deposit1 += fee
	}
	state, _, err := dex.Initialize(ctx, cfg, tokens, dex.InitRequest{
		ID:              "pool",
		Creator:         "creator",
		Mints:           [2]string{wsol, usdc},
		Vaults:          [2]string{"vault-0", "vault-1"},
		CreatorAccounts: [2]string{"creator-0", "creator-1"},
		InitAmounts:     [2]uint64{1_000_000, deposit1},
		Now:             now,
	})
	require.NoError(t, err)
	return &fixture{tokens: tokens, registry: amm.NewMemoryRegistry(), cfg: cfg, state: state}
}

func TestLaunchEndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	_, _, err := f.coordinator().Launch(ctx, f.state, f.cfg, migration.LaunchRequest{Admin: "admin", Now: now})
	assert.ErrorIs(t, err, dex.ErrNotReadyToLaunch)

	assert.False(t, f.buy(t, 100_000).ReadyToLaunch)
	ev := f.buy(t, 1_400_000)
	require.True(t, ev.ReadyToLaunch)
	require.Equal(t, dex.PhaseReadyToLaunch, f.state.Phase)
	require.Equal(t, uint64(2_500_000), f.balance(t, "vault-0"))
	require.Equal(t, uint64(402_415), f.balance(t, "vault-1"))
	require.Equal(t, [2]uint64{15_000, 0}, f.state.SwapFees)

	plan, err := f.coordinator().Plan(ctx, f.state, f.cfg)
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{2_485_000, 402_415}, plan.Clean)
	assert.Equal(t, [2]uint64{49_700, 8_048}, plan.LaunchFees)
	assert.Equal(t, [2]uint64{2_435_300, 394_367}, plan.Payouts)
	assert.Equal(t, [2]uint64{64_700, 8_048}, plan.FeePayouts)

	req := migration.LaunchRequest{Admin: "admin", FeeRecipients: [2]string{"fees-0", "fees-1"}, Now: now.Add(time.Hour)}
	launched, lev, err := f.coordinator().Launch(ctx, f.state, f.cfg, req)
	require.NoError(t, err)

	assert.Equal(t, dex.PhaseLaunched, launched.Phase)
	assert.Equal(t, [2]uint64{}, launched.SwapFees)
	assert.Equal(t, [2]uint64{49_700, 8_048}, launched.LaunchFees)
	assert.Equal(t, [2]uint64{2_435_300, 394_367}, lev.Amounts)
	assert.Equal(t, uint64(980_000-amm.LockedLiquidity), lev.LpBurned)
	assert.Equal(t, "admin", lev.Admin)

	assert.Zero(t, f.balance(t, "vault-0"))
	assert.Zero(t, f.balance(t, "vault-1"))
	assert.Equal(t, uint64(64_700), f.balance(t, "fees-0"))
	assert.Equal(t, uint64(8_048), f.balance(t, "fees-1"))

	pool, err := f.registry.AmmPool(ctx, lev.AmmPoolID)
	require.NoError(t, err)
	assert.Equal(t, amm.LockedLiquidity, pool.LpSupply)
	var ammTotal uint64
	for _, v := range pool.Vaults {
		ammTotal += f.balance(t, v)
	}
	assert.Equal(t, uint64(2_435_300+394_367), ammTotal)

	t.Run("second launch fails without moving value", func(t *testing.T) {
		before, err := f.tokens.Accounts(ctx, "")
		require.NoError(t, err)
		again, _, err := f.coordinator().Launch(ctx, launched, f.cfg, req)
		assert.ErrorIs(t, err, dex.ErrLaunched)
		assert.Equal(t, launched, again)
		after, err := f.tokens.Accounts(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("launched pool refuses trades", func(t *testing.T) {
		_, _, err := launched.ExecuteSwap(ctx, f.cfg, f.tokens, dex.SwapRequest{
			Direction: curve.ZeroForOne,
			Amount:    10,
			Now:       now.Add(2 * time.Hour),
		})
		assert.ErrorIs(t, err, dex.ErrLaunched)
	})
}

func TestLaunchChargesTransferFees(t *testing.T) {
	ctx := context.Background()
	fee := &solana.TransferFeeConfig{
		Older: solana.TransferFee{BasisPoints: 100, MaximumFee: 1_000_000},
		Newer: solana.TransferFee{BasisPoints: 100, MaximumFee: 1_000_000},
	}
	f := newFixture(t, fee)
	f.buy(t, 1_500_000)
	require.True(t, f.state.IsReadyToLaunch())

	plan, err := f.coordinator().Plan(ctx, f.state, f.cfg)
	require.NoError(t, err)
	expected, _ := fee.Newer.CalculateFee(plan.Gross[1])
	assert.Equal(t, expected, plan.TransferFees[1])
	assert.Zero(t, plan.TransferFees[0])
	assert.Equal(t, plan.Gross[1]-expected, plan.Payouts[1])

	_, lev, err := f.coordinator().Launch(ctx, f.state, f.cfg, migration.LaunchRequest{
		Admin:         "admin",
		FeeRecipients: [2]string{"fees-0", "fees-1"},
		Now:           now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, plan.Payouts, lev.Amounts)
	assert.Equal(t, plan.TransferFees, lev.TransferFees)
	assert.Zero(t, f.balance(t, "vault-1"))
}

func TestLaunchNeedsFeeRecipients(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.buy(t, 1_500_000)
	vault0 := f.balance(t, "vault-0")

	next, _, err := f.coordinator().Launch(ctx, f.state, f.cfg, migration.LaunchRequest{Admin: "admin", Now: now})
	assert.ErrorIs(t, err, dex.ErrInvalidInput)
	assert.Equal(t, f.state, next)
	assert.Equal(t, vault0, f.balance(t, "vault-0"))
	assert.Empty(t, f.registry.List())
}
