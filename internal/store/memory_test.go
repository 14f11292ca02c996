package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curvedex/internal/dex"
	"curvedex/internal/ledger"
)

func newTestStore(t *testing.T) *Memory {
	t.Helper()
	tokens := ledger.NewMemory()
	require.NoError(t, tokens.RegisterMint(context.Background(), ledger.MintSpec{Address: "mint", Decimals: 6, Supported: true}))
	require.NoError(t, tokens.MintTo(context.Background(), "alice", "alice", "mint", 100))
	return NewMemory(tokens)
}

func TestMemoryTransactCommits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.Transact(ctx, func(tx Tx) error {
		cfg, err := tx.CreateConfig(ctx, dex.Config{SwapFeeRate: 10_000}, "admin")
		if err != nil {
			return err
		}
		if err := tx.CreatePool(ctx, dex.State{ID: "pool", ConfigID: cfg.ID}); err != nil {
			return err
		}
		_, err = tx.Ledger().Transfer(ctx, "alice", "bob", "mint", 40, 6)
		return err
	})
	require.NoError(t, err)

	err = s.View(ctx, func(tx Tx) error {
		cfg, err := tx.Config(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, uint64(10_000), cfg.SwapFeeRate)

		pool, err := tx.Pool(ctx, "pool")
		require.NoError(t, err)
		assert.Equal(t, uint(1), pool.ConfigID)

		bal, err := tx.Ledger().Balance(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, uint64(40), bal)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryTransactRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.Transact(ctx, func(tx Tx) error {
		if _, err := tx.CreateConfig(ctx, dex.Config{}, "admin"); err != nil {
			return err
		}
		if err := tx.RecordSwap(ctx, "alice", &dex.SwapEvent{PoolID: "pool"}); err != nil {
			return err
		}
		if _, err := tx.Ledger().Transfer(ctx, "alice", "bob", "mint", 40, 6); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	bal, err := s.Ledger().Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), bal)

	err = s.View(ctx, func(tx Tx) error {
		_, err := tx.Config(ctx, 1)
		assert.ErrorIs(t, err, ErrNotFound)
		swaps, err := tx.Swaps(ctx, "pool", 0)
		require.NoError(t, err)
		assert.Empty(t, swaps)
		return nil
	})
	require.NoError(t, err)

	// the id sequence restarts from the committed value
	err = s.Transact(ctx, func(tx Tx) error {
		cfg, err := tx.CreateConfig(ctx, dex.Config{}, "admin")
		assert.Equal(t, uint(1), cfg.ID)
		return err
	})
	require.NoError(t, err)
}

func TestMemoryPoolsAndRecords(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ready := dex.PhaseReadyToLaunch

	err := s.Transact(ctx, func(tx Tx) error {
		for i, id := range []string{"a", "b", "c"} {
			st := dex.State{ID: id, ConfigID: 1, CreatedAt: base.Add(time.Duration(i) * time.Hour)}
			st.Vaults[0].Mint = "mint-" + id
			if id == "b" {
				st.Phase = dex.PhaseReadyToLaunch
			}
			require.NoError(t, tx.CreatePool(ctx, st))
		}
		assert.ErrorIs(t, tx.CreatePool(ctx, dex.State{ID: "a"}), ErrPoolExists)
		assert.ErrorIs(t, tx.SavePool(ctx, dex.State{ID: "zzz"}), ErrNotFound)

		for i := 0; i < 3; i++ {
			require.NoError(t, tx.RecordSwap(ctx, "alice", &dex.SwapEvent{PoolID: "a", InputAmount: uint64(i)}))
		}
		require.NoError(t, tx.RecordLaunch(ctx, "lp", &dex.LaunchedEvent{PoolID: "b", LpBurned: 9}))
		assert.ErrorIs(t, tx.RecordLaunch(ctx, "lp", &dex.LaunchedEvent{PoolID: "b"}), dex.ErrLaunched)
		return nil
	})
	require.NoError(t, err)

	err = s.View(ctx, func(tx Tx) error {
		all, err := tx.Pools(ctx, PoolFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "c", all[0].ID)

		paged, err := tx.Pools(ctx, PoolFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, paged, 1)
		assert.Equal(t, "b", paged[0].ID)

		byPhase, err := tx.Pools(ctx, PoolFilter{Phase: &ready})
		require.NoError(t, err)
		require.Len(t, byPhase, 1)
		assert.Equal(t, "b", byPhase[0].ID)

		byMint, err := tx.Pools(ctx, PoolFilter{Mint: "mint-a"})
		require.NoError(t, err)
		require.Len(t, byMint, 1)

		swaps, err := tx.Swaps(ctx, "a", 2)
		require.NoError(t, err)
		require.Len(t, swaps, 2)
		assert.Equal(t, uint64(2), swaps[0].InputAmount)
		assert.Equal(t, uint(3), swaps[0].ID)

		launch, err := tx.Launch(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, uint64(9), launch.LpBurned)
		_, err = tx.Launch(ctx, "a")
		assert.ErrorIs(t, err, ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}
