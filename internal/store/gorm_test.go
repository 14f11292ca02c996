package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"curvedex/internal/dex"
	"curvedex/internal/ledger"
	"curvedex/internal/models"
)

// openTestDB connects to CURVEDEX_TEST_DSN or skips.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("CURVEDEX_TEST_DSN")
	if dsn == "" {
		t.Skip("CURVEDEX_TEST_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.DexConfig{},
		&models.DexPool{},
		&models.DexSwap{},
		&models.DexLaunch{},
		&models.AmmPool{},
		&models.TokenAccount{},
		&models.MintConfig{},
	))
	return db
}

func TestGormStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	tokens := ledger.NewGorm(db, 0)
	s := NewGorm(db, tokens)

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	mint := "mint-" + suffix
	alice := "alice-" + suffix
	require.NoError(t, tokens.RegisterMint(ctx, ledger.MintSpec{Address: mint, Program: "spl", Decimals: 6, Supported: true}))
	require.NoError(t, tokens.MintTo(ctx, alice, "alice", mint, 1_000))

	pool := dex.State{
		ID:       "pool-" + suffix,
		Creator:  "creator",
		SwapFees: [2]uint64{7, 0},
		Phase:    dex.PhaseReadyToLaunch,
		Bound:    dex.ReserveBound{Amount: 2_000_000, Side: dex.Token1, Comparison: dex.AtMost},
		Vaults: [2]dex.Vault{
			{Mint: mint, Decimals: 6, Account: "v0-" + suffix},
			{Mint: "other-" + suffix, Decimals: 9, Account: "v1-" + suffix},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}

	err := s.Transact(ctx, func(tx Tx) error {
		cfg, err := tx.CreateConfig(ctx, dex.Config{SwapFeeRate: 10_000, LaunchFeeRate: 5_000}, "admin")
		if err != nil {
			return err
		}
		pool.ConfigID = cfg.ID
		return tx.CreatePool(ctx, pool)
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Transact(ctx, func(tx Tx) error {
		if _, err := tx.Ledger().Transfer(ctx, alice, pool.Vaults[0].Account, mint, 400, 6); err != nil {
			return err
		}
		p, err := tx.Pool(ctx, pool.ID)
		if err != nil {
			return err
		}
		p.SwapFees[0] = 99
		if err := tx.SavePool(ctx, p); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	err = s.View(ctx, func(tx Tx) error {
		p, err := tx.Pool(ctx, pool.ID)
		require.NoError(t, err)
		assert.Equal(t, pool.SwapFees, p.SwapFees)
		assert.Equal(t, pool.Bound, p.Bound)
		assert.Equal(t, pool.Phase, p.Phase)
		assert.Equal(t, pool.Vaults, p.Vaults)

		bal, err := tx.Ledger().Balance(ctx, alice)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000), bal)

		cfg, err := tx.Config(ctx, pool.ConfigID)
		require.NoError(t, err)
		assert.Equal(t, uint64(5_000), cfg.LaunchFeeRate)
		return nil
	})
	require.NoError(t, err)
}
