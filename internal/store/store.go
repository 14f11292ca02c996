// Package store persists configs, pools, trades and launches, and runs every
// engine operation inside one transaction together with the token ledger.
package store

import (
	"context"
	"errors"

	"curvedex/internal/amm"
	"curvedex/internal/dex"
	"curvedex/internal/ledger"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrPoolExists = errors.New("pool already exists")
)

// Ledger is the transaction-bound token ledger.
type Ledger interface {
	amm.Ledger
	Accounts(ctx context.Context, mint string) ([]ledger.Account, error)
}

// SwapRecord is a committed trade.
type SwapRecord struct {
	ID     uint   `json:"id"`
	Trader string `json:"trader"`
	dex.SwapEvent
}

// LaunchRecord is the one launch of a pool.
type LaunchRecord struct {
	LpMint string `json:"lp_mint"`
	dex.LaunchedEvent
}

// PoolFilter narrows pool listings. Zero values match everything.
type PoolFilter struct {
	Phase    *dex.Phase
	ConfigID uint
	Mint     string
	Limit    int
	Offset   int
}

// Tx is the view of the store inside Transact. Pool locks the pool for the
// rest of the transaction.
type Tx interface {
	amm.Registry

	Ledger() Ledger

	CreateConfig(ctx context.Context, cfg dex.Config, admin string) (dex.Config, error)
	Config(ctx context.Context, id uint) (dex.Config, error)
	Configs(ctx context.Context) ([]dex.Config, error)
	SaveConfig(ctx context.Context, cfg dex.Config) error

	CreatePool(ctx context.Context, s dex.State) error
	Pool(ctx context.Context, id string) (dex.State, error)
	Pools(ctx context.Context, filter PoolFilter) ([]dex.State, error)
	SavePool(ctx context.Context, s dex.State) error

	RecordSwap(ctx context.Context, trader string, ev *dex.SwapEvent) error
	Swaps(ctx context.Context, poolID string, limit int) ([]SwapRecord, error)
	RecordLaunch(ctx context.Context, lpMint string, ev *dex.LaunchedEvent) error
	Launch(ctx context.Context, poolID string) (*LaunchRecord, error)
}

// Store commits fn's writes only when fn returns nil. View runs fn without a
// transaction; fn must not write.
type Store interface {
	Transact(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

func matches(s dex.State, f PoolFilter) bool {
	if f.Phase != nil && s.Phase != *f.Phase {
		return false
	}
	if f.ConfigID != 0 && s.ConfigID != f.ConfigID {
		return false
	}
	if f.Mint != "" && s.Vaults[0].Mint != f.Mint && s.Vaults[1].Mint != f.Mint {
		return false
	}
	return true
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
