package dex

import (
	"context"
	"fmt"
	"time"

	"curvedex/pkg/curve"
)

// InitRequest creates a pool. Mints and vaults are given in pool order.
type InitRequest struct {
	ID              string
	Creator         string
	Mints           [2]string
	Vaults          [2]string
	CreatorAccounts [2]string
	InitAmounts     [2]uint64
	OpenTime        time.Time
	Now             time.Time
}

// Initialize funds both vaults from the creator and returns the new pool.
// The bound side receives the config's initial reserve on top of its
// init amount.
func Initialize(ctx context.Context, cfg Config, tokens TokenProgram, req InitRequest) (State, *InitializeEvent, error) {
	if cfg.DisableCreate {
		return State{}, nil, fmt.Errorf("%w: pool creation disabled by config %d", ErrNotApproved, cfg.ID)
	}
	if err := cfg.Validate(); err != nil {
		return State{}, nil, err
	}
	if req.ID == "" || req.Mints[0] == req.Mints[1] || req.Vaults[0] == req.Vaults[1] {
		return State{}, nil, fmt.Errorf("%w: pool id, distinct mints and distinct vaults are required", ErrInvalidInput)
	}

	s := State{
		ID:        req.ID,
		ConfigID:  cfg.ID,
		Creator:   req.Creator,
		Bound:     cfg.ReserveBound,
		OpenTime:  req.OpenTime,
		CreatedAt: req.Now,
		UpdatedAt: req.Now,
	}
	if !s.OpenTime.After(req.Now) {
		s.OpenTime = req.Now.Add(time.Second)
	}
	for i, mint := range req.Mints {
		info, err := tokens.Mint(ctx, mint)
		if err != nil {
			return State{}, nil, fmt.Errorf("mint %s: %w", mint, err)
		}
		if !info.Supported {
			return State{}, nil, fmt.Errorf("%w: %s", ErrNotSupportMint, mint)
		}
		s.Vaults[i] = Vault{Mint: mint, Decimals: info.Decimals, Account: req.Vaults[i]}
	}

	deposits := req.InitAmounts
	bound := cfg.ReserveBound.Side
	deposits[bound] += cfg.InitialReserve
	if deposits[bound] < cfg.InitialReserve {
		return State{}, nil, ErrOverflow
	}
	for i, amount := range deposits {
		if amount == 0 {
			continue
		}
		if _, err := tokens.Transfer(ctx, req.CreatorAccounts[i], s.Vaults[i].Account, s.Vaults[i].Mint, amount, s.Vaults[i].Decimals); err != nil {
			return State{}, nil, fmt.Errorf("deposit token %d: %w", i, err)
		}
	}

	balances, err := s.Balances(ctx, tokens)
	if err != nil {
		return State{}, nil, err
	}
	if err := curve.ValidateSupply(balances[0], balances[1]); err != nil {
		return State{}, nil, err
	}

	return s, &InitializeEvent{
		PoolID:    s.ID,
		ConfigID:  cfg.ID,
		Payer:     req.Creator,
		Mint0:     req.Mints[0],
		Mint1:     req.Mints[1],
		Deposits:  deposits,
		Timestamp: req.Now,
	}, nil
}
