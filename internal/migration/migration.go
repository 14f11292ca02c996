// Package migration launches a pool that reached its reserve bound into an
// external constant-product AMM.
package migration

import (
	"context"
	"fmt"
	"time"

	"curvedex/internal/dex"
	"curvedex/pkg/curve"
)

// CreatePoolRequest funds a new AMM pool. Amounts are debited from the
// source accounts; the AMM vaults receive them net of transfer fees.
type CreatePoolRequest struct {
	Creator        string
	Mints          [2]string
	Decimals       [2]uint8
	SourceAccounts [2]string
	Amounts        [2]uint64
	OpenTime       time.Time
}

// Receipt describes the pool the AMM created.
type Receipt struct {
	PoolID    string    `json:"pool_id"`
	LpMint    string    `json:"lp_mint"`
	LpAccount string    `json:"lp_account"`
	LpAmount  uint64    `json:"lp_amount"`
	Vaults    [2]string `json:"vaults"`
	// Reserves are in the order of the request mints.
	Reserves [2]uint64 `json:"reserves"`
}

// AMM is the destination of a launch.
type AMM interface {
	CreatePool(ctx context.Context, req CreatePoolRequest) (*Receipt, error)
	// Burn destroys amount of the LP tokens the receipt credited.
	Burn(ctx context.Context, receipt *Receipt, amount uint64) error
}

// LaunchRequest carries who launches and where the protocol's cut goes.
type LaunchRequest struct {
	Admin         string
	FeeRecipients [2]string
	Now           time.Time
}

// Plan is the per-side split of the vaults at launch.
type Plan struct {
	Balances [2]uint64 `json:"balances"`
	// Clean is the balance without accumulated swap fees.
	Clean        [2]uint64 `json:"clean"`
	LaunchFees   [2]uint64 `json:"launch_fees"`
	Gross        [2]uint64 `json:"gross"`
	TransferFees [2]uint64 `json:"transfer_fees"`
	Payouts      [2]uint64 `json:"payouts"`
	// FeePayouts are swap fees plus launch fees, owed to the fee recipients.
	FeePayouts [2]uint64 `json:"fee_payouts"`
}

// Coordinator runs launches against one token program and one AMM, both
// bound to the caller's transaction.
type Coordinator struct {
	tokens dex.TokenProgram
	amm    AMM
}

func NewCoordinator(tokens dex.TokenProgram, amm AMM) *Coordinator {
	return &Coordinator{tokens: tokens, amm: amm}
}

func checkLaunchable(s dex.State) error {
	switch s.Phase {
	case dex.PhaseTrading:
		return dex.ErrNotReadyToLaunch
	case dex.PhaseLaunched:
		return dex.ErrLaunched
	}
	return nil
}

// Plan computes the launch split without moving value.
func (c *Coordinator) Plan(ctx context.Context, s dex.State, cfg dex.Config) (*Plan, error) {
	if err := checkLaunchable(s); err != nil {
		return nil, err
	}
	balances, err := s.Balances(ctx, c.tokens)
	if err != nil {
		return nil, err
	}
	clean, err := s.Reserves(balances)
	if err != nil {
		return nil, err
	}

	p := &Plan{Balances: balances, Clean: clean}
	for i := range clean {
		tax, ok := curve.ProtocolFee(clean[i], cfg.LaunchFeeRate)
		if !ok {
			return nil, fmt.Errorf("%w: launch fee of %d", dex.ErrCalculationFailure, clean[i])
		}
		gross := clean[i] - tax
		if gross == 0 {
			return nil, fmt.Errorf("%w: nothing left to launch on token %d", dex.ErrZeroTradingTokens, i)
		}
		transferFee, err := c.tokens.TransferFee(ctx, s.Vaults[i].Mint, gross)
		if err != nil {
			return nil, err
		}
		if transferFee >= gross {
			return nil, fmt.Errorf("%w: transfer fee %d consumes %d on token %d", dex.ErrZeroTradingTokens, transferFee, gross, i)
		}
		feePayout := s.SwapFees[i] + tax
		if feePayout < tax {
			return nil, dex.ErrOverflow
		}

		p.LaunchFees[i] = tax
		p.Gross[i] = gross
		p.TransferFees[i] = transferFee
		p.Payouts[i] = gross - transferFee
		p.FeePayouts[i] = feePayout
	}
	return p, nil
}

// Launch moves the taxed reserves into a new AMM pool, burns the LP tokens,
// pays the protocol's fees out and marks the pool launched. The phase change
// is the last mutation; on error the receiver stays authoritative.
func (c *Coordinator) Launch(ctx context.Context, s dex.State, cfg dex.Config, req LaunchRequest) (dex.State, *dex.LaunchedEvent, error) {
	p, err := c.Plan(ctx, s, cfg)
	if err != nil {
		return s, nil, err
	}
	for i, amount := range p.FeePayouts {
		if amount > 0 && req.FeeRecipients[i] == "" {
			return s, nil, fmt.Errorf("%w: no fee recipient for token %d", dex.ErrInvalidInput, i)
		}
	}

	receipt, err := c.amm.CreatePool(ctx, CreatePoolRequest{
		Creator:        req.Admin,
		Mints:          [2]string{s.Vaults[0].Mint, s.Vaults[1].Mint},
		Decimals:       [2]uint8{s.Vaults[0].Decimals, s.Vaults[1].Decimals},
		SourceAccounts: [2]string{s.Vaults[0].Account, s.Vaults[1].Account},
		Amounts:        p.Gross,
		OpenTime:       req.Now,
	})
	if err != nil {
		return s, nil, fmt.Errorf("create amm pool: %w", err)
	}
	if receipt.LpAmount > 0 {
		if err := c.amm.Burn(ctx, receipt, receipt.LpAmount); err != nil {
			return s, nil, fmt.Errorf("burn lp: %w", err)
		}
	}

	for i, amount := range p.FeePayouts {
		if amount == 0 {
			continue
		}
		v := s.Vaults[i]
		if _, err := c.tokens.Transfer(ctx, v.Account, req.FeeRecipients[i], v.Mint, amount, v.Decimals); err != nil {
			return s, nil, fmt.Errorf("pay fees token %d: %w", i, err)
		}
	}

	next, err := s.MarkLaunched(p.LaunchFees, req.Now)
	if err != nil {
		return s, nil, err
	}
	return next, &dex.LaunchedEvent{
		PoolID:       s.ID,
		AmmPoolID:    receipt.PoolID,
		Admin:        req.Admin,
		Amounts:      receipt.Reserves,
		LaunchFees:   p.LaunchFees,
		TransferFees: p.TransferFees,
		FeePayouts:   p.FeePayouts,
		LpBurned:     receipt.LpAmount,
		Timestamp:    req.Now,
	}, nil
}
