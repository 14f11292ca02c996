package dex

import (
	"context"
	"fmt"
	"math"
	"time"
)

// WithdrawAll requests everything the protocol is owed on both sides.
var WithdrawAll = [2]uint64{math.MaxUint64, math.MaxUint64}

// WithdrawFees pays out up to requested of what the protocol is owed on each
// side. While trading that is the accumulated swap fees, reduced by what is
// paid. After launch every token left in the vaults belongs to the protocol.
func (s State) WithdrawFees(ctx context.Context, tokens TokenProgram, recipients [2]string, requested [2]uint64, now time.Time) (State, *FeesWithdrawnEvent, error) {
	next := s
	owed := s.SwapFees
	if s.IsLaunched() {
		balances, err := s.Balances(ctx, tokens)
		if err != nil {
			return s, nil, err
		}
		owed = balances
	}

	var amounts [2]uint64
	for i := range owed {
		amounts[i] = owed[i]
		if requested[i] < amounts[i] {
			amounts[i] = requested[i]
		}
	}
	for i, amount := range amounts {
		if amount == 0 {
			continue
		}
		if recipients[i] == "" {
			return s, nil, fmt.Errorf("%w: no recipient for token %d", ErrInvalidInput, i)
		}
		if _, err := tokens.Transfer(ctx, s.Vaults[i].Account, recipients[i], s.Vaults[i].Mint, amount, s.Vaults[i].Decimals); err != nil {
			return s, nil, fmt.Errorf("withdraw token %d: %w", i, err)
		}
	}
	if !s.IsLaunched() {
		next.SwapFees[0] -= amounts[0]
		next.SwapFees[1] -= amounts[1]
	}
	next.UpdatedAt = now

	return next, &FeesWithdrawnEvent{
		PoolID:      s.ID,
		Recipients:  recipients,
		Requested:   requested,
		Amounts:     amounts,
		AfterLaunch: s.IsLaunched(),
		Timestamp:   now,
	}, nil
}
