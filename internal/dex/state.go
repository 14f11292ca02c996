package dex

import (
	"context"
	"fmt"
	"time"
)

// Phase is the lifecycle position of a pool. It only moves forward.
type Phase uint8

const (
	PhaseTrading Phase = iota
	PhaseReadyToLaunch
	PhaseLaunched
)

var phaseNames = [...]string{"trading", "ready_to_launch", "launched"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", p)
}

// ParsePhase accepts the String form of a phase.
func ParsePhase(s string) (Phase, error) {
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown phase %q", ErrInvalidInput, s)
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Vault is one side of a pool.
type Vault struct {
	Mint     string `json:"mint"`
	Decimals uint8  `json:"decimals"`
	Account  string `json:"account"`
}

// State is the persistent record of one pool. Operations take it by value
// and return the successor, so a failed operation never leaves a partial
// update behind.
type State struct {
	ID         string       `json:"id"`
	ConfigID   uint         `json:"config_id"`
	Creator    string       `json:"creator"`
	Vaults     [2]Vault     `json:"vaults"`
	SwapFees   [2]uint64    `json:"swap_fees"`
	LaunchFees [2]uint64    `json:"launch_fees"`
	Phase      Phase        `json:"phase"`
	Bound      ReserveBound `json:"reserve_bound"`
	OpenTime   time.Time    `json:"open_time"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func (s State) IsLaunched() bool {
	return s.Phase == PhaseLaunched
}

func (s State) IsReadyToLaunch() bool {
	return s.Phase == PhaseReadyToLaunch
}

// Balances reads both raw vault balances.
func (s State) Balances(ctx context.Context, tokens TokenProgram) ([2]uint64, error) {
	var out [2]uint64
	for i, v := range s.Vaults {
		bal, err := tokens.Balance(ctx, v.Account)
		if err != nil {
			return out, fmt.Errorf("%w: %s: %v", ErrInvalidVault, v.Account, err)
		}
		out[i] = bal
	}
	return out, nil
}

// Reserves returns the tradable reserve of each side, vault balance minus
// accumulated swap fees.
func (s State) Reserves(balances [2]uint64) ([2]uint64, error) {
	var out [2]uint64
	for i := range balances {
		if balances[i] < s.SwapFees[i] {
			return out, fmt.Errorf("%w: vault %d holds %d, fees %d", ErrUnderflow, i, balances[i], s.SwapFees[i])
		}
		out[i] = balances[i] - s.SwapFees[i]
	}
	return out, nil
}

// RemainingToBound returns how far the bound-side vault is from the bound.
func (s State) RemainingToBound(ctx context.Context, tokens TokenProgram) (uint64, error) {
	bal, err := tokens.Balance(ctx, s.Vaults[s.Bound.Side].Account)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidVault, err)
	}
	return s.Bound.Remaining(bal), nil
}

// checkThreshold moves Trading to ReadyToLaunch when the bound-side balance
// satisfies the bound. It reports whether this call made the transition.
func (s *State) checkThreshold(boundBalance uint64) bool {
	if s.Phase != PhaseTrading || !s.Bound.Reached(boundBalance) {
		return false
	}
	s.Phase = PhaseReadyToLaunch
	return true
}

// WithReserveBound changes the launch threshold of a pool still trading.
func (s State) WithReserveBound(bound ReserveBound, now time.Time) (State, error) {
	switch s.Phase {
	case PhaseLaunched:
		return s, ErrLaunched
	case PhaseReadyToLaunch:
		return s, ErrReadyToLaunch
	}
	if bound.Side > Token1 || bound.Comparison > AtMost {
		return s, fmt.Errorf("%w: reserve bound %+v", ErrInvalidInput, bound)
	}
	s.Bound = bound
	s.UpdatedAt = now
	return s, nil
}

// MarkLaunched records the launch taxes, clears the swap-fee counters and
// moves to the terminal phase. It is the last step of a launch.
func (s State) MarkLaunched(launchFees [2]uint64, now time.Time) (State, error) {
	switch s.Phase {
	case PhaseLaunched:
		return s, ErrLaunched
	case PhaseTrading:
		return s, ErrNotReadyToLaunch
	}
	s.LaunchFees = launchFees
	s.SwapFees = [2]uint64{}
	s.Phase = PhaseLaunched
	s.UpdatedAt = now
	return s, nil
}
