package dex

import (
	"fmt"

	"curvedex/pkg/curve"
)

// Side names one of the two tokens of a pool.
type Side uint8

const (
	Token0 Side = iota
	Token1
)

func (s Side) Other() Side {
	return 1 - s
}

// Comparison is the direction from which the bound-side vault reaches the
// reserve bound.
type Comparison uint8

const (
	// AtLeast: the threshold is reached once the vault holds bound or more.
	AtLeast Comparison = iota
	// AtMost: the threshold is reached once the vault has drained to bound or less.
	AtMost
)

func (c Comparison) String() string {
	if c == AtMost {
		return "at_most"
	}
	return "at_least"
}

// ParseComparison accepts the String form of a comparison.
func ParseComparison(s string) (Comparison, error) {
	switch s {
	case "", "at_least":
		return AtLeast, nil
	case "at_most":
		return AtMost, nil
	}
	return 0, fmt.Errorf("%w: unknown comparison %q", ErrInvalidInput, s)
}

func (c Comparison) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Comparison) UnmarshalText(text []byte) error {
	parsed, err := ParseComparison(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ReserveBound is the launch threshold of a pool.
type ReserveBound struct {
	Amount     uint64     `json:"amount"`
	Side       Side       `json:"side"`
	Comparison Comparison `json:"comparison"`
}

// Reached reports whether a vault balance satisfies the bound.
func (b ReserveBound) Reached(balance uint64) bool {
	if b.Comparison == AtMost {
		return balance <= b.Amount
	}
	return balance >= b.Amount
}

// Remaining is the distance left before the bound is reached.
func (b ReserveBound) Remaining(balance uint64) uint64 {
	if b.Reached(balance) {
		return 0
	}
	if b.Comparison == AtMost {
		return balance - b.Amount
	}
	return b.Amount - balance
}

// Config is the immutable fee and threshold snapshot an operation runs with.
type Config struct {
	ID             uint         `json:"id"`
	SwapFeeRate    uint64       `json:"swap_fee_rate"`
	LaunchFeeRate  uint64       `json:"launch_fee_rate"`
	InitialReserve uint64       `json:"initial_reserve"`
	ReserveBound   ReserveBound `json:"reserve_bound"`
	DisableCreate  bool         `json:"disable_create"`
}

// Validate checks the rate caps and the bound side.
func (c Config) Validate() error {
	if !curve.ValidateRates(c.SwapFeeRate, c.LaunchFeeRate) {
		return fmt.Errorf("%w: swap=%d launch=%d", ErrInvalidFeeRate, c.SwapFeeRate, c.LaunchFeeRate)
	}
	if c.ReserveBound.Side > Token1 {
		return fmt.Errorf("%w: bound side %d", ErrInvalidInput, c.ReserveBound.Side)
	}
	if c.ReserveBound.Comparison > AtMost {
		return fmt.Errorf("%w: bound comparison %d", ErrInvalidInput, c.ReserveBound.Comparison)
	}
	return nil
}

// ConfigUpdate names the config field an admin update targets.
type ConfigUpdate uint8

const (
	UpdateSwapFeeRate ConfigUpdate = iota
	UpdateLaunchFeeRate
	UpdateInitialReserve
	UpdateReserveBound
	UpdateDisableCreate
)

var configUpdateNames = map[ConfigUpdate]string{
	UpdateSwapFeeRate:    "swap_fee_rate",
	UpdateLaunchFeeRate:  "launch_fee_rate",
	UpdateInitialReserve: "initial_reserve",
	UpdateReserveBound:   "vault_reserve_bound",
	UpdateDisableCreate:  "disable_create",
}

func (u ConfigUpdate) String() string {
	return configUpdateNames[u]
}

// ParseConfigUpdate accepts the String form of an update.
func ParseConfigUpdate(s string) (ConfigUpdate, error) {
	for u, name := range configUpdateNames {
		if name == s {
			return u, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown config field %q", ErrInvalidInput, s)
}

// Apply returns a copy of c with one field changed, validated, plus the
// previous value.
func (c Config) Apply(field ConfigUpdate, value uint64) (Config, uint64, error) {
	next := c
	var old uint64
	switch field {
	case UpdateSwapFeeRate:
		old, next.SwapFeeRate = c.SwapFeeRate, value
	case UpdateLaunchFeeRate:
		old, next.LaunchFeeRate = c.LaunchFeeRate, value
	case UpdateInitialReserve:
		old, next.InitialReserve = c.InitialReserve, value
	case UpdateReserveBound:
		old, next.ReserveBound.Amount = c.ReserveBound.Amount, value
	case UpdateDisableCreate:
		if c.DisableCreate {
			old = 1
		}
		next.DisableCreate = value != 0
	default:
		return c, 0, fmt.Errorf("%w: config field %d", ErrInvalidInput, field)
	}
	if err := next.Validate(); err != nil {
		return c, 0, err
	}
	return next, old, nil
}
