package dex

import (
	"errors"

	"curvedex/pkg/curve"
)

var (
	ErrNotApproved        = errors.New("not approved")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidFeeRate     = errors.New("fee rate out of range")
	ErrEmptySupply        = curve.ErrEmptySupply
	ErrNotSupportMint     = errors.New("mint is not supported")
	ErrInvalidVault       = errors.New("invalid vault")
	ErrLaunched           = errors.New("dex already launched")
	ErrReadyToLaunch      = errors.New("dex is ready to launch")
	ErrNotReadyToLaunch   = errors.New("dex is not ready to launch")
	ErrExceededSlippage   = errors.New("exceeds desired slippage limit")
	ErrZeroTradingTokens  = errors.New("trade results in zero trading tokens")
	ErrCalculationFailure = errors.New("curve calculation failure")
	ErrInvariantViolated  = errors.New("constant product invariant decreased")
	ErrUnderflow          = errors.New("arithmetic underflow")
	ErrOverflow           = errors.New("arithmetic overflow")
)

// ErrorKind groups errors the way callers react to them.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindArithmetic: the numbers cannot be computed or would break the invariant.
	KindArithmetic
	// KindPrecondition: the pool or the request is in the wrong state.
	KindPrecondition
	// KindSlippage: the caller's limit was not met.
	KindSlippage
)

func (k ErrorKind) String() string {
	switch k {
	case KindArithmetic:
		return "arithmetic"
	case KindPrecondition:
		return "precondition"
	case KindSlippage:
		return "slippage"
	}
	return "unknown"
}

// kinds is ordered; an error wrapping several sentinels takes the kind of
// the first listed.
var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrCalculationFailure, KindArithmetic},
	{ErrInvariantViolated, KindArithmetic},
	{ErrUnderflow, KindArithmetic},
	{ErrOverflow, KindArithmetic},
	{ErrZeroTradingTokens, KindArithmetic},
	{ErrExceededSlippage, KindSlippage},
	{ErrNotApproved, KindPrecondition},
	{ErrInvalidInput, KindPrecondition},
	{ErrInvalidFeeRate, KindPrecondition},
	{ErrEmptySupply, KindPrecondition},
	{ErrNotSupportMint, KindPrecondition},
	{ErrInvalidVault, KindPrecondition},
	{ErrLaunched, KindPrecondition},
	{ErrReadyToLaunch, KindPrecondition},
	{ErrNotReadyToLaunch, KindPrecondition},
}

// Kind classifies err by the first sentinel of kinds found in its chain.
func Kind(err error) ErrorKind {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}
