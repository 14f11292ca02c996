package curve

import (
	"errors"

	"github.com/holiman/uint256"
)

// ErrEmptySupply is returned when a pool would start with an empty side.
var ErrEmptySupply = errors.New("input token account empty")

// Q32 is the fixed-point scale used for on-chain prices.
const Q32 uint64 = 1 << 32

// TradeDirection tells which vault receives the input token.
type TradeDirection uint8

const (
	// ZeroForOne: input token 0, output token 1
	ZeroForOne TradeDirection = iota
	// OneForZero: input token 1, output token 0
	OneForZero
)

// Opposite flips the direction of the trade.
func (d TradeDirection) Opposite() TradeDirection {
	if d == ZeroForOne {
		return OneForZero
	}
	return ZeroForOne
}

func (d TradeDirection) String() string {
	if d == ZeroForOne {
		return "zero_for_one"
	}
	return "one_for_zero"
}

// ParseTradeDirection accepts the String form of a direction.
func ParseTradeDirection(s string) (TradeDirection, error) {
	switch s {
	case "zero_for_one":
		return ZeroForOne, nil
	case "one_for_zero":
		return OneForZero, nil
	}
	return 0, errors.New("unknown trade direction: " + s)
}

func (d TradeDirection) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *TradeDirection) UnmarshalText(text []byte) error {
	parsed, err := ParseTradeDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// SwapResult is the outcome of a single curve evaluation.
type SwapResult struct {
	NewSwapSourceAmount      uint64
	NewSwapDestinationAmount uint64
	// SourceAmountSwapped includes the protocol fee.
	SourceAmountSwapped      uint64
	DestinationAmountSwapped uint64
	ProtocolFee              uint64
	ConstantBefore           *uint256.Int
	ConstantAfter            *uint256.Int
}

// InvariantHolds reports whether the trade kept the pool value from decreasing.
func (r *SwapResult) InvariantHolds() bool {
	return !r.ConstantAfter.Lt(r.ConstantBefore)
}

// ValidateSupply rejects a pool with an empty side.
func ValidateSupply(token0Amount, token1Amount uint64) error {
	if token0Amount == 0 || token1Amount == 0 {
		return ErrEmptySupply
	}
	return nil
}

// SwapBaseInput debits the protocol fee from sourceAmount and prices the rest
// against the reserves. It returns nil when any step cannot be represented.
func SwapBaseInput(sourceAmount, swapSourceAmount, swapDestinationAmount, protocolFeeRate uint64) *SwapResult {
	protocolFee, ok := ProtocolFee(sourceAmount, protocolFeeRate)
	if !ok {
		return nil
	}
	destinationAmountSwapped, ok := SwapBaseInputWithoutFees(sourceAmount-protocolFee, swapSourceAmount, swapDestinationAmount)
	if !ok {
		return nil
	}
	return buildResult(sourceAmount, destinationAmountSwapped, protocolFee, swapSourceAmount, swapDestinationAmount)
}

// SwapBaseOutput finds the gross source amount, fee included, that releases
// exactly destinationAmount. It returns nil when the request drains the
// destination reserve or overflows.
func SwapBaseOutput(destinationAmount, swapSourceAmount, swapDestinationAmount, protocolFeeRate uint64) *SwapResult {
	sourceAmountSwapped, ok := SwapBaseOutputWithoutFees(destinationAmount, swapSourceAmount, swapDestinationAmount)
	if !ok {
		return nil
	}
	sourceAmount, ok := PreFeeAmount(sourceAmountSwapped, protocolFeeRate)
	if !ok {
		return nil
	}
	protocolFee, ok := ProtocolFee(sourceAmount, protocolFeeRate)
	if !ok {
		return nil
	}
	return buildResult(sourceAmount, destinationAmount, protocolFee, swapSourceAmount, swapDestinationAmount)
}

func buildResult(sourceAmount, destinationAmount, protocolFee, swapSourceAmount, swapDestinationAmount uint64) *SwapResult {
	newSource, ok := checkedAdd(u(swapSourceAmount), u(sourceAmount))
	if !ok {
		return nil
	}
	newSource64, ok := toU64(newSource)
	if !ok {
		return nil
	}
	if destinationAmount > swapDestinationAmount {
		return nil
	}
	newDestination := swapDestinationAmount - destinationAmount

	constantBefore, ok := checkedMul(u(swapSourceAmount), u(swapDestinationAmount))
	if !ok {
		return nil
	}
	sourceLessFee, ok := checkedSub(newSource, u(protocolFee))
	if !ok {
		return nil
	}
	constantAfter, ok := checkedMul(sourceLessFee, u(newDestination))
	if !ok {
		return nil
	}

	return &SwapResult{
		NewSwapSourceAmount:      newSource64,
		NewSwapDestinationAmount: newDestination,
		SourceAmountSwapped:      sourceAmount,
		DestinationAmountSwapped: destinationAmount,
		ProtocolFee:              protocolFee,
		ConstantBefore:           constantBefore,
		ConstantAfter:            constantAfter,
	}
}

// PriceX32 returns (token1 per token0, token0 per token1) scaled by Q32.
// A side with an empty reserve yields a zero price.
func PriceX32(reserve0, reserve1 uint64) (*uint256.Int, *uint256.Int) {
	price := func(num, den uint64) *uint256.Int {
		if den == 0 {
			return new(uint256.Int)
		}
		scaled, _ := checkedMul(u(num), u(Q32))
		return new(uint256.Int).Div(scaled, u(den))
	}
	return price(reserve1, reserve0), price(reserve0, reserve1)
}
