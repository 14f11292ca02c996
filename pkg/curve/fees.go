package curve

const (
	// FeeRateDenominator is the unit all fee rates are expressed in (parts per million).
	FeeRateDenominator uint64 = 1_000_000
	// MaxFeeRate caps a single configured rate at 3%.
	MaxFeeRate uint64 = 30_000
)

// ProtocolFee returns floor(amount * rate / FeeRateDenominator).
// ok is false when the calculation cannot be represented.
func ProtocolFee(amount, rate uint64) (fee uint64, ok bool) {
	num, ok := checkedMul(u(amount), u(rate))
	if !ok {
		return 0, false
	}
	q, ok := checkedDiv(num, u(FeeRateDenominator))
	if !ok {
		return 0, false
	}
	return toU64(q)
}

// PreFeeAmount reconstructs the smallest gross amount that still leaves at
// least postFee after ProtocolFee is taken at the same rate.
func PreFeeAmount(postFee, rate uint64) (uint64, bool) {
	if rate == 0 {
		return postFee, true
	}
	if rate >= FeeRateDenominator {
		return 0, false
	}
	num, ok := checkedMul(u(postFee), u(FeeRateDenominator))
	if !ok {
		return 0, false
	}
	pre, ok := checkedCeilDiv(num, u(FeeRateDenominator-rate))
	if !ok {
		return 0, false
	}
	return toU64(pre)
}

// ValidateRates checks a swap/launch rate pair against the per-rate cap and
// the combined denominator.
func ValidateRates(swapFeeRate, launchFeeRate uint64) bool {
	if swapFeeRate > MaxFeeRate || launchFeeRate > MaxFeeRate {
		return false
	}
	return swapFeeRate+launchFeeRate <= FeeRateDenominator
}
