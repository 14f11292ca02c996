package curve

// SwapBaseInputWithoutFees returns floor(src * y / (x + src)), the destination
// amount released for a fee-free source amount against reserves x and y.
func SwapBaseInputWithoutFees(sourceAmount, swapSourceAmount, swapDestinationAmount uint64) (uint64, bool) {
	num, ok := checkedMul(u(sourceAmount), u(swapDestinationAmount))
	if !ok {
		return 0, false
	}
	den, ok := checkedAdd(u(swapSourceAmount), u(sourceAmount))
	if !ok {
		return 0, false
	}
	out, ok := checkedDiv(num, den)
	if !ok {
		return 0, false
	}
	return toU64(out)
}

// SwapBaseOutputWithoutFees returns ceil(x * dst / (y - dst)), the fee-free
// source amount needed to withdraw dst. dst must be strictly below y.
func SwapBaseOutputWithoutFees(destinationAmount, swapSourceAmount, swapDestinationAmount uint64) (uint64, bool) {
	if destinationAmount >= swapDestinationAmount {
		return 0, false
	}
	num, ok := checkedMul(u(swapSourceAmount), u(destinationAmount))
	if !ok {
		return 0, false
	}
	in, ok := checkedCeilDiv(num, u(swapDestinationAmount-destinationAmount))
	if !ok {
		return 0, false
	}
	return toU64(in)
}
