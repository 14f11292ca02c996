package curve

import "github.com/holiman/uint256"

// Intermediate values are held in 256-bit words but must stay within 128 bits,
// the width every on-chain amount calculation is specified for.

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func fits128(x *uint256.Int) bool {
	return x.BitLen() <= 128
}

func checkedMul(a, b *uint256.Int) (*uint256.Int, bool) {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow || !fits128(z) {
		return nil, false
	}
	return z, true
}

func checkedAdd(a, b *uint256.Int) (*uint256.Int, bool) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow || !fits128(z) {
		return nil, false
	}
	return z, true
}

func checkedSub(a, b *uint256.Int) (*uint256.Int, bool) {
	if a.Lt(b) {
		return nil, false
	}
	return new(uint256.Int).Sub(a, b), true
}

func checkedDiv(a, b *uint256.Int) (*uint256.Int, bool) {
	if b.IsZero() {
		return nil, false
	}
	return new(uint256.Int).Div(a, b), true
}

// checkedCeilDiv returns ceil(a/b) as (a + b - 1) / b.
func checkedCeilDiv(a, b *uint256.Int) (*uint256.Int, bool) {
	if b.IsZero() {
		return nil, false
	}
	num, ok := checkedAdd(a, b)
	if !ok {
		return nil, false
	}
	num.SubUint64(num, 1)
	return new(uint256.Int).Div(num, b), true
}

func toU64(x *uint256.Int) (uint64, bool) {
	if !x.IsUint64() {
		return 0, false
	}
	return x.Uint64(), true
}
