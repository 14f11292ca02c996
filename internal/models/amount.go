package models

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Amount converts a token amount into its numeric column form.
func Amount(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// Uint64 reads a numeric column back into a token amount.
func Uint64(d decimal.Decimal) (uint64, error) {
	i := d.BigInt()
	if i.Sign() < 0 || !i.IsUint64() || !d.Equal(decimal.NewFromBigInt(i, 0)) {
		return 0, fmt.Errorf("amount %s does not fit a token amount", d.String())
	}
	return i.Uint64(), nil
}
