package dex

import "context"

// MintInfo is what the pool needs to know about a mint.
type MintInfo struct {
	Decimals  uint8
	Supported bool
}

// TokenProgram moves value and prices transfer fees. Implementations must
// apply a transfer entirely or not at all.
type TokenProgram interface {
	Balance(ctx context.Context, account string) (uint64, error)
	// Transfer debits amount from `from` and returns what was credited to `to`
	// after the mint's transfer fee.
	Transfer(ctx context.Context, from, to, mint string, amount uint64, decimals uint8) (uint64, error)
	TransferFee(ctx context.Context, mint string, amount uint64) (uint64, error)
	// TransferInverseFee is the fee charged on the transfer that delivers
	// exactly postFeeAmount.
	TransferInverseFee(ctx context.Context, mint string, postFeeAmount uint64) (uint64, error)
	Mint(ctx context.Context, mint string) (MintInfo, error)
}
