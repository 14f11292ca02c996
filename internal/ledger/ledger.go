// Package ledger implements the token-transfer collaborator of the pools:
// balances per token account, transfers that withhold Token-2022 transfer
// fees, and burning.
package ledger

import (
	"errors"
	"fmt"

	"curvedex/internal/dex"
	"curvedex/pkg/solana"
)

var (
	ErrUnknownMint       = errors.New("unknown mint")
	ErrAccountNotFound   = errors.New("token account not found")
	ErrMintMismatch      = errors.New("token account mint mismatch")
	ErrDecimalsMismatch  = errors.New("transfer decimals mismatch")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// MintSpec registers a mint with the ledger.
type MintSpec struct {
	Address     string                    `json:"address"`
	Program     string                    `json:"program"`
	Decimals    uint8                     `json:"decimals"`
	Supported   bool                      `json:"supported"`
	TransferFee *solana.TransferFeeConfig `json:"transfer_fee,omitempty"`
}

// FromMintInfo builds a spec from a decoded on-chain mint.
func FromMintInfo(info *solana.MintInfo) MintSpec {
	return MintSpec{
		Address:     info.Address.String(),
		Program:     info.Program.String(),
		Decimals:    info.Decimals,
		Supported:   info.IsSupported(),
		TransferFee: info.TransferFee,
	}
}

// schedule returns the fee schedule active at epoch; a mint without the
// extension transfers for free.
func (m MintSpec) schedule(epoch uint64) solana.TransferFee {
	if m.TransferFee == nil {
		return solana.TransferFee{}
	}
	return m.TransferFee.EpochFee(epoch)
}

func (m MintSpec) info() dex.MintInfo {
	return dex.MintInfo{Decimals: m.Decimals, Supported: m.Supported}
}

func (m MintSpec) fee(epoch, amount uint64) (uint64, error) {
	fee, ok := m.schedule(epoch).CalculateFee(amount)
	if !ok {
		return 0, fmt.Errorf("%w: mint %s amount %d", solana.ErrTransferFeeFailed, m.Address, amount)
	}
	return fee, nil
}

func (m MintSpec) inverseFee(epoch, postFeeAmount uint64) (uint64, error) {
	fee, ok := m.schedule(epoch).CalculateInverseFee(postFeeAmount)
	if !ok {
		return 0, fmt.Errorf("%w: mint %s post-fee amount %d", solana.ErrTransferFeeFailed, m.Address, postFeeAmount)
	}
	return fee, nil
}

// Account is a read-only view of one token account.
type Account struct {
	Address string `json:"address"`
	Mint    string `json:"mint"`
	Owner   string `json:"owner"`
	Amount  uint64 `json:"amount"`
}
