package solana

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/holiman/uint256"
)

// Program IDs of the two token programs a pool mint may belong to
var (
	TOKEN_PROGRAM      = solana.MustPublicKeyFromBase58("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	TOKEN_2022_PROGRAM = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

const (
	mintBaseSize         = 82
	accountBaseSize      = 165
	accountTypeMint      = 1
	maxBasisPoints       = 10_000
	transferFeeConfigLen = 108
)

// Token-2022 extension types
const (
	ExtensionTransferFeeConfig uint16 = 1
	ExtensionMetadataPointer   uint16 = 18
	ExtensionTokenMetadata     uint16 = 19
)

var (
	ErrInvalidMintData   = errors.New("invalid mint account data")
	ErrUnknownMintOwner  = errors.New("mint is not owned by a token program")
	ErrTransferFeeFailed = errors.New("failed to calculate transfer fee")
)

// TransferFee is one epoch-scoped fee schedule of a Token-2022 mint.
type TransferFee struct {
	Epoch       uint64 `json:"epoch"`
	MaximumFee  uint64 `json:"maximum_fee"`
	BasisPoints uint16 `json:"basis_points"`
}

// TransferFeeConfig mirrors the TransferFeeConfig mint extension.
type TransferFeeConfig struct {
	ConfigAuthority   solana.PublicKey `json:"config_authority"`
	WithdrawAuthority solana.PublicKey `json:"withdraw_authority"`
	WithheldAmount    uint64           `json:"withheld_amount"`
	Older             TransferFee      `json:"older"`
	Newer             TransferFee      `json:"newer"`
}

// EpochFee returns the schedule active at epoch.
func (c *TransferFeeConfig) EpochFee(epoch uint64) TransferFee {
	if epoch >= c.Newer.Epoch {
		return c.Newer
	}
	return c.Older
}

// CalculateFee returns the fee withheld from a transfer of preFeeAmount.
func (f TransferFee) CalculateFee(preFeeAmount uint64) (uint64, bool) {
	if f.BasisPoints == 0 || preFeeAmount == 0 {
		return 0, true
	}
	num := new(uint256.Int).Mul(uint256.NewInt(preFeeAmount), uint256.NewInt(uint64(f.BasisPoints)))
	num.AddUint64(num, maxBasisPoints-1)
	raw := num.Div(num, uint256.NewInt(maxBasisPoints))
	if !raw.IsUint64() {
		return 0, false
	}
	if fee := raw.Uint64(); fee < f.MaximumFee {
		return fee, true
	}
	return f.MaximumFee, true
}

// CalculatePreFeeAmount returns the amount that has to be sent so that
// postFeeAmount arrives.
func (f TransferFee) CalculatePreFeeAmount(postFeeAmount uint64) (uint64, bool) {
	switch {
	case f.BasisPoints == 0 || f.MaximumFee == 0:
		return postFeeAmount, true
	case postFeeAmount == 0:
		return 0, true
	case f.BasisPoints == maxBasisPoints:
		return addU64(postFeeAmount, f.MaximumFee)
	}
	num := new(uint256.Int).Mul(uint256.NewInt(postFeeAmount), uint256.NewInt(maxBasisPoints))
	den := uint256.NewInt(uint64(maxBasisPoints - f.BasisPoints))
	num.Add(num, den)
	num.SubUint64(num, 1)
	raw := num.Div(num, den)
	if !raw.IsUint64() {
		return 0, false
	}
	if raw.Uint64()-postFeeAmount >= f.MaximumFee {
		return addU64(postFeeAmount, f.MaximumFee)
	}
	return raw.Uint64(), true
}

// CalculateInverseFee returns the fee charged on the pre-fee amount that
// delivers postFeeAmount.
func (f TransferFee) CalculateInverseFee(postFeeAmount uint64) (uint64, bool) {
	pre, ok := f.CalculatePreFeeAmount(postFeeAmount)
	if !ok {
		return 0, false
	}
	return f.CalculateFee(pre)
}

func addU64(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum >= a
}

// MintInfo is the decoded subset of a mint account the pool cares about.
type MintInfo struct {
	Address     solana.PublicKey   `json:"address"`
	Program     solana.PublicKey   `json:"program"`
	Supply      uint64             `json:"supply"`
	Decimals    uint8              `json:"decimals"`
	Extensions  []uint16           `json:"extensions"`
	TransferFee *TransferFeeConfig `json:"transfer_fee,omitempty"`
}

// IsSupported accepts legacy mints and Token-2022 mints whose extensions are
// limited to transfer fees and metadata.
func (m *MintInfo) IsSupported() bool {
	if m.Program.Equals(TOKEN_PROGRAM) {
		return true
	}
	for _, ext := range m.Extensions {
		switch ext {
		case ExtensionTransferFeeConfig, ExtensionMetadataPointer, ExtensionTokenMetadata:
		default:
			return false
		}
	}
	return true
}

// DecodeMint parses raw mint account data owned by either token program.
func DecodeMint(address, owner solana.PublicKey, data []byte) (*MintInfo, error) {
	if !owner.Equals(TOKEN_PROGRAM) && !owner.Equals(TOKEN_2022_PROGRAM) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMintOwner, owner)
	}
	if len(data) < mintBaseSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidMintData, len(data))
	}

	info := &MintInfo{
		Address:  address,
		Program:  owner,
		Supply:   binary.LittleEndian.Uint64(data[36:44]),
		Decimals: data[44],
	}
	if !owner.Equals(TOKEN_2022_PROGRAM) || len(data) <= accountBaseSize {
		return info, nil
	}
	if data[accountBaseSize] != accountTypeMint {
		return nil, fmt.Errorf("%w: account type %d", ErrInvalidMintData, data[accountBaseSize])
	}

	offset := accountBaseSize + 1
	for offset+4 <= len(data) {
		extType := binary.LittleEndian.Uint16(data[offset : offset+2])
		extLen := int(binary.LittleEndian.Uint16(data[offset+2 : offset+4]))
		offset += 4
		if extType == 0 {
			break
		}
		if offset+extLen > len(data) {
			return nil, fmt.Errorf("%w: extension %d overruns data", ErrInvalidMintData, extType)
		}
		info.Extensions = append(info.Extensions, extType)
		if extType == ExtensionTransferFeeConfig {
			cfg, err := decodeTransferFeeConfig(data[offset : offset+extLen])
			if err != nil {
				return nil, err
			}
			info.TransferFee = cfg
		}
		offset += extLen
	}
	return info, nil
}

func decodeTransferFeeConfig(data []byte) (*TransferFeeConfig, error) {
	if len(data) != transferFeeConfigLen {
		return nil, fmt.Errorf("%w: transfer fee config is %d bytes", ErrInvalidMintData, len(data))
	}
	readFee := func(b []byte) TransferFee {
		return TransferFee{
			Epoch:       binary.LittleEndian.Uint64(b[0:8]),
			MaximumFee:  binary.LittleEndian.Uint64(b[8:16]),
			BasisPoints: binary.LittleEndian.Uint16(b[16:18]),
		}
	}
	return &TransferFeeConfig{
		ConfigAuthority:   solana.PublicKeyFromBytes(data[0:32]),
		WithdrawAuthority: solana.PublicKeyFromBytes(data[32:64]),
		WithheldAmount:    binary.LittleEndian.Uint64(data[64:72]),
		Older:             readFee(data[72:90]),
		Newer:             readFee(data[90:108]),
	}, nil
}

// EncodeTransferFeeConfig is the inverse of the extension decoder, used to
// build mint fixtures.
func EncodeTransferFeeConfig(cfg TransferFeeConfig) []byte {
	out := make([]byte, transferFeeConfigLen)
	copy(out[0:32], cfg.ConfigAuthority.Bytes())
	copy(out[32:64], cfg.WithdrawAuthority.Bytes())
	binary.LittleEndian.PutUint64(out[64:72], cfg.WithheldAmount)
	writeFee := func(b []byte, f TransferFee) {
		binary.LittleEndian.PutUint64(b[0:8], f.Epoch)
		binary.LittleEndian.PutUint64(b[8:16], f.MaximumFee)
		binary.LittleEndian.PutUint16(b[16:18], f.BasisPoints)
	}
	writeFee(out[72:90], cfg.Older)
	writeFee(out[90:108], cfg.Newer)
	return out
}

// FetchMint loads and decodes a mint together with the current epoch.
func FetchMint(ctx context.Context, client *rpc.Client, mint solana.PublicKey) (*MintInfo, uint64, error) {
	account, err := client.GetAccountInfoWithOpts(ctx, mint, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get mint account %s: %w", mint, err)
	}
	if account == nil || account.Value == nil {
		return nil, 0, fmt.Errorf("mint account %s not found", mint)
	}
	info, err := DecodeMint(mint, account.Value.Owner, account.Value.Data.GetBinary())
	if err != nil {
		return nil, 0, err
	}
	epoch, err := client.GetEpochInfo(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get epoch info: %w", err)
	}
	return info, epoch.Epoch, nil
}
