package solana

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferFeeMath(t *testing.T) {
	fee := TransferFee{MaximumFee: 5_000, BasisPoints: 100}

	t.Run("rounds fee up", func(t *testing.T) {
		got, ok := fee.CalculateFee(150)
		require.True(t, ok)
		assert.Equal(t, uint64(2), got)
	})

	t.Run("caps at maximum", func(t *testing.T) {
		got, ok := fee.CalculateFee(10_000_000)
		require.True(t, ok)
		assert.Equal(t, uint64(5_000), got)
	})

	t.Run("pre fee amount delivers post amount", func(t *testing.T) {
		for _, post := range []uint64{1, 99, 100, 12_345, 1_000_000, 900_000_000} {
			pre, ok := fee.CalculatePreFeeAmount(post)
			require.True(t, ok)
			charged, ok := fee.CalculateFee(pre)
			require.True(t, ok)
			assert.Equal(t, post, pre-charged, "post=%d", post)

			inverse, ok := fee.CalculateInverseFee(post)
			require.True(t, ok)
			assert.Equal(t, charged, inverse)
		}
	})

	t.Run("zero schedule is free", func(t *testing.T) {
		free := TransferFee{}
		got, ok := free.CalculateFee(1_000)
		require.True(t, ok)
		assert.Zero(t, got)
		pre, ok := free.CalculatePreFeeAmount(1_000)
		require.True(t, ok)
		assert.Equal(t, uint64(1_000), pre)
	})

	t.Run("full rate adds the maximum", func(t *testing.T) {
		all := TransferFee{MaximumFee: 10, BasisPoints: maxBasisPoints}
		pre, ok := all.CalculatePreFeeAmount(50)
		require.True(t, ok)
		assert.Equal(t, uint64(60), pre)
	})
}

func TestEpochFee(t *testing.T) {
	cfg := &TransferFeeConfig{
		Older: TransferFee{Epoch: 1, BasisPoints: 10},
		Newer: TransferFee{Epoch: 5, BasisPoints: 50},
	}
	assert.Equal(t, uint16(10), cfg.EpochFee(4).BasisPoints)
	assert.Equal(t, uint16(50), cfg.EpochFee(5).BasisPoints)
}

func buildMintData(decimals uint8, extensions map[uint16][]byte, order []uint16) []byte {
	data := make([]byte, accountBaseSize+1)
	binary.LittleEndian.PutUint64(data[36:44], 1_000_000_000)
	data[44] = decimals
	data[45] = 1
	data[accountBaseSize] = accountTypeMint
	for _, ext := range order {
		header := make([]byte, 4)
		binary.LittleEndian.PutUint16(header[0:2], ext)
		binary.LittleEndian.PutUint16(header[2:4], uint16(len(extensions[ext])))
		data = append(data, header...)
		data = append(data, extensions[ext]...)
	}
	return data
}

func TestDecodeMint(t *testing.T) {
	mint := solana.NewWallet().PublicKey()

	t.Run("legacy mint", func(t *testing.T) {
		data := make([]byte, mintBaseSize)
		data[44] = 6
		info, err := DecodeMint(mint, TOKEN_PROGRAM, data)
		require.NoError(t, err)
		assert.Equal(t, uint8(6), info.Decimals)
		assert.Nil(t, info.TransferFee)
		assert.True(t, info.IsSupported())
	})

	t.Run("token-2022 with transfer fee", func(t *testing.T) {
		cfg := TransferFeeConfig{
			ConfigAuthority: solana.NewWallet().PublicKey(),
			Older:           TransferFee{Epoch: 0, MaximumFee: 1, BasisPoints: 1},
			Newer:           TransferFee{Epoch: 10, MaximumFee: 1_000, BasisPoints: 250},
		}
		data := buildMintData(9, map[uint16][]byte{
			ExtensionTransferFeeConfig: EncodeTransferFeeConfig(cfg),
			ExtensionMetadataPointer:   make([]byte, 64),
		}, []uint16{ExtensionTransferFeeConfig, ExtensionMetadataPointer})

		info, err := DecodeMint(mint, TOKEN_2022_PROGRAM, data)
		require.NoError(t, err)
		assert.Equal(t, uint8(9), info.Decimals)
		assert.Equal(t, uint64(1_000_000_000), info.Supply)
		require.NotNil(t, info.TransferFee)
		assert.Equal(t, cfg.Newer, info.TransferFee.Newer)
		assert.True(t, cfg.ConfigAuthority.Equals(info.TransferFee.ConfigAuthority))
		assert.True(t, info.IsSupported())
	})

	t.Run("unsupported extension", func(t *testing.T) {
		data := buildMintData(9, map[uint16][]byte{9: {}}, []uint16{9})
		info, err := DecodeMint(mint, TOKEN_2022_PROGRAM, data)
		require.NoError(t, err)
		assert.False(t, info.IsSupported())
	})

	t.Run("foreign owner", func(t *testing.T) {
		_, err := DecodeMint(mint, solana.SystemProgramID, make([]byte, mintBaseSize))
		assert.ErrorIs(t, err, ErrUnknownMintOwner)
	})

	t.Run("short data", func(t *testing.T) {
		_, err := DecodeMint(mint, TOKEN_PROGRAM, make([]byte, 10))
		assert.ErrorIs(t, err, ErrInvalidMintData)
	})
}
