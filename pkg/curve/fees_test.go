package curve

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProtocolFee(t *testing.T) {
	tests := []struct {
		name   string
		amount uint64
		rate   uint64
		want   uint64
	}{
		{"one percent", 1_000_000, 10_000, 10_000},
		{"floors dust", 99, 10_000, 0},
		{"floors partial", 150, 10_000, 1},
		{"zero rate", 123_456, 0, 0},
		{"zero amount", 0, 30_000, 0},
		{"max u64 amount", math.MaxUint64, 30_000, 553402322211286548},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, ok := ProtocolFee(tt.amount, tt.rate)
			require.True(t, ok)
			assert.Equal(t, tt.want, fee)
		})
	}
}

func TestPreFeeAmount(t *testing.T) {
	t.Run("zero rate returns input", func(t *testing.T) {
		pre, ok := PreFeeAmount(777, 0)
		require.True(t, ok)
		assert.Equal(t, uint64(777), pre)
	})

	t.Run("exact reconstruction", func(t *testing.T) {
		pre, ok := PreFeeAmount(990, 10_000)
		require.True(t, ok)
		assert.Equal(t, uint64(1000), pre)
	})

	t.Run("rounds up", func(t *testing.T) {
		pre, ok := PreFeeAmount(1, 10_000)
		require.True(t, ok)
		assert.Equal(t, uint64(2), pre)
	})

	t.Run("full rate has no inverse", func(t *testing.T) {
		_, ok := PreFeeAmount(1, FeeRateDenominator)
		assert.False(t, ok)
	})

	t.Run("result beyond u64 fails", func(t *testing.T) {
		_, ok := PreFeeAmount(math.MaxUint64, 30_000)
		assert.False(t, ok)
	})
}

func TestFeeComposition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		post := rng.Uint64() >> uint(rng.Intn(64)+1)
		rate := uint64(rng.Intn(int(MaxFeeRate) + 1))

		pre, ok := PreFeeAmount(post, rate)
		require.True(t, ok)
		fee, ok := ProtocolFee(pre, rate)
		require.True(t, ok)
		assert.GreaterOrEqual(t, pre-fee, post, "post=%d rate=%d", post, rate)
	}
}

func TestValidateRates(t *testing.T) {
	assert.True(t, ValidateRates(0, 0))
	assert.True(t, ValidateRates(MaxFeeRate, MaxFeeRate))
	assert.False(t, ValidateRates(MaxFeeRate+1, 0))
	assert.False(t, ValidateRates(0, MaxFeeRate+1))
}
