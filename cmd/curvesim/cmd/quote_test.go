package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runQuote(t *testing.T, args ...string) (quoteResult, error) {
	t.Helper()
	quoteCmd.Flags().VisitAll(func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(append([]string{"quote"}, args...))
	err := rootCmd.Execute()

	var res quoteResult
	if err == nil {
		require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	}
	return res, err
}

func TestQuoteBaseInput(t *testing.T) {
	res, err := runQuote(t, "--amount", "100000")
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000), res.AmountIn)
	assert.Equal(t, uint64(90_081), res.AmountOut)
	assert.Equal(t, uint64(1_000), res.ProtocolFee)
}

func TestQuoteBaseOutput(t *testing.T) {
	res, err := runQuote(t, "--amount", "50000", "--base-output")
	require.NoError(t, err)
	assert.Equal(t, uint64(53_164), res.AmountIn)
	assert.Equal(t, uint64(50_000), res.AmountOut)
	assert.Equal(t, uint64(531), res.ProtocolFee)
}

func TestQuoteRejectsFeeRate(t *testing.T) {
	_, err := runQuote(t, "--amount", "1", "--fee-rate", "30001")
	assert.ErrorIs(t, err, ErrInvalidArgs)
}
