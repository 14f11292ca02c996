package dex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"curvedex/pkg/curve"
	"curvedex/pkg/solana"
)

var errNoAccount = errors.New("no such account")

type fakeMint struct {
	decimals  uint8
	supported bool
	fee       solana.TransferFee
}

// fakeTokens is a minimal TokenProgram backed by maps.
type fakeTokens struct {
	mints    map[string]fakeMint
	balances map[string]uint64
	failTo   string
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{
		mints: map[string]fakeMint{
			"mint0": {decimals: 6, supported: true},
			"mint1": {decimals: 9, supported: true},
		},
		balances: map[string]uint64{},
	}
}

func (f *fakeTokens) Balance(_ context.Context, account string) (uint64, error) {
	bal, ok := f.balances[account]
	if !ok {
		return 0, errNoAccount
	}
	return bal, nil
}

func (f *fakeTokens) Transfer(_ context.Context, from, to, mint string, amount uint64, decimals uint8) (uint64, error) {
	m, ok := f.mints[mint]
	if !ok || m.decimals != decimals {
		return 0, errors.New("bad mint")
	}
	if to == f.failTo {
		return 0, errors.New("destination rejected")
	}
	if f.balances[from] < amount {
		return 0, errors.New("insufficient funds")
	}
	fee, _ := m.fee.CalculateFee(amount)
	f.balances[from] -= amount
	f.balances[to] += amount - fee
	return amount - fee, nil
}

func (f *fakeTokens) TransferFee(_ context.Context, mint string, amount uint64) (uint64, error) {
	fee, _ := f.mints[mint].fee.CalculateFee(amount)
	return fee, nil
}

func (f *fakeTokens) TransferInverseFee(_ context.Context, mint string, postFeeAmount uint64) (uint64, error) {
	fee, _ := f.mints[mint].fee.CalculateInverseFee(postFeeAmount)
	return fee, nil
}

func (f *fakeTokens) Mint(_ context.Context, mint string) (MintInfo, error) {
	m, ok := f.mints[mint]
	if !ok {
		return MintInfo{}, errors.New("unknown mint")
	}
	return MintInfo{Decimals: m.decimals, Supported: m.supported}, nil
}

var testNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		ID:            1,
		SwapFeeRate:   10_000,
		LaunchFeeRate: 20_000,
		ReserveBound:  ReserveBound{Amount: 2_000_000, Side: Token0, Comparison: AtLeast},
	}
}

// newTestPool opens a 1M/1M pool and funds a trader with plenty of both tokens.
func newTestPool(t *testing.T, tokens *fakeTokens, cfg Config) State {
	t.Helper()
	tokens.balances["creator0"] = 10_000_000
	tokens.balances["creator1"] = 10_000_000
	tokens.balances["vault0"] = 0
	tokens.balances["vault1"] = 0
	tokens.balances["trader0"] = 10_000_000
	tokens.balances["trader1"] = 10_000_000

	s, _, err := Initialize(context.Background(), cfg, tokens, InitRequest{
		ID:              "pool",
		Creator:         "creator",
		Mints:           [2]string{"mint0", "mint1"},
		Vaults:          [2]string{"vault0", "vault1"},
		CreatorAccounts: [2]string{"creator0", "creator1"},
		InitAmounts:     [2]uint64{1_000_000, 1_000_000},
		Now:             testNow,
	})
	require.NoError(t, err)
	return s
}

func buyToken1(amount, minOut uint64) SwapRequest {
	return SwapRequest{
		Direction:     curve.ZeroForOne,
		Mode:          BaseInput,
		Amount:        amount,
		Limit:         minOut,
		InputAccount:  "trader0",
		OutputAccount: "trader1",
		Now:           testNow.Add(time.Minute),
	}
}
