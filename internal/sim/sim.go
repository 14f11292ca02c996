// Package sim replays a list of trades against an in-memory pool and
// reports when the pool becomes ready and what a launch pays out.
package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"curvedex/internal/dex"
	"curvedex/internal/engine"
	"curvedex/internal/ledger"
	"curvedex/internal/migration"
	"curvedex/internal/store"
	"curvedex/pkg/curve"
)

const (
	mint0     = "token0"
	mint1     = "token1"
	traderBag = uint64(1) << 62
)

type Trade struct {
	Direction string `mapstructure:"direction" json:"direction"`
	Mode      string `mapstructure:"mode" json:"mode"`
	Amount    uint64 `mapstructure:"amount" json:"amount"`
	Limit     uint64 `mapstructure:"limit" json:"limit"`
}

// Scenario describes a pool and the trades sent to it.
type Scenario struct {
	Reserve0        uint64  `mapstructure:"reserve0" json:"reserve0"`
	Reserve1        uint64  `mapstructure:"reserve1" json:"reserve1"`
	Decimals0       uint8   `mapstructure:"decimals0" json:"decimals0"`
	Decimals1       uint8   `mapstructure:"decimals1" json:"decimals1"`
	SwapFeeRate     uint64  `mapstructure:"swap_fee_rate" json:"swap_fee_rate"`
	LaunchFeeRate   uint64  `mapstructure:"launch_fee_rate" json:"launch_fee_rate"`
	InitialReserve  uint64  `mapstructure:"initial_reserve" json:"initial_reserve"`
	BoundAmount     uint64  `mapstructure:"bound_amount" json:"bound_amount"`
	BoundSide       uint8   `mapstructure:"bound_side" json:"bound_side"`
	BoundComparison string  `mapstructure:"bound_comparison" json:"bound_comparison"`
	Trades          []Trade `mapstructure:"trades" json:"trades"`
	// Launch migrates the pool once it is ready.
	Launch bool `mapstructure:"launch" json:"launch"`
}

// LoadScenario reads a scenario file in any format viper understands.
func LoadScenario(path string) (*Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("decimals0", 9)
	v.SetDefault("decimals1", 6)
	v.SetDefault("launch", true)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &s, nil
}

type Step struct {
	Index int            `json:"index"`
	Trade Trade          `json:"trade"`
	Swap  *dex.SwapEvent `json:"swap,omitempty"`
	Error string         `json:"error,omitempty"`
}

type Report struct {
	Steps []Step `json:"steps"`
	// ReadyAt is the index of the trade that crossed the bound, or -1.
	ReadyAt     int                `json:"ready_at"`
	Final       *engine.PoolView   `json:"final"`
	Plan        *migration.Plan    `json:"plan,omitempty"`
	Launch      *dex.LaunchedEvent `json:"launch,omitempty"`
	FeeBalances [2]uint64          `json:"fee_balances"`
}

func (t Trade) request() (dex.SwapRequest, error) {
	dir, err := curve.ParseTradeDirection(t.Direction)
	if err != nil {
		return dex.SwapRequest{}, err
	}
	mode := dex.BaseInput
	switch t.Mode {
	case "", "base_input":
	case "base_output":
		mode = dex.BaseOutput
	default:
		return dex.SwapRequest{}, fmt.Errorf("unknown mode %q", t.Mode)
	}
	in, out := "trader-0", "trader-1"
	if dir == curve.OneForZero {
		in, out = out, in
	}
	return dex.SwapRequest{
		Direction:     dir,
		Mode:          mode,
		Amount:        t.Amount,
		Limit:         t.Limit,
		InputAccount:  in,
		OutputAccount: out,
	}, nil
}

// Run plays s on a fresh in-memory engine. Rejected trades are reported and
// skipped; only setup failures return an error.
func Run(ctx context.Context, s Scenario) (*Report, error) {
	comparison, err := dex.ParseComparison(s.BoundComparison)
	if err != nil {
		return nil, err
	}
	opts := engine.DefaultOptions()
	opts.FeeRecipients = [2]string{"fees-0", "fees-1"}
	clock := time.Unix(0, 0).UTC()
	opts.Now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	svc := engine.New(store.NewMemory(ledger.NewMemory()), nil, nil, opts)

	// The creator also funds the initial reserve on the bound side.
	funding := [2]uint64{s.Reserve0, s.Reserve1}
	if s.BoundSide > 1 {
		return nil, fmt.Errorf("%w: bound side %d", dex.ErrInvalidInput, s.BoundSide)
	}
	funding[s.BoundSide] += s.InitialReserve

	setup := []func() error{
		func() error {
			return svc.RegisterMint(ctx, ledger.MintSpec{Address: mint0, Decimals: s.Decimals0, Supported: true})
		},
		func() error {
			return svc.RegisterMint(ctx, ledger.MintSpec{Address: mint1, Decimals: s.Decimals1, Supported: true})
		},
		func() error { return svc.MintTo(ctx, "creator-0", "creator", mint0, funding[0]) },
		func() error { return svc.MintTo(ctx, "creator-1", "creator", mint1, funding[1]) },
		func() error { return svc.MintTo(ctx, "trader-0", "trader", mint0, traderBag) },
		func() error { return svc.MintTo(ctx, "trader-1", "trader", mint1, traderBag) },
	}
	for _, step := range setup {
		if err := step(); err != nil {
			return nil, err
		}
	}

	cfg, err := svc.CreateConfig(ctx, "simulator", dex.Config{
		SwapFeeRate:    s.SwapFeeRate,
		LaunchFeeRate:  s.LaunchFeeRate,
		InitialReserve: s.InitialReserve,
		ReserveBound: dex.ReserveBound{
			Amount:     s.BoundAmount,
			Side:       dex.Side(s.BoundSide),
			Comparison: comparison,
		},
	})
	if err != nil {
		return nil, err
	}
	pool, err := svc.CreatePool(ctx, engine.CreatePoolRequest{
		ConfigID:        cfg.ID,
		Creator:         "creator",
		Mints:           [2]string{mint0, mint1},
		CreatorAccounts: [2]string{"creator-0", "creator-1"},
		InitAmounts:     [2]uint64{s.Reserve0, s.Reserve1},
	})
	if err != nil {
		return nil, err
	}

	report := &Report{ReadyAt: -1}
	for i, trade := range s.Trades {
		step := Step{Index: i, Trade: trade}
		req, err := trade.request()
		if err == nil {
			step.Swap, err = svc.Swap(ctx, pool.ID, "trader", req)
		}
		if err != nil {
			step.Error = err.Error()
		} else if step.Swap.ReadyToLaunch {
			report.ReadyAt = i
		}
		report.Steps = append(report.Steps, step)
	}

	if report.ReadyAt >= 0 {
		if report.Plan, err = svc.LaunchPlan(ctx, pool.ID); err != nil {
			return nil, err
		}
		if s.Launch {
			report.Launch, err = svc.Launch(ctx, pool.ID, migration.LaunchRequest{Admin: "simulator"})
			if err != nil {
				return nil, err
			}
			for i, account := range opts.FeeRecipients {
				if report.FeeBalances[i], err = svc.Balance(ctx, account); err != nil {
					return nil, err
				}
			}
		}
	}

	if report.Final, err = svc.Pool(ctx, pool.ID); err != nil {
		return nil, err
	}
	return report, nil
}
