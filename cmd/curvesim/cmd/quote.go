package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"curvedex/pkg/curve"
)

type quoteFlags struct {
	reserveIn  uint64
	reserveOut uint64
	amount     uint64
	feeRate    uint64
	output     bool
}

var qf quoteFlags

func (f *quoteFlags) register(fs *pflag.FlagSet) {
	fs.Uint64Var(&f.reserveIn, "reserve-in", 1_000_000, "reserve of the input token")
	fs.Uint64Var(&f.reserveOut, "reserve-out", 1_000_000, "reserve of the output token")
	fs.Uint64Var(&f.amount, "amount", 0, "amount in, or amount out with --base-output")
	fs.Uint64Var(&f.feeRate, "fee-rate", 10_000, "swap fee rate in millionths")
	fs.BoolVar(&f.output, "base-output", false, "fix the output amount instead of the input")
}

type quoteResult struct {
	AmountIn      uint64 `json:"amount_in"`
	AmountOut     uint64 `json:"amount_out"`
	ProtocolFee   uint64 `json:"protocol_fee"`
	NewReserveIn  uint64 `json:"new_reserve_in"`
	NewReserveOut uint64 `json:"new_reserve_out"`
	PriceX32      string `json:"out_per_in_x32"`
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "price one trade against a pair of reserves",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if qf.amount == 0 {
			return fmt.Errorf("%w: --amount must be positive", ErrInvalidArgs)
		}
		if !curve.ValidateRates(qf.feeRate, 0) {
			return fmt.Errorf("%w: fee rate %d", ErrInvalidArgs, qf.feeRate)
		}
		if err := curve.ValidateSupply(qf.reserveIn, qf.reserveOut); err != nil {
			return err
		}

		var r *curve.SwapResult
		if qf.output {
			r = curve.SwapBaseOutput(qf.amount, qf.reserveIn, qf.reserveOut, qf.feeRate)
		} else {
			r = curve.SwapBaseInput(qf.amount, qf.reserveIn, qf.reserveOut, qf.feeRate)
		}
		if r == nil {
			return fmt.Errorf("%w: trade cannot be priced", ErrInvalidArgs)
		}

		price, _ := curve.PriceX32(r.NewSwapSourceAmount, r.NewSwapDestinationAmount)
		return printJSON(cmd.OutOrStdout(), quoteResult{
			AmountIn:      r.SourceAmountSwapped,
			AmountOut:     r.DestinationAmountSwapped,
			ProtocolFee:   r.ProtocolFee,
			NewReserveIn:  r.NewSwapSourceAmount,
			NewReserveOut: r.NewSwapDestinationAmount,
			PriceX32:      price.Dec(),
		})
	},
}

func init() {
	qf.register(quoteCmd.Flags())
}
