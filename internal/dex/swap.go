package dex

import (
	"context"
	"fmt"
	"time"

	"curvedex/pkg/curve"
)

// SwapMode selects which side of the trade the caller fixes.
type SwapMode uint8

const (
	// BaseInput fixes the amount sent; Limit is the minimum received.
	BaseInput SwapMode = iota
	// BaseOutput fixes the amount received; Limit is the maximum sent, and
	// zero leaves it unbounded.
	BaseOutput
)

func (m SwapMode) String() string {
	if m == BaseOutput {
		return "base_output"
	}
	return "base_input"
}

// SwapRequest is one trade against a pool.
type SwapRequest struct {
	Direction curve.TradeDirection
	Mode      SwapMode
	// Amount is amount_in for BaseInput and the net amount_out for BaseOutput.
	Amount uint64
	Limit  uint64
	// InputAccount pays the input token, OutputAccount receives the output token.
	InputAccount  string
	OutputAccount string
	Now           time.Time
}

// Quote is the priced plan of a trade, before any value moves.
type Quote struct {
	Direction curve.TradeDirection `json:"direction"`
	Mode      string               `json:"mode"`
	// AmountIn leaves the trader; AmountOut leaves the vault.
	AmountIn          uint64    `json:"amount_in"`
	AmountOut         uint64    `json:"amount_out"`
	AmountReceived    uint64    `json:"amount_received"`
	InputTransferFee  uint64    `json:"input_transfer_fee"`
	OutputTransferFee uint64    `json:"output_transfer_fee"`
	ProtocolFee       uint64    `json:"protocol_fee"`
	Reserves          [2]uint64 `json:"reserves"`
	Balances          [2]uint64 `json:"balances"`
	PriceAfter        Price     `json:"price_after"`

	result *curve.SwapResult
}

func sides(d curve.TradeDirection) (in, out Side) {
	if d == curve.ZeroForOne {
		return Token0, Token1
	}
	return Token1, Token0
}

// Quote prices req against the current vaults without moving value.
func (s State) Quote(ctx context.Context, cfg Config, tokens TokenProgram, req SwapRequest) (*Quote, error) {
	if s.IsLaunched() {
		return nil, ErrLaunched
	}
	if req.Amount == 0 {
		return nil, fmt.Errorf("%w: zero amount", ErrInvalidInput)
	}
	if req.Direction > curve.OneForZero || req.Mode > BaseOutput {
		return nil, fmt.Errorf("%w: direction %d mode %d", ErrInvalidInput, req.Direction, req.Mode)
	}
	for _, account := range [2]string{req.InputAccount, req.OutputAccount} {
		if account != "" && (account == s.Vaults[0].Account || account == s.Vaults[1].Account) {
			return nil, fmt.Errorf("%w: trader account %s is a pool vault", ErrInvalidVault, account)
		}
	}

	balances, err := s.Balances(ctx, tokens)
	if err != nil {
		return nil, err
	}
	reserves, err := s.Reserves(balances)
	if err != nil {
		return nil, err
	}

	in, out := sides(req.Direction)
	q := &Quote{
		Direction: req.Direction,
		Mode:      req.Mode.String(),
		Reserves:  reserves,
		Balances:  balances,
	}
	if req.Mode == BaseInput {
		err = s.quoteBaseInput(ctx, cfg, tokens, req, in, out, q)
	} else {
		err = s.quoteBaseOutput(ctx, cfg, tokens, req, in, out, q)
	}
	if err != nil {
		return nil, err
	}
	if !q.result.InvariantHolds() {
		return nil, ErrInvariantViolated
	}

	var after [2]uint64
	after[in] = q.result.NewSwapSourceAmount - q.result.ProtocolFee
	after[out] = q.result.NewSwapDestinationAmount
	q.PriceAfter = NewPrice(after, s.Vaults)
	return q, nil
}

func (s State) quoteBaseInput(ctx context.Context, cfg Config, tokens TokenProgram, req SwapRequest, in, out Side, q *Quote) error {
	inFee, err := tokens.TransferFee(ctx, s.Vaults[in].Mint, req.Amount)
	if err != nil {
		return err
	}
	if inFee >= req.Amount {
		return fmt.Errorf("%w: transfer fee %d consumes input %d", ErrZeroTradingTokens, inFee, req.Amount)
	}
	actualIn := req.Amount - inFee

	result := curve.SwapBaseInput(actualIn, q.Reserves[in], q.Reserves[out], cfg.SwapFeeRate)
	if result == nil {
		return ErrCalculationFailure
	}
	if result.SourceAmountSwapped != actualIn {
		return fmt.Errorf("%w: swapped %d of %d", ErrCalculationFailure, result.SourceAmountSwapped, actualIn)
	}

	amountOut := result.DestinationAmountSwapped
	outFee, err := tokens.TransferFee(ctx, s.Vaults[out].Mint, amountOut)
	if err != nil {
		return err
	}
	if amountOut <= outFee {
		return fmt.Errorf("%w: output %d after transfer fee %d", ErrZeroTradingTokens, amountOut, outFee)
	}
	received := amountOut - outFee
	if received < req.Limit {
		return fmt.Errorf("%w: receives %d, minimum %d", ErrExceededSlippage, received, req.Limit)
	}

	q.AmountIn = req.Amount
	q.AmountOut = amountOut
	q.AmountReceived = received
	q.InputTransferFee = inFee
	q.OutputTransferFee = outFee
	q.ProtocolFee = result.ProtocolFee
	q.result = result
	return nil
}

func (s State) quoteBaseOutput(ctx context.Context, cfg Config, tokens TokenProgram, req SwapRequest, in, out Side, q *Quote) error {
	outFee, err := tokens.TransferInverseFee(ctx, s.Vaults[out].Mint, req.Amount)
	if err != nil {
		return err
	}
	actualOut := req.Amount + outFee
	if actualOut < req.Amount {
		return ErrOverflow
	}

	result := curve.SwapBaseOutput(actualOut, q.Reserves[in], q.Reserves[out], cfg.SwapFeeRate)
	if result == nil {
		return ErrCalculationFailure
	}
	sourceSwapped := result.SourceAmountSwapped
	if sourceSwapped == 0 {
		return ErrZeroTradingTokens
	}

	inFee, err := tokens.TransferInverseFee(ctx, s.Vaults[in].Mint, sourceSwapped)
	if err != nil {
		return err
	}
	inputTransfer := sourceSwapped + inFee
	if inputTransfer < sourceSwapped {
		return ErrOverflow
	}
	if req.Limit != 0 && inputTransfer > req.Limit {
		return fmt.Errorf("%w: costs %d, maximum %d", ErrExceededSlippage, inputTransfer, req.Limit)
	}

	q.AmountIn = inputTransfer
	q.AmountOut = actualOut
	q.AmountReceived = req.Amount
	q.InputTransferFee = inFee
	q.OutputTransferFee = outFee
	q.ProtocolFee = result.ProtocolFee
	q.result = result
	return nil
}

// ExecuteSwap prices req, moves value through tokens, accrues the protocol
// fee on the input side and checks the launch threshold. It returns the next
// state; on error the receiver stays authoritative and nothing was applied by
// this layer.
func (s State) ExecuteSwap(ctx context.Context, cfg Config, tokens TokenProgram, req SwapRequest) (State, *SwapEvent, error) {
	if !req.Now.IsZero() && req.Now.Before(s.OpenTime) {
		return s, nil, fmt.Errorf("%w: pool opens at %s", ErrNotApproved, s.OpenTime)
	}
	q, err := s.Quote(ctx, cfg, tokens, req)
	if err != nil {
		return s, nil, err
	}

	in, out := sides(req.Direction)
	next := s
	fee := next.SwapFees[in] + q.ProtocolFee
	if fee < next.SwapFees[in] {
		return s, nil, ErrOverflow
	}
	next.SwapFees[in] = fee

	if _, err := tokens.Transfer(ctx, req.InputAccount, s.Vaults[in].Account, s.Vaults[in].Mint, q.AmountIn, s.Vaults[in].Decimals); err != nil {
		return s, nil, fmt.Errorf("input transfer: %w", err)
	}
	if _, err := tokens.Transfer(ctx, s.Vaults[out].Account, req.OutputAccount, s.Vaults[out].Mint, q.AmountOut, s.Vaults[out].Decimals); err != nil {
		return s, nil, fmt.Errorf("output transfer: %w", err)
	}

	boundBalance, err := tokens.Balance(ctx, next.Vaults[next.Bound.Side].Account)
	if err != nil {
		return s, nil, fmt.Errorf("%w: %v", ErrInvalidVault, err)
	}
	crossed := next.checkThreshold(boundBalance)
	next.UpdatedAt = req.Now

	return next, &SwapEvent{
		PoolID:            s.ID,
		Direction:         req.Direction,
		BaseInput:         req.Mode == BaseInput,
		InputVaultBefore:  q.Balances[in],
		OutputVaultBefore: q.Balances[out],
		InputAmount:       q.AmountIn,
		OutputAmount:      q.AmountOut,
		InputTransferFee:  q.InputTransferFee,
		OutputTransferFee: q.OutputTransferFee,
		ProtocolFee:       q.ProtocolFee,
		RemainingTokens:   next.Bound.Remaining(boundBalance),
		ReadyToLaunch:     crossed,
		Price:             q.PriceAfter,
		Timestamp:         req.Now,
	}, nil
}
