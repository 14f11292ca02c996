package dex

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"curvedex/pkg/curve"
)

// Event names, also used as routing keys by the notifiers
const (
	EventPoolInitialized = "dex.initialized"
	EventSwap            = "dex.swap"
	EventReadyToLaunch   = "dex.ready_to_launch"
	EventLaunched        = "dex.launched"
	EventFeesWithdrawn   = "dex.fees_withdrawn"
	EventConfigUpdated   = "dex.config_updated"
	EventBoundUpdated    = "dex.reserve_bound_updated"
)

// Event is anything the engine publishes after a committed operation.
type Event interface {
	EventName() string
}

// Price is the spot price of a pool in both directions.
type Price struct {
	// Token1PerToken0X32 is the raw Q32 fixed-point ratio of reserves.
	Token1PerToken0X32 string          `json:"token_1_per_token_0_x32"`
	Token0PerToken1X32 string          `json:"token_0_per_token_1_x32"`
	Token1PerToken0    decimal.Decimal `json:"token_1_per_token_0"`
	Token0PerToken1    decimal.Decimal `json:"token_0_per_token_1"`
}

// NewPrice prices reserves, adjusting the decimal form for mint decimals.
func NewPrice(reserves [2]uint64, vaults [2]Vault) Price {
	p01, p10 := curve.PriceX32(reserves[0], reserves[1])
	price := Price{
		Token1PerToken0X32: p01.Dec(),
		Token0PerToken1X32: p10.Dec(),
	}
	amount0 := decimal.NewFromBigInt(new(big.Int).SetUint64(reserves[0]), -int32(vaults[0].Decimals))
	amount1 := decimal.NewFromBigInt(new(big.Int).SetUint64(reserves[1]), -int32(vaults[1].Decimals))
	if !amount0.IsZero() {
		price.Token1PerToken0 = amount1.DivRound(amount0, 18)
	}
	if !amount1.IsZero() {
		price.Token0PerToken1 = amount0.DivRound(amount1, 18)
	}
	return price
}

type InitializeEvent struct {
	PoolID    string    `json:"dex_id"`
	ConfigID  uint      `json:"config_id"`
	Payer     string    `json:"payer_id"`
	Mint0     string    `json:"mint_zero"`
	Mint1     string    `json:"mint_one"`
	Deposits  [2]uint64 `json:"deposits"`
	Timestamp time.Time `json:"timestamp"`
}

func (InitializeEvent) EventName() string { return EventPoolInitialized }

// SwapEvent describes one committed trade.
type SwapEvent struct {
	PoolID            string               `json:"dex_id"`
	Direction         curve.TradeDirection `json:"direction"`
	BaseInput         bool                 `json:"base_input"`
	InputVaultBefore  uint64               `json:"input_vault_before"`
	OutputVaultBefore uint64               `json:"output_vault_before"`
	InputAmount       uint64               `json:"input_amount"`
	OutputAmount      uint64               `json:"output_amount"`
	InputTransferFee  uint64               `json:"input_transfer_fee"`
	OutputTransferFee uint64               `json:"output_transfer_fee"`
	ProtocolFee       uint64               `json:"protocol_fee"`
	RemainingTokens   uint64               `json:"remaining_tokens"`
	ReadyToLaunch     bool                 `json:"ready_to_launch"`
	Price             Price                `json:"price"`
	Timestamp         time.Time            `json:"timestamp"`
}

func (SwapEvent) EventName() string { return EventSwap }

// ReadyToLaunchEvent is emitted once, by the swap that crosses the bound.
type ReadyToLaunchEvent struct {
	PoolID    string    `json:"dex_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (ReadyToLaunchEvent) EventName() string { return EventReadyToLaunch }

type LaunchedEvent struct {
	PoolID       string    `json:"dex_id"`
	AmmPoolID    string    `json:"amm_pool_id"`
	Admin        string    `json:"admin_id"`
	Amounts      [2]uint64 `json:"amounts"`
	LaunchFees   [2]uint64 `json:"launch_fees"`
	TransferFees [2]uint64 `json:"transfer_fees"`
	FeePayouts   [2]uint64 `json:"fee_payouts"`
	LpBurned     uint64    `json:"lp_burned"`
	Timestamp    time.Time `json:"timestamp"`
}

func (LaunchedEvent) EventName() string { return EventLaunched }

type FeesWithdrawnEvent struct {
	PoolID      string    `json:"dex_id"`
	Recipients  [2]string `json:"recipients"`
	Requested   [2]uint64 `json:"requested"`
	Amounts     [2]uint64 `json:"amounts"`
	AfterLaunch bool      `json:"after_launch"`
	Timestamp   time.Time `json:"timestamp"`
}

func (FeesWithdrawnEvent) EventName() string { return EventFeesWithdrawn }

type ConfigUpdatedEvent struct {
	ConfigID uint   `json:"config_id"`
	Admin    string `json:"admin_id"`
	Field    string `json:"field"`
	OldValue uint64 `json:"old_value"`
	NewValue uint64 `json:"new_value"`
}

func (ConfigUpdatedEvent) EventName() string { return EventConfigUpdated }

type ReserveBoundUpdatedEvent struct {
	PoolID string       `json:"dex_id"`
	Old    ReserveBound `json:"old"`
	New    ReserveBound `json:"new"`
}

func (ReserveBoundUpdatedEvent) EventName() string { return EventBoundUpdated }
