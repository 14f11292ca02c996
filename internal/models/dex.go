package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DexConfig is a fee and threshold template pools are created from
type DexConfig struct {
	ID              uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Admin           string          `gorm:"size:100" json:"admin"`
	SwapFeeRate     uint64          `gorm:"not null" json:"swap_fee_rate"`
	LaunchFeeRate   uint64          `gorm:"not null" json:"launch_fee_rate"`
	InitialReserve  decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"initial_reserve"`
	ReserveBound    decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"vault_reserve_bound"`
	BoundSide       uint8           `gorm:"not null;default:0" json:"bound_side"`
	BoundComparison string          `gorm:"size:20;not null;default:'at_least'" json:"bound_comparison"`
	DisableCreate   bool            `gorm:"default:false" json:"disable_create"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DexConfig) TableName() string {
	return "dex_config"
}

// DexPool is the persisted state of one bonding-curve pool
type DexPool struct {
	PoolID          string          `gorm:"primaryKey;size:100" json:"pool_id"`
	ConfigID        uint            `gorm:"not null;index" json:"config_id"`
	Creator         string          `gorm:"size:100" json:"creator"`
	Mint0           string          `gorm:"size:100;not null" json:"mint_0"`
	Mint1           string          `gorm:"size:100;not null" json:"mint_1"`
	Decimals0       uint8           `json:"decimals_0"`
	Decimals1       uint8           `json:"decimals_1"`
	Vault0          string          `gorm:"size:100;not null" json:"vault_0"`
	Vault1          string          `gorm:"size:100;not null" json:"vault_1"`
	SwapFee0        decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"swap_fee_0"`
	SwapFee1        decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"swap_fee_1"`
	LaunchFee0      decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"launch_fee_0"`
	LaunchFee1      decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"launch_fee_1"`
	Phase           string          `gorm:"size:20;not null;index" json:"phase"`
	ReserveBound    decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"reserve_bound"`
	BoundSide       uint8           `gorm:"not null;default:0" json:"bound_side"`
	BoundComparison string          `gorm:"size:20;not null;default:'at_least'" json:"bound_comparison"`
	OpenTime        time.Time       `json:"open_time"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (DexPool) TableName() string {
	return "dex_pool"
}

// DexSwap records a committed trade
type DexSwap struct {
	ID                uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	PoolID            string          `gorm:"size:100;not null;index" json:"pool_id"`
	Trader            string          `gorm:"size:100" json:"trader"`
	Direction         string          `gorm:"size:20;not null" json:"direction"`
	BaseInput         bool            `json:"base_input"`
	InputVaultBefore  decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"input_vault_before"`
	OutputVaultBefore decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"output_vault_before"`
	InputAmount       decimal.Decimal `gorm:"type:numeric(20,0);not null" json:"input_amount"`
	OutputAmount      decimal.Decimal `gorm:"type:numeric(20,0);not null" json:"output_amount"`
	InputTransferFee  decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"input_transfer_fee"`
	OutputTransferFee decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"output_transfer_fee"`
	ProtocolFee       decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"protocol_fee"`
	RemainingTokens   decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"remaining_tokens"`
	ReadyToLaunch     bool            `json:"ready_to_launch"`
	Price             decimal.Decimal `gorm:"type:numeric(40,18)" json:"price"`
	CreatedAt         time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (DexSwap) TableName() string {
	return "dex_swap"
}

// DexLaunch records the one-time migration of a pool into the AMM
type DexLaunch struct {
	ID           uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	PoolID       string          `gorm:"size:100;not null;uniqueIndex" json:"pool_id"`
	AmmPoolID    string          `gorm:"size:100;not null" json:"amm_pool_id"`
	LpMint       string          `gorm:"size:100" json:"lp_mint"`
	Admin        string          `gorm:"size:100" json:"admin"`
	Amount0      decimal.Decimal `gorm:"type:numeric(20,0);not null" json:"amount_0"`
	Amount1      decimal.Decimal `gorm:"type:numeric(20,0);not null" json:"amount_1"`
	LaunchFee0   decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"launch_fee_0"`
	LaunchFee1   decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"launch_fee_1"`
	TransferFee0 decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"transfer_fee_0"`
	TransferFee1 decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"transfer_fee_1"`
	FeePayout0   decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"fee_payout_0"`
	FeePayout1   decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"fee_payout_1"`
	LpBurned     decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"lp_burned"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (DexLaunch) TableName() string {
	return "dex_launch"
}

// AmmPool is a destination pool created by a launch
type AmmPool struct {
	PoolID    string          `gorm:"primaryKey;size:100" json:"pool_id"`
	ProgramID string          `gorm:"size:100" json:"program_id"`
	AmmConfig string          `gorm:"size:100" json:"amm_config"`
	Creator   string          `gorm:"size:100" json:"creator"`
	Mint0     string          `gorm:"size:100;not null" json:"mint_0"`
	Mint1     string          `gorm:"size:100;not null" json:"mint_1"`
	Vault0    string          `gorm:"size:100;not null" json:"vault_0"`
	Vault1    string          `gorm:"size:100;not null" json:"vault_1"`
	LpMint    string          `gorm:"size:100;not null" json:"lp_mint"`
	LpSupply  decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"lp_supply"`
	OpenTime  time.Time       `json:"open_time"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (AmmPool) TableName() string {
	return "amm_pool"
}
