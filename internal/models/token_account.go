package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenAccount is one balance of the internal token ledger
type TokenAccount struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerAddress   string          `gorm:"size:100;not null;default:''" json:"owner_address"`
	Mint           string          `gorm:"size:100;not null;index" json:"mint"`
	AccountAddress string          `gorm:"size:100;uniqueIndex;not null" json:"account_address"`
	Amount         decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"amount"`
	IsClose        bool            `gorm:"default:false" json:"is_close"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TokenAccount) TableName() string {
	return "token_account"
}

// MintConfig is a mint known to the ledger, with its Token-2022 transfer fee schedule
type MintConfig struct {
	Address          string          `gorm:"primaryKey;size:100" json:"address"`
	Program          string          `gorm:"size:100;not null" json:"program"`
	Decimals         uint8           `gorm:"not null" json:"decimals"`
	Supported        bool            `gorm:"not null" json:"supported"`
	OlderEpoch       uint64          `json:"older_epoch"`
	OlderBasisPoints uint16          `json:"older_basis_points"`
	OlderMaximumFee  decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"older_maximum_fee"`
	NewerEpoch       uint64          `json:"newer_epoch"`
	NewerBasisPoints uint16          `json:"newer_basis_points"`
	NewerMaximumFee  decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"newer_maximum_fee"`
	WithheldAmount   decimal.Decimal `gorm:"type:numeric(20,0);not null;default:0" json:"withheld_amount"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MintConfig) TableName() string {
	return "mint_config"
}
