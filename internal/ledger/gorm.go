package ledger

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"curvedex/internal/dex"
	"curvedex/internal/models"
	"curvedex/pkg/solana"
)

// Gorm keeps balances in the token_account table. Bind it to the
// transaction of the surrounding operation so transfers commit or roll back
// with the pool state.
type Gorm struct {
	db    *gorm.DB
	epoch uint64
}

var _ dex.TokenProgram = (*Gorm)(nil)

func NewGorm(db *gorm.DB, epoch uint64) *Gorm {
	return &Gorm{db: db, epoch: epoch}
}

// WithDB rebinds the ledger to db, typically a transaction.
func (g *Gorm) WithDB(db *gorm.DB) *Gorm {
	return &Gorm{db: db, epoch: g.epoch}
}

// RegisterMint stores or replaces a mint definition.
func (g *Gorm) RegisterMint(ctx context.Context, spec MintSpec) error {
	row := models.MintConfig{
		Address:   spec.Address,
		Program:   spec.Program,
		Decimals:  spec.Decimals,
		Supported: spec.Supported,
	}
	if spec.TransferFee != nil {
		row.OlderEpoch = spec.TransferFee.Older.Epoch
		row.OlderBasisPoints = spec.TransferFee.Older.BasisPoints
		row.OlderMaximumFee = models.Amount(spec.TransferFee.Older.MaximumFee)
		row.NewerEpoch = spec.TransferFee.Newer.Epoch
		row.NewerBasisPoints = spec.TransferFee.Newer.BasisPoints
		row.NewerMaximumFee = models.Amount(spec.TransferFee.Newer.MaximumFee)
	}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"program", "decimals", "supported", "older_epoch", "older_basis_points", "older_maximum_fee", "newer_epoch", "newer_basis_points", "newer_maximum_fee", "updated_at"}),
	}).Create(&row).Error
}

// MintTo credits freshly issued tokens, opening the account if needed.
func (g *Gorm) MintTo(ctx context.Context, account, owner, mint string, amount uint64) error {
	if _, err := g.mint(ctx, mint); err != nil {
		return err
	}
	acc, err := g.open(ctx, account, owner, mint)
	if err != nil {
		return err
	}
	return g.adjust(ctx, acc, amount, true)
}

// Burn destroys amount from account.
func (g *Gorm) Burn(ctx context.Context, account string, amount uint64) error {
	acc, err := g.lock(ctx, account)
	if err != nil {
		return err
	}
	return g.adjust(ctx, acc, amount, false)
}

func (g *Gorm) Balance(ctx context.Context, account string) (uint64, error) {
	acc, err := g.lock(ctx, account)
	if err != nil {
		return 0, err
	}
	return models.Uint64(acc.Amount)
}

func (g *Gorm) Transfer(ctx context.Context, from, to, mint string, amount uint64, decimals uint8) (uint64, error) {
	spec, err := g.mint(ctx, mint)
	if err != nil {
		return 0, err
	}
	if spec.Decimals != decimals {
		return 0, fmt.Errorf("%w: mint %s has %d, got %d", ErrDecimalsMismatch, mint, spec.Decimals, decimals)
	}
	src, err := g.lock(ctx, from)
	if err != nil {
		return 0, err
	}
	if src.Mint != mint {
		return 0, fmt.Errorf("%w: %s holds %s", ErrMintMismatch, from, src.Mint)
	}
	fee, err := spec.fee(g.epoch, amount)
	if err != nil {
		return 0, err
	}
	if err := g.adjust(ctx, src, amount, false); err != nil {
		return 0, err
	}
	dst, err := g.open(ctx, to, "", mint)
	if err != nil {
		return 0, err
	}
	received := amount - fee
	if err := g.adjust(ctx, dst, received, true); err != nil {
		return 0, err
	}
	if fee > 0 {
		err := g.db.WithContext(ctx).Model(&models.MintConfig{}).
			Where("address = ?", mint).
			Update("withheld_amount", gorm.Expr("withheld_amount + ?", models.Amount(fee))).Error
		if err != nil {
			return 0, err
		}
	}
	return received, nil
}

func (g *Gorm) TransferFee(ctx context.Context, mint string, amount uint64) (uint64, error) {
	spec, err := g.mint(ctx, mint)
	if err != nil {
		return 0, err
	}
	return spec.fee(g.epoch, amount)
}

func (g *Gorm) TransferInverseFee(ctx context.Context, mint string, postFeeAmount uint64) (uint64, error) {
	spec, err := g.mint(ctx, mint)
	if err != nil {
		return 0, err
	}
	return spec.inverseFee(g.epoch, postFeeAmount)
}

func (g *Gorm) Mint(ctx context.Context, mint string) (dex.MintInfo, error) {
	spec, err := g.mint(ctx, mint)
	if err != nil {
		return dex.MintInfo{}, err
	}
	return spec.info(), nil
}

// Accounts lists the accounts holding mint, or every account when mint is
// empty.
func (g *Gorm) Accounts(ctx context.Context, mint string) ([]Account, error) {
	var rows []models.TokenAccount
	query := g.db.WithContext(ctx).Where("is_close = ?", false)
	if mint != "" {
		query = query.Where("mint = ?", mint)
	}
	if err := query.Order("account_address").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(rows))
	for _, row := range rows {
		amount, err := models.Uint64(row.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, Account{Address: row.AccountAddress, Mint: row.Mint, Owner: row.OwnerAddress, Amount: amount})
	}
	return out, nil
}

func (g *Gorm) mint(ctx context.Context, address string) (MintSpec, error) {
	var row models.MintConfig
	if err := g.db.WithContext(ctx).First(&row, "address = ?", address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MintSpec{}, fmt.Errorf("%w: %s", ErrUnknownMint, address)
		}
		return MintSpec{}, err
	}
	olderMax, err := models.Uint64(row.OlderMaximumFee)
	if err != nil {
		return MintSpec{}, err
	}
	newerMax, err := models.Uint64(row.NewerMaximumFee)
	if err != nil {
		return MintSpec{}, err
	}
	spec := MintSpec{
		Address:   row.Address,
		Program:   row.Program,
		Decimals:  row.Decimals,
		Supported: row.Supported,
	}
	if row.Program == solana.TOKEN_2022_PROGRAM.String() {
		spec.TransferFee = &solana.TransferFeeConfig{
			Older: solana.TransferFee{Epoch: row.OlderEpoch, MaximumFee: olderMax, BasisPoints: row.OlderBasisPoints},
			Newer: solana.TransferFee{Epoch: row.NewerEpoch, MaximumFee: newerMax, BasisPoints: row.NewerBasisPoints},
		}
	}
	return spec, nil
}

func (g *Gorm) lock(ctx context.Context, address string) (*models.TokenAccount, error) {
	var acc models.TokenAccount
	err := g.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_address = ? AND is_close = ?", address, false).
		First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (g *Gorm) open(ctx context.Context, address, owner, mint string) (*models.TokenAccount, error) {
	acc, err := g.lock(ctx, address)
	if err == nil {
		if acc.Mint != mint {
			return nil, fmt.Errorf("%w: %s holds %s", ErrMintMismatch, address, acc.Mint)
		}
		return acc, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, err
	}
	acc = &models.TokenAccount{
		OwnerAddress:   owner,
		Mint:           mint,
		AccountAddress: address,
		Amount:         models.Amount(0),
	}
	if err := g.db.WithContext(ctx).Create(acc).Error; err != nil {
		return nil, fmt.Errorf("failed to open token account %s: %w", address, err)
	}
	return acc, nil
}

func (g *Gorm) adjust(ctx context.Context, acc *models.TokenAccount, amount uint64, credit bool) error {
	current, err := models.Uint64(acc.Amount)
	if err != nil {
		return err
	}
	var next uint64
	if credit {
		next = current + amount
		if next < current {
			return fmt.Errorf("%w: %s", dex.ErrOverflow, acc.AccountAddress)
		}
	} else {
		if current < amount {
			return fmt.Errorf("%w: %s holds %d, debiting %d", ErrInsufficientFunds, acc.AccountAddress, current, amount)
		}
		next = current - amount
	}
	acc.Amount = models.Amount(next)
	return g.db.WithContext(ctx).Model(acc).Update("amount", acc.Amount).Error
}
