package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"curvedex/internal/amm"
	"curvedex/internal/dex"
	"curvedex/internal/ledger"
	"curvedex/internal/models"
)

// Gorm is a Store on a SQL database. The ledger shares each transaction, so
// balances and pool state commit together.
type Gorm struct {
	db     *gorm.DB
	ledger *ledger.Gorm
}

var _ Store = (*Gorm)(nil)

func NewGorm(db *gorm.DB, tokens *ledger.Gorm) *Gorm {
	return &Gorm{db: db, ledger: tokens}
}

func (g *Gorm) Transact(ctx context.Context, fn func(tx Tx) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx, ledger: g.ledger.WithDB(tx)})
	})
}

func (g *Gorm) View(ctx context.Context, fn func(tx Tx) error) error {
	db := g.db.WithContext(ctx)
	return fn(&gormTx{db: db, ledger: g.ledger.WithDB(db), readOnly: true})
}

type gormTx struct {
	db       *gorm.DB
	ledger   *ledger.Gorm
	readOnly bool
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func (t *gormTx) Ledger() Ledger {
	return t.ledger
}

func (t *gormTx) AmmPool(ctx context.Context, id string) (*amm.Pool, error) {
	var row models.AmmPool
	if err := t.db.WithContext(ctx).First(&row, "pool_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", amm.ErrPoolNotFound, id)
		}
		return nil, err
	}
	return ammFromModel(row)
}

func (t *gormTx) SaveAmmPool(ctx context.Context, pool amm.Pool) error {
	row := ammToModel(pool)
	return t.db.WithContext(ctx).Save(&row).Error
}

func (t *gormTx) CreateConfig(ctx context.Context, cfg dex.Config, admin string) (dex.Config, error) {
	if err := cfg.Validate(); err != nil {
		return dex.Config{}, err
	}
	row := configToModel(cfg, admin)
	row.ID = 0
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		return dex.Config{}, err
	}
	cfg.ID = row.ID
	return cfg, nil
}

func (t *gormTx) Config(ctx context.Context, id uint) (dex.Config, error) {
	var row models.DexConfig
	if err := t.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return dex.Config{}, notFound(err, fmt.Sprintf("config %d", id))
	}
	return configFromModel(row)
}

func (t *gormTx) Configs(ctx context.Context) ([]dex.Config, error) {
	var rows []models.DexConfig
	if err := t.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]dex.Config, 0, len(rows))
	for _, row := range rows {
		cfg, err := configFromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

func (t *gormTx) SaveConfig(ctx context.Context, cfg dex.Config) error {
	row := configToModel(cfg, "")
	res := t.db.WithContext(ctx).Model(&models.DexConfig{}).Where("id = ?", cfg.ID).Updates(map[string]interface{}{
		"swap_fee_rate":    row.SwapFeeRate,
		"launch_fee_rate":  row.LaunchFeeRate,
		"initial_reserve":  row.InitialReserve,
		"reserve_bound":    row.ReserveBound,
		"bound_side":       row.BoundSide,
		"bound_comparison": row.BoundComparison,
		"disable_create":   row.DisableCreate,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: config %d", ErrNotFound, cfg.ID)
	}
	return nil
}

func (t *gormTx) CreatePool(ctx context.Context, s dex.State) error {
	row := poolToModel(s)
	res := t.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrPoolExists, s.ID)
	}
	return nil
}

func (t *gormTx) Pool(ctx context.Context, id string) (dex.State, error) {
	query := t.db.WithContext(ctx)
	if !t.readOnly {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row models.DexPool
	if err := query.First(&row, "pool_id = ?", id).Error; err != nil {
		return dex.State{}, notFound(err, "pool "+id)
	}
	return poolFromModel(row)
}

func (t *gormTx) Pools(ctx context.Context, filter PoolFilter) ([]dex.State, error) {
	query := t.db.WithContext(ctx).Model(&models.DexPool{})
	if filter.Phase != nil {
		query = query.Where("phase = ?", filter.Phase.String())
	}
	if filter.ConfigID != 0 {
		query = query.Where("config_id = ?", filter.ConfigID)
	}
	if filter.Mint != "" {
		query = query.Where("mint0 = ? OR mint1 = ?", filter.Mint, filter.Mint)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var rows []models.DexPool
	if err := query.Order("created_at DESC, pool_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]dex.State, 0, len(rows))
	for _, row := range rows {
		s, err := poolFromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (t *gormTx) SavePool(ctx context.Context, s dex.State) error {
	row := poolToModel(s)
	res := t.db.WithContext(ctx).Model(&models.DexPool{}).Where("pool_id = ?", s.ID).Updates(map[string]interface{}{
		"swap_fee0":        row.SwapFee0,
		"swap_fee1":        row.SwapFee1,
		"launch_fee0":      row.LaunchFee0,
		"launch_fee1":      row.LaunchFee1,
		"phase":            row.Phase,
		"reserve_bound":    row.ReserveBound,
		"bound_side":       row.BoundSide,
		"bound_comparison": row.BoundComparison,
		"updated_at":       row.UpdatedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: pool %s", ErrNotFound, s.ID)
	}
	return nil
}

func (t *gormTx) RecordSwap(ctx context.Context, trader string, ev *dex.SwapEvent) error {
	row := swapToModel(trader, ev)
	return t.db.WithContext(ctx).Create(&row).Error
}

func (t *gormTx) Swaps(ctx context.Context, poolID string, limit int) ([]SwapRecord, error) {
	query := t.db.WithContext(ctx).Where("pool_id = ?", poolID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.DexSwap
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]SwapRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := swapFromModel(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (t *gormTx) RecordLaunch(ctx context.Context, lpMint string, ev *dex.LaunchedEvent) error {
	row := launchToModel(lpMint, ev)
	res := t.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: launch of %s", dex.ErrLaunched, ev.PoolID)
	}
	return nil
}

func (t *gormTx) Launch(ctx context.Context, poolID string) (*LaunchRecord, error) {
	var row models.DexLaunch
	if err := t.db.WithContext(ctx).First(&row, "pool_id = ?", poolID).Error; err != nil {
		return nil, notFound(err, "launch of "+poolID)
	}
	return launchFromModel(row)
}
