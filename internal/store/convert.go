package store

import (
	"github.com/shopspring/decimal"

	"curvedex/internal/amm"
	"curvedex/internal/dex"
	"curvedex/internal/models"
	"curvedex/pkg/curve"
)

// amounts reads numeric columns and keeps the first conversion error.
type amounts struct {
	err error
}

func (a *amounts) read(d decimal.Decimal) uint64 {
	if a.err != nil {
		return 0
	}
	v, err := models.Uint64(d)
	if err != nil {
		a.err = err
	}
	return v
}

func configToModel(cfg dex.Config, admin string) models.DexConfig {
	return models.DexConfig{
		ID:              cfg.ID,
		Admin:           admin,
		SwapFeeRate:     cfg.SwapFeeRate,
		LaunchFeeRate:   cfg.LaunchFeeRate,
		InitialReserve:  models.Amount(cfg.InitialReserve),
		ReserveBound:    models.Amount(cfg.ReserveBound.Amount),
		BoundSide:       uint8(cfg.ReserveBound.Side),
		BoundComparison: cfg.ReserveBound.Comparison.String(),
		DisableCreate:   cfg.DisableCreate,
	}
}

func configFromModel(row models.DexConfig) (dex.Config, error) {
	cmp, err := dex.ParseComparison(row.BoundComparison)
	if err != nil {
		return dex.Config{}, err
	}
	var a amounts
	cfg := dex.Config{
		ID:             row.ID,
		SwapFeeRate:    row.SwapFeeRate,
		LaunchFeeRate:  row.LaunchFeeRate,
		InitialReserve: a.read(row.InitialReserve),
		ReserveBound: dex.ReserveBound{
			Amount:     a.read(row.ReserveBound),
			Side:       dex.Side(row.BoundSide),
			Comparison: cmp,
		},
		DisableCreate: row.DisableCreate,
	}
	return cfg, a.err
}

func poolToModel(s dex.State) models.DexPool {
	return models.DexPool{
		PoolID:          s.ID,
		ConfigID:        s.ConfigID,
		Creator:         s.Creator,
		Mint0:           s.Vaults[0].Mint,
		Mint1:           s.Vaults[1].Mint,
		Decimals0:       s.Vaults[0].Decimals,
		Decimals1:       s.Vaults[1].Decimals,
		Vault0:          s.Vaults[0].Account,
		Vault1:          s.Vaults[1].Account,
		SwapFee0:        models.Amount(s.SwapFees[0]),
		SwapFee1:        models.Amount(s.SwapFees[1]),
		LaunchFee0:      models.Amount(s.LaunchFees[0]),
		LaunchFee1:      models.Amount(s.LaunchFees[1]),
		Phase:           s.Phase.String(),
		ReserveBound:    models.Amount(s.Bound.Amount),
		BoundSide:       uint8(s.Bound.Side),
		BoundComparison: s.Bound.Comparison.String(),
		OpenTime:        s.OpenTime,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func poolFromModel(row models.DexPool) (dex.State, error) {
	phase, err := dex.ParsePhase(row.Phase)
	if err != nil {
		return dex.State{}, err
	}
	cmp, err := dex.ParseComparison(row.BoundComparison)
	if err != nil {
		return dex.State{}, err
	}
	var a amounts
	s := dex.State{
		ID:       row.PoolID,
		ConfigID: row.ConfigID,
		Creator:  row.Creator,
		Vaults: [2]dex.Vault{
			{Mint: row.Mint0, Decimals: row.Decimals0, Account: row.Vault0},
			{Mint: row.Mint1, Decimals: row.Decimals1, Account: row.Vault1},
		},
		SwapFees:   [2]uint64{a.read(row.SwapFee0), a.read(row.SwapFee1)},
		LaunchFees: [2]uint64{a.read(row.LaunchFee0), a.read(row.LaunchFee1)},
		Phase:      phase,
		Bound: dex.ReserveBound{
			Amount:     a.read(row.ReserveBound),
			Side:       dex.Side(row.BoundSide),
			Comparison: cmp,
		},
		OpenTime:  row.OpenTime,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	return s, a.err
}

func swapToModel(trader string, ev *dex.SwapEvent) models.DexSwap {
	return models.DexSwap{
		PoolID:            ev.PoolID,
		Trader:            trader,
		Direction:         ev.Direction.String(),
		BaseInput:         ev.BaseInput,
		InputVaultBefore:  models.Amount(ev.InputVaultBefore),
		OutputVaultBefore: models.Amount(ev.OutputVaultBefore),
		InputAmount:       models.Amount(ev.InputAmount),
		OutputAmount:      models.Amount(ev.OutputAmount),
		InputTransferFee:  models.Amount(ev.InputTransferFee),
		OutputTransferFee: models.Amount(ev.OutputTransferFee),
		ProtocolFee:       models.Amount(ev.ProtocolFee),
		RemainingTokens:   models.Amount(ev.RemainingTokens),
		ReadyToLaunch:     ev.ReadyToLaunch,
		Price:             ev.Price.Token1PerToken0,
		CreatedAt:         ev.Timestamp,
	}
}

func swapFromModel(row models.DexSwap) (SwapRecord, error) {
	direction, err := curve.ParseTradeDirection(row.Direction)
	if err != nil {
		return SwapRecord{}, err
	}
	var a amounts
	rec := SwapRecord{
		ID:     row.ID,
		Trader: row.Trader,
		SwapEvent: dex.SwapEvent{
			PoolID:            row.PoolID,
			Direction:         direction,
			BaseInput:         row.BaseInput,
			InputVaultBefore:  a.read(row.InputVaultBefore),
			OutputVaultBefore: a.read(row.OutputVaultBefore),
			InputAmount:       a.read(row.InputAmount),
			OutputAmount:      a.read(row.OutputAmount),
			InputTransferFee:  a.read(row.InputTransferFee),
			OutputTransferFee: a.read(row.OutputTransferFee),
			ProtocolFee:       a.read(row.ProtocolFee),
			RemainingTokens:   a.read(row.RemainingTokens),
			ReadyToLaunch:     row.ReadyToLaunch,
			Price:             dex.Price{Token1PerToken0: row.Price},
			Timestamp:         row.CreatedAt,
		},
	}
	return rec, a.err
}

func launchToModel(lpMint string, ev *dex.LaunchedEvent) models.DexLaunch {
	return models.DexLaunch{
		PoolID:       ev.PoolID,
		AmmPoolID:    ev.AmmPoolID,
		LpMint:       lpMint,
		Admin:        ev.Admin,
		Amount0:      models.Amount(ev.Amounts[0]),
		Amount1:      models.Amount(ev.Amounts[1]),
		LaunchFee0:   models.Amount(ev.LaunchFees[0]),
		LaunchFee1:   models.Amount(ev.LaunchFees[1]),
		TransferFee0: models.Amount(ev.TransferFees[0]),
		TransferFee1: models.Amount(ev.TransferFees[1]),
		FeePayout0:   models.Amount(ev.FeePayouts[0]),
		FeePayout1:   models.Amount(ev.FeePayouts[1]),
		LpBurned:     models.Amount(ev.LpBurned),
		CreatedAt:    ev.Timestamp,
	}
}

func launchFromModel(row models.DexLaunch) (*LaunchRecord, error) {
	var a amounts
	rec := &LaunchRecord{
		LpMint: row.LpMint,
		LaunchedEvent: dex.LaunchedEvent{
			PoolID:       row.PoolID,
			AmmPoolID:    row.AmmPoolID,
			Admin:        row.Admin,
			Amounts:      [2]uint64{a.read(row.Amount0), a.read(row.Amount1)},
			LaunchFees:   [2]uint64{a.read(row.LaunchFee0), a.read(row.LaunchFee1)},
			TransferFees: [2]uint64{a.read(row.TransferFee0), a.read(row.TransferFee1)},
			FeePayouts:   [2]uint64{a.read(row.FeePayout0), a.read(row.FeePayout1)},
			LpBurned:     a.read(row.LpBurned),
			Timestamp:    row.CreatedAt,
		},
	}
	return rec, a.err
}

func ammToModel(p amm.Pool) models.AmmPool {
	return models.AmmPool{
		PoolID:    p.ID,
		ProgramID: p.ProgramID,
		AmmConfig: p.AmmConfig,
		Creator:   p.Creator,
		Mint0:     p.Mints[0],
		Mint1:     p.Mints[1],
		Vault0:    p.Vaults[0],
		Vault1:    p.Vaults[1],
		LpMint:    p.LpMint,
		LpSupply:  models.Amount(p.LpSupply),
		OpenTime:  p.OpenTime,
		CreatedAt: p.CreatedAt,
	}
}

func ammFromModel(row models.AmmPool) (*amm.Pool, error) {
	supply, err := models.Uint64(row.LpSupply)
	if err != nil {
		return nil, err
	}
	return &amm.Pool{
		ID:        row.PoolID,
		ProgramID: row.ProgramID,
		AmmConfig: row.AmmConfig,
		Creator:   row.Creator,
		Mints:     [2]string{row.Mint0, row.Mint1},
		Vaults:    [2]string{row.Vault0, row.Vault1},
		LpMint:    row.LpMint,
		LpSupply:  supply,
		OpenTime:  row.OpenTime,
		CreatedAt: row.CreatedAt,
	}, nil
}
