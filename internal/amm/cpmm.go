// Package amm is the in-process constant-product pool launches migrate
// into. Accounts are derived the way the Raydium CPMM program derives them,
// so a pool created here carries the addresses the on-chain pool would have.
package amm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
	log "github.com/sirupsen/logrus"

	"curvedex/internal/dex"
	"curvedex/internal/ledger"
	"curvedex/internal/migration"
	solanautil "curvedex/pkg/solana"
)

// LockedLiquidity is kept out of the creator's LP allocation forever.
const LockedLiquidity uint64 = 100

var (
	ErrPoolExists            = errors.New("amm pool already exists")
	ErrPoolNotFound          = errors.New("amm pool not found")
	ErrInsufficientLiquidity = errors.New("initial liquidity too small")
)

// Pool is a created AMM pool.
type Pool struct {
	ID        string    `json:"pool_id"`
	ProgramID string    `json:"program_id"`
	AmmConfig string    `json:"amm_config"`
	Creator   string    `json:"creator"`
	Mints     [2]string `json:"mints"`
	Vaults    [2]string `json:"vaults"`
	LpMint    string    `json:"lp_mint"`
	LpSupply  uint64    `json:"lp_supply"`
	OpenTime  time.Time `json:"open_time"`
	CreatedAt time.Time `json:"created_at"`
}

// Ledger is the token program the AMM moves value through.
type Ledger interface {
	dex.TokenProgram
	RegisterMint(ctx context.Context, spec ledger.MintSpec) error
	MintTo(ctx context.Context, account, owner, mint string, amount uint64) error
	Burn(ctx context.Context, account string, amount uint64) error
}

// Registry persists AMM pools.
type Registry interface {
	AmmPool(ctx context.Context, id string) (*Pool, error)
	SaveAmmPool(ctx context.Context, pool Pool) error
}

type Options struct {
	ProgramID   solana.PublicKey
	ConfigIndex uint16
	LpDecimals  uint8
}

func DefaultOptions() Options {
	return Options{
		ProgramID:   solanautil.CREATE_CPMM_POOL_PROGRAM,
		ConfigIndex: 0,
		LpDecimals:  9,
	}
}

// CPMM creates pools in a ledger and records them in a registry.
type CPMM struct {
	tokens   Ledger
	registry Registry
	opts     Options
}

var _ migration.AMM = (*CPMM)(nil)

func New(tokens Ledger, registry Registry, opts Options) *CPMM {
	return &CPMM{tokens: tokens, registry: registry, opts: opts}
}

// addresses derives the pool accounts. Mints that are not base58 public keys
// get readable synthetic addresses. flipped reports that the AMM orders the
// pair the other way around.
func (c *CPMM) addresses(mints [2]string) (pool Pool, flipped bool, err error) {
	mintA, errA := solana.PublicKeyFromBase58(mints[0])
	mintB, errB := solana.PublicKeyFromBase58(mints[1])
	if errA != nil || errB != nil {
		id := fmt.Sprintf("cpmm:%s:%s", mints[0], mints[1])
		return Pool{
			ID:        id,
			ProgramID: c.opts.ProgramID.String(),
			Mints:     mints,
			Vaults:    [2]string{id + ":vault:" + mints[0], id + ":vault:" + mints[1]},
			LpMint:    id + ":lp",
		}, false, nil
	}

	addrs, err := solanautil.DeriveCpmmPoolAddresses(c.opts.ProgramID, c.opts.ConfigIndex, mintA, mintB)
	if err != nil {
		return Pool{}, false, err
	}
	return Pool{
		ID:        addrs.PoolID.String(),
		ProgramID: addrs.ProgramID.String(),
		AmmConfig: addrs.AmmConfig.String(),
		Mints:     [2]string{addrs.Token0Mint.String(), addrs.Token1Mint.String()},
		Vaults:    [2]string{addrs.Token0Vault.String(), addrs.Token1Vault.String()},
		LpMint:    addrs.LpMint.String(),
	}, !addrs.Token0Mint.Equals(mintA), nil
}

func lpAccount(owner, lpMint string) string {
	wallet, errW := solana.PublicKeyFromBase58(owner)
	mint, errM := solana.PublicKeyFromBase58(lpMint)
	if errW == nil && errM == nil {
		if ata, _, err := solana.FindAssociatedTokenAddress(wallet, mint); err == nil {
			return ata.String()
		}
	}
	return owner + ":" + lpMint
}

// liquidity is floor(sqrt(a*b)).
func liquidity(a, b uint64) uint64 {
	product := new(uint256.Int).Mul(uint256.NewInt(a), uint256.NewInt(b))
	return new(uint256.Int).Sqrt(product).Uint64()
}

func (c *CPMM) CreatePool(ctx context.Context, req migration.CreatePoolRequest) (*migration.Receipt, error) {
	pool, flipped, err := c.addresses(req.Mints)
	if err != nil {
		return nil, err
	}
	existing, err := c.registry.AmmPool(ctx, pool.ID)
	if err != nil && !errors.Is(err, ErrPoolNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrPoolExists, pool.ID)
	}

	// request side i lands in AMM side slot(i)
	slot := func(i int) int {
		if flipped {
			return 1 - i
		}
		return i
	}
	var reserves [2]uint64
	for i := range req.Mints {
		received, err := c.tokens.Transfer(ctx, req.SourceAccounts[i], pool.Vaults[slot(i)], req.Mints[i], req.Amounts[i], req.Decimals[i])
		if err != nil {
			return nil, fmt.Errorf("deposit %s: %w", req.Mints[i], err)
		}
		reserves[i] = received
	}

	supply := liquidity(reserves[0], reserves[1])
	if supply <= LockedLiquidity {
		return nil, fmt.Errorf("%w: %d", ErrInsufficientLiquidity, supply)
	}
	err = c.tokens.RegisterMint(ctx, ledger.MintSpec{
		Address:   pool.LpMint,
		Program:   solanautil.TOKEN_PROGRAM.String(),
		Decimals:  c.opts.LpDecimals,
		Supported: true,
	})
	if err != nil {
		return nil, fmt.Errorf("register lp mint: %w", err)
	}
	creatorLp := supply - LockedLiquidity
	account := lpAccount(req.Creator, pool.LpMint)
	if err := c.tokens.MintTo(ctx, account, req.Creator, pool.LpMint, creatorLp); err != nil {
		return nil, fmt.Errorf("mint lp: %w", err)
	}

	pool.Creator = req.Creator
	pool.LpSupply = supply
	pool.OpenTime = req.OpenTime
	pool.CreatedAt = req.OpenTime
	if err := c.registry.SaveAmmPool(ctx, pool); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"pool":      pool.ID,
		"reserve_0": reserves[0],
		"reserve_1": reserves[1],
		"lp_supply": supply,
	}).Info("AMM pool created")

	return &migration.Receipt{
		PoolID:    pool.ID,
		LpMint:    pool.LpMint,
		LpAccount: account,
		LpAmount:  creatorLp,
		Vaults:    [2]string{pool.Vaults[slot(0)], pool.Vaults[slot(1)]},
		Reserves:  reserves,
	}, nil
}

func (c *CPMM) Burn(ctx context.Context, receipt *migration.Receipt, amount uint64) error {
	pool, err := c.registry.AmmPool(ctx, receipt.PoolID)
	if err != nil {
		return err
	}
	if amount > pool.LpSupply {
		return fmt.Errorf("%w: burning %d of %d lp", dex.ErrUnderflow, amount, pool.LpSupply)
	}
	if err := c.tokens.Burn(ctx, receipt.LpAccount, amount); err != nil {
		return err
	}
	pool.LpSupply -= amount
	return c.registry.SaveAmmPool(ctx, *pool)
}
