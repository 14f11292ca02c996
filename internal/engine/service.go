// Package engine runs pool operations inside store transactions and
// publishes their events once committed.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"

	"curvedex/internal/amm"
	"curvedex/internal/dex"
	"curvedex/internal/ledger"
	"curvedex/internal/metrics"
	"curvedex/internal/migration"
	"curvedex/internal/notify"
	"curvedex/internal/store"
	solanautil "curvedex/pkg/solana"
)

// ConfigSource gives read access to the config snapshots pools run with.
type ConfigSource interface {
	Config(ctx context.Context, id uint) (dex.Config, error)
}

type Options struct {
	DexProgram solana.PublicKey
	AMM        amm.Options
	// FeeRecipients receive the protocol's cut when a launch request names none.
	FeeRecipients [2]string
	Now           func() time.Time
}

func DefaultOptions() Options {
	return Options{
		DexProgram: solanautil.DEX_PROGRAM,
		AMM:        amm.DefaultOptions(),
		Now:        func() time.Time { return time.Now().UTC() },
	}
}

type Service struct {
	store    store.Store
	notifier notify.Notifier
	metrics  *metrics.Metrics
	opts     Options
}

// New builds a service. notifier and m may be nil.
func New(s store.Store, notifier notify.Notifier, m *metrics.Metrics, opts Options) *Service {
	if notifier == nil {
		notifier = notify.Fanout{}
	}
	if opts.Now == nil {
		opts.Now = DefaultOptions().Now
	}
	return &Service{store: s, notifier: notifier, metrics: m, opts: opts}
}

// run executes fn in a transaction, then observes and publishes the events
// it produced.
func (s *Service) run(ctx context.Context, operation string, fn func(tx store.Tx) ([]dex.Event, error)) error {
	start := time.Now()
	var events []dex.Event
	err := s.store.Transact(ctx, func(tx store.Tx) error {
		var err error
		events, err = fn(tx)
		return err
	})
	if s.metrics != nil {
		s.metrics.Observe(operation, start, err)
	}
	if err != nil {
		log.WithFields(log.Fields{
			"operation": operation,
			"kind":      dex.Kind(err).String(),
		}).WithError(err).Warn("operation rejected")
		return err
	}
	for _, ev := range events {
		if s.metrics != nil {
			s.metrics.Event(ev)
		}
		s.notifier.Notify(ctx, ev)
	}
	return nil
}

func configFor(ctx context.Context, src ConfigSource, pool dex.State) (dex.Config, error) {
	cfg, err := src.Config(ctx, pool.ConfigID)
	if err != nil {
		return dex.Config{}, fmt.Errorf("config of pool %s: %w", pool.ID, err)
	}
	return cfg, nil
}

// CreateConfig stores a new fee and threshold template.
func (s *Service) CreateConfig(ctx context.Context, admin string, cfg dex.Config) (dex.Config, error) {
	var created dex.Config
	err := s.run(ctx, "create_config", func(tx store.Tx) ([]dex.Event, error) {
		var err error
		created, err = tx.CreateConfig(ctx, cfg, admin)
		return nil, err
	})
	return created, err
}

// UpdateConfig changes one field of a config. Existing pools keep the
// reserve bound they were created with.
func (s *Service) UpdateConfig(ctx context.Context, admin string, id uint, field dex.ConfigUpdate, value uint64) (dex.Config, error) {
	var updated dex.Config
	err := s.run(ctx, "update_config", func(tx store.Tx) ([]dex.Event, error) {
		cfg, err := tx.Config(ctx, id)
		if err != nil {
			return nil, err
		}
		next, old, err := cfg.Apply(field, value)
		if err != nil {
			return nil, err
		}
		if err := tx.SaveConfig(ctx, next); err != nil {
			return nil, err
		}
		updated = next
		return []dex.Event{&dex.ConfigUpdatedEvent{
			ConfigID: id,
			Admin:    admin,
			Field:    field.String(),
			OldValue: old,
			NewValue: value,
		}}, nil
	})
	return updated, err
}

func (s *Service) Config(ctx context.Context, id uint) (dex.Config, error) {
	var cfg dex.Config
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		cfg, err = tx.Config(ctx, id)
		return err
	})
	return cfg, err
}

func (s *Service) Configs(ctx context.Context) ([]dex.Config, error) {
	var cfgs []dex.Config
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		cfgs, err = tx.Configs(ctx)
		return err
	})
	return cfgs, err
}

// RegisterMint adds or refreshes a mint in the ledger.
func (s *Service) RegisterMint(ctx context.Context, spec ledger.MintSpec) error {
	if spec.Address == "" {
		return fmt.Errorf("%w: mint address is required", dex.ErrInvalidInput)
	}
	return s.run(ctx, "register_mint", func(tx store.Tx) ([]dex.Event, error) {
		return nil, tx.Ledger().RegisterMint(ctx, spec)
	})
}

// MintTo issues tokens of a registered mint into account.
func (s *Service) MintTo(ctx context.Context, account, owner, mint string, amount uint64) error {
	if account == "" || amount == 0 {
		return fmt.Errorf("%w: account and a positive amount are required", dex.ErrInvalidInput)
	}
	return s.run(ctx, "mint_to", func(tx store.Tx) ([]dex.Event, error) {
		return nil, tx.Ledger().MintTo(ctx, account, owner, mint, amount)
	})
}

// Balance reads one token account.
func (s *Service) Balance(ctx context.Context, account string) (uint64, error) {
	var bal uint64
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		bal, err = tx.Ledger().Balance(ctx, account)
		return err
	})
	return bal, err
}

// Accounts lists the ledger accounts of a mint, or all of them.
func (s *Service) Accounts(ctx context.Context, mint string) ([]ledger.Account, error) {
	var out []ledger.Account
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.Ledger().Accounts(ctx, mint)
		return err
	})
	return out, err
}

// poolAddresses orders the mints and derives the pool and vault addresses.
// Mints that are not base58 keys get readable synthetic addresses.
func (s *Service) poolAddresses(mintA, mintB string) (id string, mints, vaults [2]string, flipped bool, err error) {
	if mintA == mintB {
		return "", mints, vaults, false, fmt.Errorf("%w: mints must differ", dex.ErrInvalidInput)
	}
	keyA, errA := solana.PublicKeyFromBase58(mintA)
	keyB, errB := solana.PublicKeyFromBase58(mintB)
	if errA != nil || errB != nil {
		flipped = strings.Compare(mintA, mintB) > 0
		mints = [2]string{mintA, mintB}
		if flipped {
			mints = [2]string{mintB, mintA}
		}
		id = fmt.Sprintf("dex:%s:%s", mints[0], mints[1])
		return id, mints, [2]string{id + ":vault:" + mints[0], id + ":vault:" + mints[1]}, flipped, nil
	}

	addrs, err := solanautil.DeriveDexAddresses(s.opts.DexProgram, keyA, keyB)
	if err != nil {
		return "", mints, vaults, false, err
	}
	return addrs.State.String(),
		[2]string{addrs.Token0Mint.String(), addrs.Token1Mint.String()},
		[2]string{addrs.Vault0.String(), addrs.Vault1.String()},
		!addrs.Token0Mint.Equals(keyA),
		nil
}

// CreatePoolRequest opens a pool. Accounts and amounts follow Mints, in any
// order; the pool sorts the pair.
type CreatePoolRequest struct {
	ConfigID        uint
	Creator         string
	Mints           [2]string
	CreatorAccounts [2]string
	InitAmounts     [2]uint64
	OpenTime        time.Time
}

func (s *Service) CreatePool(ctx context.Context, req CreatePoolRequest) (dex.State, error) {
	id, mints, vaults, flipped, err := s.poolAddresses(req.Mints[0], req.Mints[1])
	if err != nil {
		return dex.State{}, err
	}
	accounts, amounts := req.CreatorAccounts, req.InitAmounts
	if flipped {
		accounts = [2]string{accounts[1], accounts[0]}
		amounts = [2]uint64{amounts[1], amounts[0]}
	}

	var created dex.State
	err = s.run(ctx, "create_pool", func(tx store.Tx) ([]dex.Event, error) {
		cfg, err := tx.Config(ctx, req.ConfigID)
		if err != nil {
			return nil, err
		}
		state, ev, err := dex.Initialize(ctx, cfg, tx.Ledger(), dex.InitRequest{
			ID:              id,
			Creator:         req.Creator,
			Mints:           mints,
			Vaults:          vaults,
			CreatorAccounts: accounts,
			InitAmounts:     amounts,
			OpenTime:        req.OpenTime,
			Now:             s.opts.Now(),
		})
		if err != nil {
			return nil, err
		}
		if err := tx.CreatePool(ctx, state); err != nil {
			return nil, err
		}
		created = state
		return []dex.Event{ev}, nil
	})
	return created, err
}

// PoolView is a pool with its live balances.
type PoolView struct {
	dex.State
	Balances  [2]uint64 `json:"balances"`
	Reserves  [2]uint64 `json:"reserves"`
	Remaining uint64    `json:"remaining_to_bound"`
	Price     dex.Price `json:"price"`
}

func view(ctx context.Context, tokens dex.TokenProgram, st dex.State) (*PoolView, error) {
	balances, err := st.Balances(ctx, tokens)
	if err != nil {
		return nil, err
	}
	reserves, err := st.Reserves(balances)
	if err != nil {
		return nil, err
	}
	return &PoolView{
		State:     st,
		Balances:  balances,
		Reserves:  reserves,
		Remaining: st.Bound.Remaining(balances[st.Bound.Side]),
		Price:     dex.NewPrice(reserves, st.Vaults),
	}, nil
}

func (s *Service) Pool(ctx context.Context, id string) (*PoolView, error) {
	var out *PoolView
	err := s.store.View(ctx, func(tx store.Tx) error {
		st, err := tx.Pool(ctx, id)
		if err != nil {
			return err
		}
		out, err = view(ctx, tx.Ledger(), st)
		return err
	})
	return out, err
}

func (s *Service) Pools(ctx context.Context, filter store.PoolFilter) ([]dex.State, error) {
	var out []dex.State
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.Pools(ctx, filter)
		return err
	})
	return out, err
}

// ReadyPools lists pools waiting for launch.
func (s *Service) ReadyPools(ctx context.Context, limit int) ([]dex.State, error) {
	phase := dex.PhaseReadyToLaunch
	return s.Pools(ctx, store.PoolFilter{Phase: &phase, Limit: limit})
}

func (s *Service) Swaps(ctx context.Context, poolID string, limit int) ([]store.SwapRecord, error) {
	var out []store.SwapRecord
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		out, err = tx.Swaps(ctx, poolID, limit)
		return err
	})
	return out, err
}

// Quote prices a trade without moving value.
func (s *Service) Quote(ctx context.Context, poolID string, req dex.SwapRequest) (*dex.Quote, error) {
	var q *dex.Quote
	err := s.store.View(ctx, func(tx store.Tx) error {
		st, err := tx.Pool(ctx, poolID)
		if err != nil {
			return err
		}
		cfg, err := configFor(ctx, tx, st)
		if err != nil {
			return err
		}
		q, err = st.Quote(ctx, cfg, tx.Ledger(), req)
		return err
	})
	return q, err
}

// Swap executes a trade. The swap that crosses the reserve bound also
// publishes a ReadyToLaunchEvent.
func (s *Service) Swap(ctx context.Context, poolID, trader string, req dex.SwapRequest) (*dex.SwapEvent, error) {
	if req.Now.IsZero() {
		req.Now = s.opts.Now()
	}
	var out *dex.SwapEvent
	err := s.run(ctx, "swap", func(tx store.Tx) ([]dex.Event, error) {
		st, err := tx.Pool(ctx, poolID)
		if err != nil {
			return nil, err
		}
		cfg, err := configFor(ctx, tx, st)
		if err != nil {
			return nil, err
		}
		next, ev, err := st.ExecuteSwap(ctx, cfg, tx.Ledger(), req)
		if err != nil {
			return nil, err
		}
		if err := tx.SavePool(ctx, next); err != nil {
			return nil, err
		}
		if err := tx.RecordSwap(ctx, trader, ev); err != nil {
			return nil, err
		}
		out = ev
		events := []dex.Event{ev}
		if ev.ReadyToLaunch {
			events = append(events, &dex.ReadyToLaunchEvent{PoolID: poolID, Timestamp: req.Now})
		}
		return events, nil
	})
	return out, err
}

func (s *Service) coordinator(tx store.Tx) *migration.Coordinator {
	return migration.NewCoordinator(tx.Ledger(), amm.New(tx.Ledger(), tx, s.opts.AMM))
}

// LaunchPlan previews how a launch would split the vaults.
func (s *Service) LaunchPlan(ctx context.Context, poolID string) (*migration.Plan, error) {
	var plan *migration.Plan
	err := s.store.View(ctx, func(tx store.Tx) error {
		st, err := tx.Pool(ctx, poolID)
		if err != nil {
			return err
		}
		cfg, err := configFor(ctx, tx, st)
		if err != nil {
			return err
		}
		plan, err = s.coordinator(tx).Plan(ctx, st, cfg)
		return err
	})
	return plan, err
}

// Launch migrates a ready pool into the AMM.
func (s *Service) Launch(ctx context.Context, poolID string, req migration.LaunchRequest) (*dex.LaunchedEvent, error) {
	if req.Now.IsZero() {
		req.Now = s.opts.Now()
	}
	for i := range req.FeeRecipients {
		if req.FeeRecipients[i] == "" {
			req.FeeRecipients[i] = s.opts.FeeRecipients[i]
		}
	}
	var out *dex.LaunchedEvent
	err := s.run(ctx, "launch", func(tx store.Tx) ([]dex.Event, error) {
		st, err := tx.Pool(ctx, poolID)
		if err != nil {
			return nil, err
		}
		cfg, err := configFor(ctx, tx, st)
		if err != nil {
			return nil, err
		}
		next, ev, err := s.coordinator(tx).Launch(ctx, st, cfg, req)
		if err != nil {
			return nil, err
		}
		receipt, err := tx.AmmPool(ctx, ev.AmmPoolID)
		if err != nil {
			return nil, err
		}
		if err := tx.SavePool(ctx, next); err != nil {
			return nil, err
		}
		if err := tx.RecordLaunch(ctx, receipt.LpMint, ev); err != nil {
			return nil, err
		}
		out = ev
		return []dex.Event{ev}, nil
	})
	return out, err
}

// LaunchRecord returns the launch of a pool.
func (s *Service) LaunchRecord(ctx context.Context, poolID string) (*store.LaunchRecord, error) {
	var rec *store.LaunchRecord
	err := s.store.View(ctx, func(tx store.Tx) error {
		var err error
		rec, err = tx.Launch(ctx, poolID)
		return err
	})
	return rec, err
}

// WithdrawFees pays out up to requested of what the protocol is owed on a
// pool. Pass dex.WithdrawAll to take everything.
func (s *Service) WithdrawFees(ctx context.Context, poolID string, recipients [2]string, requested [2]uint64) (*dex.FeesWithdrawnEvent, error) {
	for i := range recipients {
		if recipients[i] == "" {
			recipients[i] = s.opts.FeeRecipients[i]
		}
	}
	var out *dex.FeesWithdrawnEvent
	err := s.run(ctx, "withdraw_fees", func(tx store.Tx) ([]dex.Event, error) {
		st, err := tx.Pool(ctx, poolID)
		if err != nil {
			return nil, err
		}
		next, ev, err := st.WithdrawFees(ctx, tx.Ledger(), recipients, requested, s.opts.Now())
		if err != nil {
			return nil, err
		}
		if err := tx.SavePool(ctx, next); err != nil {
			return nil, err
		}
		out = ev
		return []dex.Event{ev}, nil
	})
	return out, err
}

// UpdateReserveBound moves the launch threshold of a trading pool.
func (s *Service) UpdateReserveBound(ctx context.Context, poolID string, bound dex.ReserveBound) (dex.State, error) {
	var out dex.State
	err := s.run(ctx, "update_reserve_bound", func(tx store.Tx) ([]dex.Event, error) {
		st, err := tx.Pool(ctx, poolID)
		if err != nil {
			return nil, err
		}
		next, err := st.WithReserveBound(bound, s.opts.Now())
		if err != nil {
			return nil, err
		}
		if err := tx.SavePool(ctx, next); err != nil {
			return nil, err
		}
		out = next
		return []dex.Event{&dex.ReserveBoundUpdatedEvent{PoolID: poolID, Old: st.Bound, New: bound}}, nil
	})
	return out, err
}
