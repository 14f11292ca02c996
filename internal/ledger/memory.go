package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"curvedex/internal/dex"
)

// Memory is an in-process ledger. Clone gives the copy-on-write snapshot the
// memory store runs each transaction against.
type Memory struct {
	mu       sync.RWMutex
	epoch    uint64
	mints    map[string]MintSpec
	accounts map[string]*Account
	withheld map[string]uint64
}

var _ dex.TokenProgram = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		mints:    make(map[string]MintSpec),
		accounts: make(map[string]*Account),
		withheld: make(map[string]uint64),
	}
}

// SetEpoch selects which transfer fee schedule applies.
func (m *Memory) SetEpoch(epoch uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch = epoch
}

// RegisterMint stores or replaces a mint definition.
func (m *Memory) RegisterMint(_ context.Context, spec MintSpec) error {
	if spec.Address == "" {
		return fmt.Errorf("%w: empty address", ErrUnknownMint)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mints[spec.Address] = spec
	return nil
}

// MintTo credits freshly issued tokens, opening the account if needed.
func (m *Memory) MintTo(_ context.Context, account, owner, mint string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, err := m.openLocked(account, owner, mint)
	if err != nil {
		return err
	}
	if acc.Amount+amount < acc.Amount {
		return fmt.Errorf("%w: %s", dex.ErrOverflow, account)
	}
	acc.Amount += amount
	return nil
}

// Burn destroys amount from account.
func (m *Memory) Burn(_ context.Context, account string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[account]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	if acc.Amount < amount {
		return fmt.Errorf("%w: %s holds %d, burning %d", ErrInsufficientFunds, account, acc.Amount, amount)
	}
	acc.Amount -= amount
	return nil
}

func (m *Memory) Balance(_ context.Context, account string) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[account]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	return acc.Amount, nil
}

func (m *Memory) Transfer(_ context.Context, from, to, mint string, amount uint64, decimals uint8) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	spec, ok := m.mints[mint]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownMint, mint)
	}
	if spec.Decimals != decimals {
		return 0, fmt.Errorf("%w: mint %s has %d, got %d", ErrDecimalsMismatch, mint, spec.Decimals, decimals)
	}
	src, ok := m.accounts[from]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, from)
	}
	if src.Mint != mint {
		return 0, fmt.Errorf("%w: %s holds %s", ErrMintMismatch, from, src.Mint)
	}
	if src.Amount < amount {
		return 0, fmt.Errorf("%w: %s holds %d, sending %d", ErrInsufficientFunds, from, src.Amount, amount)
	}
	fee, err := spec.fee(m.epoch, amount)
	if err != nil {
		return 0, err
	}
	dst, err := m.openLocked(to, "", mint)
	if err != nil {
		return 0, err
	}

	received := amount - fee
	if dst.Amount+received < dst.Amount {
		return 0, fmt.Errorf("%w: %s", dex.ErrOverflow, to)
	}
	src.Amount -= amount
	dst.Amount += received
	m.withheld[mint] += fee
	return received, nil
}

func (m *Memory) TransferFee(_ context.Context, mint string, amount uint64) (uint64, error) {
	spec, epoch, err := m.spec(mint)
	if err != nil {
		return 0, err
	}
	return spec.fee(epoch, amount)
}

func (m *Memory) TransferInverseFee(_ context.Context, mint string, postFeeAmount uint64) (uint64, error) {
	spec, epoch, err := m.spec(mint)
	if err != nil {
		return 0, err
	}
	return spec.inverseFee(epoch, postFeeAmount)
}

func (m *Memory) Mint(_ context.Context, mint string) (dex.MintInfo, error) {
	spec, _, err := m.spec(mint)
	if err != nil {
		return dex.MintInfo{}, err
	}
	return spec.info(), nil
}

// Withheld returns the transfer fees collected for a mint.
func (m *Memory) Withheld(mint string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.withheld[mint]
}

// Accounts lists the accounts holding mint, or every account when mint is
// empty, sorted by address.
func (m *Memory) Accounts(_ context.Context, mint string) ([]Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		if mint == "" || acc.Mint == mint {
			out = append(out, *acc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

// Clone returns an independent deep copy.
func (m *Memory) Clone() *Memory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := NewMemory()
	c.epoch = m.epoch
	for k, v := range m.mints {
		c.mints[k] = v
	}
	for k, v := range m.accounts {
		acc := *v
		c.accounts[k] = &acc
	}
	for k, v := range m.withheld {
		c.withheld[k] = v
	}
	return c
}

func (m *Memory) spec(mint string) (MintSpec, uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.mints[mint]
	if !ok {
		return MintSpec{}, 0, fmt.Errorf("%w: %s", ErrUnknownMint, mint)
	}
	return spec, m.epoch, nil
}

func (m *Memory) openLocked(account, owner, mint string) (*Account, error) {
	if _, ok := m.mints[mint]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMint, mint)
	}
	acc, ok := m.accounts[account]
	if !ok {
		acc = &Account{Address: account, Mint: mint, Owner: owner}
		m.accounts[account] = acc
		return acc, nil
	}
	if acc.Mint != mint {
		return nil, fmt.Errorf("%w: %s holds %s", ErrMintMismatch, account, acc.Mint)
	}
	return acc, nil
}
