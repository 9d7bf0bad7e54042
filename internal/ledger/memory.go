package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"liquidityPool/internal/model"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrZeroAddress           = errors.New("zero address")
	ErrOverflow              = errors.New("balance overflow")
)

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

type assetBook struct {
	balances   map[common.Address]*uint256.Int
	allowances map[allowanceKey]*uint256.Int
}

func newAssetBook() *assetBook {
	return &assetBook{
		balances:   make(map[common.Address]*uint256.Int),
		allowances: make(map[allowanceKey]*uint256.Int),
	}
}

// Memory is an in-process fungible balance ledger holding any number of assets.
// It is safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	books map[common.Address]*assetBook
}

// NewMemory returns an empty ledger.
func NewMemory() *Memory {
	return &Memory{books: make(map[common.Address]*assetBook)}
}

func (m *Memory) book(asset common.Address) *assetBook {
	b, ok := m.books[asset]
	if !ok {
		b = newAssetBook()
		m.books[asset] = b
	}
	return b
}

// Mint credits amount of asset to account out of thin air.
func (m *Memory) Mint(asset, account common.Address, amount *uint256.Int) error {
	if asset == (common.Address{}) || account == (common.Address{}) {
		return ErrZeroAddress
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.book(asset)
	next, overflow := new(uint256.Int).AddOverflow(balanceOf(b, account), amount)
	if overflow {
		return fmt.Errorf("%w: mint %s to %s", ErrOverflow, amount, account.Hex())
	}
	setOrDelete(b.balances, account, next)
	return nil
}

// Approve sets the amount spender may pull from owner. It replaces any previous allowance.
func (m *Memory) Approve(asset, owner, spender common.Address, amount *uint256.Int) error {
	if asset == (common.Address{}) || owner == (common.Address{}) || spender == (common.Address{}) {
		return ErrZeroAddress
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.book(asset)
	key := allowanceKey{owner: owner, spender: spender}
	if amount == nil || amount.IsZero() {
		delete(b.allowances, key)
		return nil
	}
	b.allowances[key] = new(uint256.Int).Set(amount)
	return nil
}

// BalanceOf returns a copy of account's balance of asset.
func (m *Memory) BalanceOf(asset, account common.Address) *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[asset]
	if !ok {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(balanceOf(b, account))
}

// Allowance returns a copy of what spender may still pull from owner.
func (m *Memory) Allowance(asset, owner, spender common.Address) *uint256.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[asset]
	if !ok {
		return new(uint256.Int)
	}
	if v, ok := b.allowances[allowanceKey{owner: owner, spender: spender}]; ok {
		return new(uint256.Int).Set(v)
	}
	return new(uint256.Int)
}

// Pull moves amount of asset from `from` to `to`, spending the allowance
// `from` granted to `to`.
func (m *Memory) Pull(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error {
	return m.transfer(ctx, asset, from, to, amount, true)
}

// Push moves amount of asset from `from` to `to` without an allowance check.
func (m *Memory) Push(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error {
	return m.transfer(ctx, asset, from, to, amount, false)
}

func (m *Memory) transfer(ctx context.Context, asset, from, to common.Address, amount *uint256.Int, spendAllowance bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if asset == (common.Address{}) || from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount == nil {
		amount = new(uint256.Int)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.book(asset)
	fromBalance := balanceOf(b, from)
	if fromBalance.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientBalance, from.Hex(), fromBalance, asset.Hex(), amount)
	}

	key := allowanceKey{owner: from, spender: to}
	var remaining *uint256.Int
	if spendAllowance {
		allowed := b.allowances[key]
		if allowed == nil {
			allowed = new(uint256.Int)
		}
		if allowed.Lt(amount) {
			return fmt.Errorf("%w: %s allows %s %s of %s, needs %s", ErrInsufficientAllowance, from.Hex(), to.Hex(), allowed, asset.Hex(), amount)
		}
		remaining = new(uint256.Int).Sub(allowed, amount)
	}

	if from == to {
		if spendAllowance {
			setOrDelete(b.allowances, key, remaining)
		}
		return nil
	}

	toBalance, overflow := new(uint256.Int).AddOverflow(balanceOf(b, to), amount)
	if overflow {
		return fmt.Errorf("%w: credit %s to %s", ErrOverflow, amount, to.Hex())
	}

	setOrDelete(b.balances, from, new(uint256.Int).Sub(fromBalance, amount))
	setOrDelete(b.balances, to, toBalance)
	if spendAllowance {
		setOrDelete(b.allowances, key, remaining)
	}
	return nil
}

// RefundPull undoes a completed Pull(asset, from, to, amount): the amount moves
// from `to` back to `from` and the allowance `from` granted to `to` grows by it
// again.
func (m *Memory) RefundPull(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if asset == (common.Address{}) || from == (common.Address{}) || to == (common.Address{}) {
		return ErrZeroAddress
	}
	if amount == nil {
		amount = new(uint256.Int)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	b := m.book(asset)
	key := allowanceKey{owner: from, spender: to}
	var current *uint256.Int
	if v, ok := b.allowances[key]; ok {
		current = v
	} else {
		current = new(uint256.Int)
	}
	allowed, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return fmt.Errorf("%w: re-grant %s from %s to %s", ErrOverflow, amount, from.Hex(), to.Hex())
	}

	if from != to {
		toBalance := balanceOf(b, to)
		if toBalance.Lt(amount) {
			return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientBalance, to.Hex(), toBalance, asset.Hex(), amount)
		}
		fromBalance, overflow := new(uint256.Int).AddOverflow(balanceOf(b, from), amount)
		if overflow {
			return fmt.Errorf("%w: credit %s to %s", ErrOverflow, amount, from.Hex())
		}
		setOrDelete(b.balances, to, new(uint256.Int).Sub(toBalance, amount))
		setOrDelete(b.balances, from, fromBalance)
	}
	setOrDelete(b.allowances, key, allowed)
	return nil
}

// Snapshot captures every non-zero balance and allowance, sorted for stable output.
func (m *Memory) Snapshot() model.LedgerSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	var snap model.LedgerSnapshot
	for asset, b := range m.books {
		for account, amount := range b.balances {
			snap.Balances = append(snap.Balances, model.BalanceEntry{
				Asset:   asset.Hex(),
				Account: account.Hex(),
				Amount:  amount.Dec(),
			})
		}
		for key, amount := range b.allowances {
			snap.Allowances = append(snap.Allowances, model.AllowanceEntry{
				Asset:   asset.Hex(),
				Owner:   key.owner.Hex(),
				Spender: key.spender.Hex(),
				Amount:  amount.Dec(),
			})
		}
	}

	sort.Slice(snap.Balances, func(i, j int) bool {
		a, b := snap.Balances[i], snap.Balances[j]
		if a.Asset != b.Asset {
			return a.Asset < b.Asset
		}
		return a.Account < b.Account
	})
	sort.Slice(snap.Allowances, func(i, j int) bool {
		a, b := snap.Allowances[i], snap.Allowances[j]
		if a.Asset != b.Asset {
			return a.Asset < b.Asset
		}
		if a.Owner != b.Owner {
			return a.Owner < b.Owner
		}
		return a.Spender < b.Spender
	})
	return snap
}

// RestoreMemory rebuilds a ledger from a snapshot.
func RestoreMemory(snap model.LedgerSnapshot) (*Memory, error) {
	m := NewMemory()
	for _, entry := range snap.Balances {
		asset, account, err := parsePair(entry.Asset, entry.Account)
		if err != nil {
			return nil, fmt.Errorf("balance entry: %w", err)
		}
		amount, err := uint256.FromDecimal(entry.Amount)
		if err != nil {
			return nil, fmt.Errorf("balance %s/%s: %w", entry.Asset, entry.Account, err)
		}
		if err := m.Mint(asset, account, amount); err != nil {
			return nil, err
		}
	}
	for _, entry := range snap.Allowances {
		asset, owner, err := parsePair(entry.Asset, entry.Owner)
		if err != nil {
			return nil, fmt.Errorf("allowance entry: %w", err)
		}
		if !common.IsHexAddress(entry.Spender) {
			return nil, fmt.Errorf("allowance entry: invalid spender %q", entry.Spender)
		}
		amount, err := uint256.FromDecimal(entry.Amount)
		if err != nil {
			return nil, fmt.Errorf("allowance %s/%s: %w", entry.Asset, entry.Owner, err)
		}
		if err := m.Approve(asset, owner, common.HexToAddress(entry.Spender), amount); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func parsePair(a, b string) (common.Address, common.Address, error) {
	if !common.IsHexAddress(a) {
		return common.Address{}, common.Address{}, fmt.Errorf("invalid address %q", a)
	}
	if !common.IsHexAddress(b) {
		return common.Address{}, common.Address{}, fmt.Errorf("invalid address %q", b)
	}
	return common.HexToAddress(a), common.HexToAddress(b), nil
}

func balanceOf(b *assetBook, account common.Address) *uint256.Int {
	if v, ok := b.balances[account]; ok {
		return v
	}
	return new(uint256.Int)
}

func setOrDelete[K comparable](m map[K]*uint256.Int, key K, value *uint256.Int) {
	if value == nil || value.IsZero() {
		delete(m, key)
		return
	}
	m[key] = value
}
