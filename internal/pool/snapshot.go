package pool

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityPool/internal/model"
)

// Snapshot captures the pool state. Share entries are sorted by account.
func (p *Pool) Snapshot() model.PoolSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := model.PoolSnapshot{
		Address:     p.address.Hex(),
		Asset1:      p.asset1.Hex(),
		Asset2:      p.asset2.Hex(),
		Reserve1:    p.reserve1.Dec(),
		Reserve2:    p.reserve2.Dec(),
		TotalShares: p.totalShares.Dec(),
		Shares:      make([]model.ShareEntry, 0, len(p.shares)),
	}
	for account, owned := range p.shares {
		snap.Shares = append(snap.Shares, model.ShareEntry{Account: account.Hex(), Shares: owned.Dec()})
	}
	sort.Slice(snap.Shares, func(i, j int) bool { return snap.Shares[i].Account < snap.Shares[j].Account })
	return snap
}

// Restore rebuilds a pool from a snapshot and rejects snapshots that break
// the pool invariants.
func Restore(snap model.PoolSnapshot, ledger Ledger, observer Observer, logger *zap.Logger) (*Pool, error) {
	cfg := Config{}
	for _, field := range []struct {
		name  string
		value string
		dst   *common.Address
	}{
		{"address", snap.Address, &cfg.Address},
		{"asset1", snap.Asset1, &cfg.Asset1},
		{"asset2", snap.Asset2, &cfg.Asset2},
	} {
		if !common.IsHexAddress(field.value) {
			return nil, fmt.Errorf("%w: %s %q", ErrInvalidConfiguration, field.name, field.value)
		}
		*field.dst = common.HexToAddress(field.value)
	}

	p, err := New(cfg, ledger, observer, logger)
	if err != nil {
		return nil, err
	}

	if err := parseInto(&p.reserve1, snap.Reserve1, "reserve1"); err != nil {
		return nil, err
	}
	if err := parseInto(&p.reserve2, snap.Reserve2, "reserve2"); err != nil {
		return nil, err
	}
	if err := parseInto(&p.totalShares, snap.TotalShares, "total_shares"); err != nil {
		return nil, err
	}
	for _, entry := range snap.Shares {
		if !common.IsHexAddress(entry.Account) {
			return nil, fmt.Errorf("%w: share account %q", ErrInvariantViolated, entry.Account)
		}
		account := common.HexToAddress(entry.Account)
		if _, dup := p.shares[account]; dup {
			return nil, fmt.Errorf("%w: duplicate share entry for %s", ErrInvariantViolated, account.Hex())
		}
		owned := new(uint256.Int)
		if err := parseInto(owned, entry.Shares, "shares"); err != nil {
			return nil, err
		}
		if owned.IsZero() {
			continue
		}
		p.shares[account] = owned
	}

	if err := p.checkInvariants(); err != nil {
		return nil, err
	}
	return p, nil
}

func parseInto(dst *uint256.Int, value, field string) error {
	if value == "" {
		dst.Clear()
		return nil
	}
	if err := dst.SetFromDecimal(value); err != nil {
		return fmt.Errorf("%w: %s %q: %w", ErrInvariantViolated, field, value, err)
	}
	return nil
}
