package pool

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// Config fixes the identities of a pool at creation.
type Config struct {
	// Address is the holding account the ledger credits with the reserves.
	Address common.Address
	Asset1  common.Address
	Asset2  common.Address
}

func (c Config) validate() error {
	zero := common.Address{}
	switch {
	case c.Address == zero:
		return fmt.Errorf("%w: pool address is zero", ErrInvalidConfiguration)
	case c.Asset1 == zero || c.Asset2 == zero:
		return fmt.Errorf("%w: asset address is zero", ErrInvalidConfiguration)
	case c.Asset1 == c.Asset2:
		return fmt.Errorf("%w: asset1 and asset2 are both %s", ErrInvalidConfiguration, c.Asset1.Hex())
	case c.Address == c.Asset1 || c.Address == c.Asset2:
		return fmt.Errorf("%w: pool address equals an asset", ErrInvalidConfiguration)
	}
	return nil
}

// Pool is a constant-product pool over two assets. All methods are safe for
// concurrent use; mutations are serialised.
type Pool struct {
	mu sync.RWMutex

	address common.Address
	asset1  common.Address
	asset2  common.Address

	reserve1    uint256.Int
	reserve2    uint256.Int
	totalShares uint256.Int
	shares      map[common.Address]*uint256.Int

	ledger   Ledger
	observer Observer
	logger   *zap.Logger
}

// New returns an empty pool. A nil observer discards events and a nil logger
// is replaced by a no-op logger.
func New(cfg Config, ledger Ledger, observer Observer, logger *zap.Logger) (*Pool, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, fmt.Errorf("%w: ledger is required", ErrInvalidConfiguration)
	}
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pool{
		address:  cfg.Address,
		asset1:   cfg.Asset1,
		asset2:   cfg.Asset2,
		shares:   make(map[common.Address]*uint256.Int),
		ledger:   ledger,
		observer: observer,
		logger:   logger.With(zap.String("pool", cfg.Address.Hex())),
	}, nil
}

func (p *Pool) checkParticipant(participant common.Address) error {
	if participant == (common.Address{}) || participant == p.address {
		return fmt.Errorf("%w: %s", ErrInvalidParticipant, participant.Hex())
	}
	return nil
}

func (p *Pool) emit(event Event) {
	p.observer.Observe(p.address, event)
}

func (p *Pool) sharesOf(participant common.Address) *uint256.Int {
	if v, ok := p.shares[participant]; ok {
		return v
	}
	return new(uint256.Int)
}

func (p *Pool) setShares(participant common.Address, value *uint256.Int) {
	if value.IsZero() {
		delete(p.shares, participant)
		return
	}
	p.shares[participant] = value
}

func isZero(v *uint256.Int) bool {
	return v == nil || v.IsZero()
}

func mulDiv(a, b, denominator *uint256.Int, what string) (*uint256.Int, error) {
	product, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrOverflow, what)
	}
	return product.Div(product, denominator), nil
}
