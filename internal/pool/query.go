package pool

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"liquidityPool/internal/amm"
)

// Address returns the pool's holding account.
func (p *Pool) Address() common.Address { return p.address }

// Assets returns the two assets in pool order.
func (p *Pool) Assets() (asset1, asset2 common.Address) { return p.asset1, p.asset2 }

// Reserves returns copies of both reserves taken under one lock.
func (p *Pool) Reserves() (reserve1, reserve2 *uint256.Int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reserve1.Clone(), p.reserve2.Clone()
}

// Price returns floor(reserve2/reserve1), or zero when the pool is empty.
func (p *Pool) Price() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return amm.Price(&p.reserve1, &p.reserve2)
}

// PriceRat returns reserve2/reserve1 exactly, or zero when the pool is empty.
func (p *Pool) PriceRat() *big.Rat {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return amm.PriceRat(&p.reserve1, &p.reserve2)
}

// TotalShares returns a copy of the outstanding share supply.
func (p *Pool) TotalShares() *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.totalShares.Clone()
}

// Shares returns a copy of participant's share balance.
func (p *Pool) Shares(participant common.Address) *uint256.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sharesOf(participant).Clone()
}

// SwapQuote is the outcome a swap would have against the current reserves.
type SwapQuote struct {
	AmountOut *uint256.Int
	Reserve1  *uint256.Int
	Reserve2  *uint256.Int
}

// QuoteSwap prices a swap without executing it.
func (p *Pool) QuoteSwap(direction Direction, amountIn *uint256.Int) (SwapQuote, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, amountOut, nextIn, nextOut, err := p.quote(direction, amountIn)
	if err != nil {
		return SwapQuote{}, err
	}
	if direction == Asset1ToAsset2 {
		return SwapQuote{AmountOut: amountOut, Reserve1: nextIn, Reserve2: nextOut}, nil
	}
	return SwapQuote{AmountOut: amountOut, Reserve1: nextOut, Reserve2: nextIn}, nil
}

// CheckInvariants verifies that the pool is either fully empty or fully
// seeded and that totalShares equals the sum of all share balances.
func (p *Pool) CheckInvariants() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.checkInvariants()
}

func (p *Pool) checkInvariants() error {
	empty1, empty2, emptyShares := p.reserve1.IsZero(), p.reserve2.IsZero(), p.totalShares.IsZero()
	if empty1 != empty2 || empty1 != emptyShares {
		return fmt.Errorf("%w: reserve1=%s reserve2=%s totalShares=%s",
			ErrInvariantViolated, p.reserve1.Dec(), p.reserve2.Dec(), p.totalShares.Dec())
	}

	sum := new(uint256.Int)
	for participant, owned := range p.shares {
		if owned.IsZero() {
			return fmt.Errorf("%w: zero share entry for %s", ErrInvariantViolated, participant.Hex())
		}
		if _, overflow := sum.AddOverflow(sum, owned); overflow {
			return fmt.Errorf("%w: share balances overflow", ErrInvariantViolated)
		}
	}
	if !sum.Eq(&p.totalShares) {
		return fmt.Errorf("%w: share balances sum to %s, totalShares=%s",
			ErrInvariantViolated, sum.Dec(), p.totalShares.Dec())
	}
	return nil
}
