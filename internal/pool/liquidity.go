package pool

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityPool/internal/amm"
)

// ProvideLiquidity deposits amount1 of asset1 and amount2 of asset2 from
// participant and returns the shares minted for it.
//
// The first deposit mints floor(sqrt(amount1*amount2)) and fixes the price
// ratio. Later deposits must match the current ratio exactly and mint
// floor(amount1*totalShares/reserve1). On any error the pool and the ledger
// are left as they were.
func (p *Pool) ProvideLiquidity(ctx context.Context, participant common.Address, amount1, amount2 *uint256.Int) (*uint256.Int, error) {
	if isZero(amount1) || isZero(amount2) {
		return nil, ErrZeroAmount
	}
	if err := p.checkParticipant(participant); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	minted, err := p.sharesForDeposit(amount1, amount2)
	if err != nil {
		return nil, err
	}

	reserve1, overflow := new(uint256.Int).AddOverflow(&p.reserve1, amount1)
	if overflow {
		return nil, fmt.Errorf("%w: reserve1 + amount1", ErrOverflow)
	}
	reserve2, overflow := new(uint256.Int).AddOverflow(&p.reserve2, amount2)
	if overflow {
		return nil, fmt.Errorf("%w: reserve2 + amount2", ErrOverflow)
	}
	totalShares, overflow := new(uint256.Int).AddOverflow(&p.totalShares, minted)
	if overflow {
		return nil, fmt.Errorf("%w: totalShares + minted", ErrOverflow)
	}
	// bounded by totalShares
	owned := new(uint256.Int).Add(p.sharesOf(participant), minted)

	s := p.settle(ctx, "provide", participant)
	if err := s.pull(p.asset1, amount1); err != nil {
		return nil, s.rollback(err)
	}
	if err := s.pull(p.asset2, amount2); err != nil {
		return nil, s.rollback(err)
	}

	p.reserve1.Set(reserve1)
	p.reserve2.Set(reserve2)
	p.totalShares.Set(totalShares)
	p.setShares(participant, owned)

	p.logger.Debug("liquidity provided",
		zap.String("participant", participant.Hex()),
		zap.String("amount1", amount1.Dec()),
		zap.String("amount2", amount2.Dec()),
		zap.String("shares_minted", minted.Dec()),
	)
	p.emit(LiquidityAdded{
		Participant:  participant,
		Amount1:      amount1.Clone(),
		Amount2:      amount2.Clone(),
		SharesMinted: minted.Clone(),
	})
	return minted, nil
}

func (p *Pool) sharesForDeposit(amount1, amount2 *uint256.Int) (*uint256.Int, error) {
	var minted *uint256.Int
	if p.totalShares.IsZero() {
		product, overflow := new(uint256.Int).MulOverflow(amount1, amount2)
		if overflow {
			return nil, fmt.Errorf("%w: amount1 * amount2", ErrOverflow)
		}
		minted = amm.Sqrt(product)
	} else {
		lhs, overflow := new(uint256.Int).MulOverflow(amount1, &p.reserve2)
		if overflow {
			return nil, fmt.Errorf("%w: amount1 * reserve2", ErrOverflow)
		}
		rhs, overflow := new(uint256.Int).MulOverflow(amount2, &p.reserve1)
		if overflow {
			return nil, fmt.Errorf("%w: amount2 * reserve1", ErrOverflow)
		}
		if !lhs.Eq(rhs) {
			return nil, fmt.Errorf("%w: %s:%s against reserves %s:%s",
				ErrRatioMismatch, amount1.Dec(), amount2.Dec(), p.reserve1.Dec(), p.reserve2.Dec())
		}
		var err error
		minted, err = mulDiv(amount1, &p.totalShares, &p.reserve1, "amount1 * totalShares")
		if err != nil {
			return nil, err
		}
	}
	if minted.IsZero() {
		return nil, ErrZeroSharesMinted
	}
	return minted, nil
}

// WithdrawLiquidity burns shareAmount of participant's shares and pays out
// floor(shareAmount*reserveN/totalShares) of each asset.
func (p *Pool) WithdrawLiquidity(ctx context.Context, participant common.Address, shareAmount *uint256.Int) (amount1, amount2 *uint256.Int, err error) {
	if isZero(shareAmount) {
		return nil, nil, ErrZeroAmount
	}
	if err := p.checkParticipant(participant); err != nil {
		return nil, nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	owned := p.sharesOf(participant)
	if owned.Lt(shareAmount) {
		return nil, nil, fmt.Errorf("%w: %s holds %s, burning %s",
			ErrInsufficientShares, participant.Hex(), owned.Dec(), shareAmount.Dec())
	}

	amount1, err = mulDiv(shareAmount, &p.reserve1, &p.totalShares, "shares * reserve1")
	if err != nil {
		return nil, nil, err
	}
	amount2, err = mulDiv(shareAmount, &p.reserve2, &p.totalShares, "shares * reserve2")
	if err != nil {
		return nil, nil, err
	}

	s := p.settle(ctx, "withdraw", participant)
	if err := s.push(p.asset1, amount1); err != nil {
		return nil, nil, s.rollback(err)
	}
	if err := s.push(p.asset2, amount2); err != nil {
		return nil, nil, s.rollback(err)
	}

	p.reserve1.Sub(&p.reserve1, amount1)
	p.reserve2.Sub(&p.reserve2, amount2)
	p.totalShares.Sub(&p.totalShares, shareAmount)
	p.setShares(participant, new(uint256.Int).Sub(owned, shareAmount))

	p.logger.Debug("liquidity withdrawn",
		zap.String("participant", participant.Hex()),
		zap.String("amount1", amount1.Dec()),
		zap.String("amount2", amount2.Dec()),
		zap.String("shares_burned", shareAmount.Dec()),
	)
	p.emit(LiquidityRemoved{
		Participant:  participant,
		Amount1:      amount1.Clone(),
		Amount2:      amount2.Clone(),
		SharesBurned: shareAmount.Clone(),
	})
	return amount1, amount2, nil
}
