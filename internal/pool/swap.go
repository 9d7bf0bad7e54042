package pool

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"liquidityPool/internal/amm"
)

type side struct {
	assetIn    common.Address
	assetOut   common.Address
	reserveIn  *uint256.Int
	reserveOut *uint256.Int
}

// side returns the live reserves for a direction. Callers hold p.mu.
func (p *Pool) side(direction Direction) (side, error) {
	switch direction {
	case Asset1ToAsset2:
		return side{assetIn: p.asset1, assetOut: p.asset2, reserveIn: &p.reserve1, reserveOut: &p.reserve2}, nil
	case Asset2ToAsset1:
		return side{assetIn: p.asset2, assetOut: p.asset1, reserveIn: &p.reserve2, reserveOut: &p.reserve1}, nil
	}
	return side{}, fmt.Errorf("%w: %s", ErrInvalidDirection, direction)
}

// quote computes the output of a swap and the reserves it would leave.
// Callers hold p.mu.
func (p *Pool) quote(direction Direction, amountIn *uint256.Int) (side, *uint256.Int, *uint256.Int, *uint256.Int, error) {
	if isZero(amountIn) {
		return side{}, nil, nil, nil, ErrZeroAmount
	}
	sd, err := p.side(direction)
	if err != nil {
		return side{}, nil, nil, nil, err
	}
	if sd.reserveIn.IsZero() || sd.reserveOut.IsZero() {
		return side{}, nil, nil, nil, ErrNoLiquidity
	}

	amountOut, err := amm.GetAmountOut(amountIn, sd.reserveIn, sd.reserveOut)
	if err != nil {
		return side{}, nil, nil, nil, err
	}
	nextIn, overflow := new(uint256.Int).AddOverflow(sd.reserveIn, amountIn)
	if overflow {
		return side{}, nil, nil, nil, fmt.Errorf("%w: reserveIn + amountIn", ErrOverflow)
	}
	// amountOut < reserveOut whenever reserveIn > 0
	nextOut := new(uint256.Int).Sub(sd.reserveOut, amountOut)
	return sd, amountOut, nextIn, nextOut, nil
}

// Swap trades amountIn of the input asset for as much of the output asset as
// the 0.3% fee-adjusted constant-product curve yields. There is no minimum
// output; a result of zero still commits the input.
func (p *Pool) Swap(ctx context.Context, participant common.Address, direction Direction, amountIn *uint256.Int) (*uint256.Int, error) {
	if isZero(amountIn) {
		return nil, ErrZeroAmount
	}
	if !direction.valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDirection, direction)
	}
	if err := p.checkParticipant(participant); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	sd, amountOut, nextIn, nextOut, err := p.quote(direction, amountIn)
	if err != nil {
		return nil, err
	}

	s := p.settle(ctx, "swap", participant)
	if err := s.pull(sd.assetIn, amountIn); err != nil {
		return nil, s.rollback(err)
	}
	if err := s.push(sd.assetOut, amountOut); err != nil {
		return nil, s.rollback(err)
	}

	sd.reserveIn.Set(nextIn)
	sd.reserveOut.Set(nextOut)

	p.logger.Debug("swap",
		zap.String("participant", participant.Hex()),
		zap.Stringer("direction", direction),
		zap.String("amount_in", amountIn.Dec()),
		zap.String("amount_out", amountOut.Dec()),
	)
	p.emit(Swap{
		Participant: participant,
		AssetIn:     sd.assetIn,
		AssetOut:    sd.assetOut,
		AmountIn:    amountIn.Clone(),
		AmountOut:   amountOut.Clone(),
	})
	return amountOut, nil
}
