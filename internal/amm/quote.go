package amm

import (
	"fmt"

	"github.com/holiman/uint256"
)

// fee: 0.3% stays in the pool, 997/1000 of the input trades against the curve
var (
	feeNumerator   = uint256.NewInt(997)
	feeDenominator = uint256.NewInt(1000)
)

// GetAmountOut returns the output of a swap of amountIn against the given
// reserves:
//
//	amountInWithFee = amountIn * 997
//	amountOut       = amountInWithFee * reserveOut / (reserveIn * 1000 + amountInWithFee)
//
// The result is floored. It never mutates its arguments.
func GetAmountOut(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if isZero(amountIn) {
		return nil, ErrInsufficientInputAmount
	}
	if isZero(reserveIn) || isZero(reserveOut) {
		return nil, ErrInsufficientLiquidity
	}

	amountInWithFee, overflow := new(uint256.Int).MulOverflow(amountIn, feeNumerator)
	if overflow {
		return nil, fmt.Errorf("%w: amountIn * 997", ErrOverflow)
	}
	numerator, overflow := new(uint256.Int).MulOverflow(amountInWithFee, reserveOut)
	if overflow {
		return nil, fmt.Errorf("%w: amountInWithFee * reserveOut", ErrOverflow)
	}
	denominator, overflow := new(uint256.Int).MulOverflow(reserveIn, feeDenominator)
	if overflow {
		return nil, fmt.Errorf("%w: reserveIn * 1000", ErrOverflow)
	}
	if _, overflow = denominator.AddOverflow(denominator, amountInWithFee); overflow {
		return nil, fmt.Errorf("%w: swap denominator", ErrOverflow)
	}

	return numerator.Div(numerator, denominator), nil
}

// GetAmountIn returns the smallest input (up to the +1 rounding guard) that
// yields at least amountOut from GetAmountOut:
//
//	amountIn = reserveIn * amountOut * 1000 / ((reserveOut - amountOut) * 997) + 1
func GetAmountIn(amountOut, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if isZero(amountOut) {
		return nil, ErrInsufficientOutputAmount
	}
	if isZero(reserveIn) || isZero(reserveOut) || !amountOut.Lt(reserveOut) {
		return nil, ErrInsufficientLiquidity
	}

	numerator, overflow := new(uint256.Int).MulOverflow(reserveIn, amountOut)
	if overflow {
		return nil, fmt.Errorf("%w: reserveIn * amountOut", ErrOverflow)
	}
	if _, overflow = numerator.MulOverflow(numerator, feeDenominator); overflow {
		return nil, fmt.Errorf("%w: inverse numerator", ErrOverflow)
	}
	denominator := new(uint256.Int).Sub(reserveOut, amountOut)
	if _, overflow = denominator.MulOverflow(denominator, feeNumerator); overflow {
		return nil, fmt.Errorf("%w: inverse denominator", ErrOverflow)
	}

	amountIn := numerator.Div(numerator, denominator)
	if _, overflow = amountIn.AddOverflow(amountIn, uint256.NewInt(1)); overflow {
		return nil, fmt.Errorf("%w: amountIn + 1", ErrOverflow)
	}
	return amountIn, nil
}

func isZero(v *uint256.Int) bool {
	return v == nil || v.IsZero()
}
