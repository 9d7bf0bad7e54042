package amm

import "errors"

var (
	// ErrInsufficientInputAmount is returned when a quote is requested for a zero input.
	ErrInsufficientInputAmount = errors.New("insufficient input amount")
	// ErrInsufficientOutputAmount is returned when an inverse quote is requested for a zero output.
	ErrInsufficientOutputAmount = errors.New("insufficient output amount")
	// ErrInsufficientLiquidity is returned when a reserve is empty or cannot cover the requested output.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	// ErrOverflow is returned when an intermediate product does not fit in 256 bits.
	ErrOverflow = errors.New("uint256 overflow")
	// ErrInvalidAmount is returned when an amount string is not a non-negative base-10 integer.
	ErrInvalidAmount = errors.New("invalid amount")
)
