package amm

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Price returns floor(reserve2 / reserve1), or zero for an empty pool. The
// integer ratio drops everything below one unit; use PriceRat when that
// matters.
func Price(reserve1, reserve2 *uint256.Int) *uint256.Int {
	if isZero(reserve1) || reserve2 == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Div(reserve2, reserve1)
}

// PriceRat returns reserve2 / reserve1 as an exact rational, or zero for an
// empty pool.
func PriceRat(reserve1, reserve2 *uint256.Int) *big.Rat {
	if isZero(reserve1) || reserve2 == nil {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(reserve2.ToBig(), reserve1.ToBig())
}

// FormatRat renders r with a fixed number of decimals, rounding half away from zero.
func FormatRat(r *big.Rat, decimals int) string {
	if r == nil {
		return "0"
	}
	return r.FloatString(decimals)
}
