package amm

import "github.com/holiman/uint256"

// Sqrt returns floor(sqrt(y)) using Newton's iteration on integers.
//
// The iteration starts at y/2+1 and stops as soon as the next estimate no
// longer decreases, which leaves the floor of the exact root in z.
func Sqrt(y *uint256.Int) *uint256.Int {
	if y.LtUint64(4) {
		if y.IsZero() {
			return new(uint256.Int)
		}
		return uint256.NewInt(1)
	}

	z := new(uint256.Int).Set(y)
	x := new(uint256.Int).Rsh(y, 1)
	x.AddUint64(x, 1)

	quo := new(uint256.Int)
	for x.Lt(z) {
		z.Set(x)
		quo.Div(y, x)
		x.Add(quo, x)
		x.Rsh(x, 1)
	}
	return z
}
