package aggregate

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"

	"liquidityPool/internal/model"
)

// Reserves rebuilds pool reserves and share supply from its event stream.
// It must see every event of the pool from creation, in sequence order.
type Reserves struct {
	asset1      string
	asset2      string
	reserve1    *big.Int
	reserve2    *big.Int
	totalShares *big.Int
}

func NewReserves(asset1, asset2 string) *Reserves {
	return &Reserves{
		asset1:      asset1,
		asset2:      asset2,
		reserve1:    big.NewInt(0),
		reserve2:    big.NewInt(0),
		totalShares: big.NewInt(0),
	}
}

// Apply folds one event into the running state.
func (r *Reserves) Apply(event model.TypedEvent) error {
	switch decoded := event.Decoded.(type) {
	case model.LiquidityAddedData:
		return r.adjust(event.Seq, +1, decoded.Amount1, decoded.Amount2, decoded.SharesMinted)
	case model.LiquidityRemovedData:
		return r.adjust(event.Seq, -1, decoded.Amount1, decoded.Amount2, decoded.SharesBurned)
	case model.SwapEventData:
		return r.applySwap(event.Seq, decoded)
	default:
		return fmt.Errorf("seq %d: unsupported payload %T for %s", event.Seq, event.Decoded, event.EventName)
	}
}

func (r *Reserves) adjust(seq uint64, sign int, amount1, amount2, shares string) error {
	values := make([]*big.Int, 0, 3)
	for _, raw := range []string{amount1, amount2, shares} {
		v, err := parseBigInt(raw)
		if err != nil {
			return fmt.Errorf("seq %d: %w", seq, err)
		}
		if sign < 0 {
			v.Neg(v)
		}
		values = append(values, v)
	}
	return r.commit(seq,
		new(big.Int).Add(r.reserve1, values[0]),
		new(big.Int).Add(r.reserve2, values[1]),
		new(big.Int).Add(r.totalShares, values[2]),
	)
}

func (r *Reserves) applySwap(seq uint64, swap model.SwapEventData) error {
	amountIn, err := parseBigInt(swap.AmountIn)
	if err != nil {
		return fmt.Errorf("seq %d: %w", seq, err)
	}
	amountOut, err := parseBigInt(swap.AmountOut)
	if err != nil {
		return fmt.Errorf("seq %d: %w", seq, err)
	}

	reserve1, reserve2 := new(big.Int).Set(r.reserve1), new(big.Int).Set(r.reserve2)
	switch {
	case strings.EqualFold(swap.AssetIn, r.asset1):
		reserve1.Add(reserve1, amountIn)
		reserve2.Sub(reserve2, amountOut)
	case strings.EqualFold(swap.AssetIn, r.asset2):
		reserve2.Add(reserve2, amountIn)
		reserve1.Sub(reserve1, amountOut)
	default:
		return fmt.Errorf("seq %d: swap asset %s not in pool", seq, swap.AssetIn)
	}
	return r.commit(seq, reserve1, reserve2, r.totalShares)
}

func (r *Reserves) commit(seq uint64, reserve1, reserve2, totalShares *big.Int) error {
	if reserve1.Sign() < 0 || reserve2.Sign() < 0 || totalShares.Sign() < 0 {
		return fmt.Errorf("seq %d: event stream drives pool state negative", seq)
	}
	r.reserve1, r.reserve2, r.totalShares = reserve1, reserve2, totalShares
	return nil
}

// Values returns the current reserves and share supply.
func (r *Reserves) Values() (reserve1, reserve2, totalShares *uint256.Int, err error) {
	out := make([]*uint256.Int, 3)
	for i, v := range []*big.Int{r.reserve1, r.reserve2, r.totalShares} {
		u, overflow := uint256.FromBig(v)
		if overflow {
			return nil, nil, nil, fmt.Errorf("pool state exceeds 256 bits")
		}
		out[i] = u
	}
	return out[0], out[1], out[2], nil
}
