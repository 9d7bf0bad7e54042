package aggregate

import (
	"fmt"
	"math/big"
	"strings"

	"liquidityPool/internal/model"
)

// nominal fee per unit of swap input: the 0.3% amm.GetAmountOut withholds.
// What the pool actually keeps is the growth of reserve1*reserve2, which
// also absorbs output rounding.
var (
	feeNumerator   = big.NewInt(3)
	feeDenominator = big.NewInt(1000)
)

// Accumulator holds aggregate values for a pool window. NominalFee1 and
// NominalFee2 sum the nominal fee on swap inputs of each asset.
type Accumulator struct {
	PoolAddress   string
	Asset1        string
	Asset2        string
	WindowStart   uint64
	WindowEnd     uint64
	SwapCount     uint64
	ProvideCount  uint64
	WithdrawCount uint64
	Volume1       *big.Int
	Volume2       *big.Int
	NominalFee1   *big.Int
	NominalFee2   *big.Int
	FirstSeq      uint64
	LastSeq       uint64
}

func NewAccumulator(poolAddress, asset1, asset2 string, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolAddress: poolAddress,
		Asset1:      asset1,
		Asset2:      asset2,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Volume1:     big.NewInt(0),
		Volume2:     big.NewInt(0),
		NominalFee1: big.NewInt(0),
		NominalFee2: big.NewInt(0),
	}
}

func (a *Accumulator) AddEvent(event model.TypedEvent) error {
	if a.FirstSeq == 0 || event.Seq < a.FirstSeq {
		a.FirstSeq = event.Seq
	}
	if event.Seq > a.LastSeq {
		a.LastSeq = event.Seq
	}

	switch decoded := event.Decoded.(type) {
	case model.SwapEventData:
		return a.applySwap(decoded)
	case model.LiquidityAddedData:
		a.ProvideCount++
		return nil
	case model.LiquidityRemovedData:
		a.WithdrawCount++
		return nil
	default:
		return fmt.Errorf("unsupported payload %T for %s", event.Decoded, event.EventName)
	}
}

func (a *Accumulator) applySwap(swap model.SwapEventData) error {
	amountIn, err := parseBigInt(swap.AmountIn)
	if err != nil {
		return err
	}
	amountOut, err := parseBigInt(swap.AmountOut)
	if err != nil {
		return err
	}

	var (
		volumeIn, volumeOut, fee *big.Int
	)
	switch {
	case strings.EqualFold(swap.AssetIn, a.Asset1):
		volumeIn, volumeOut, fee = a.Volume1, a.Volume2, a.NominalFee1
	case strings.EqualFold(swap.AssetIn, a.Asset2):
		volumeIn, volumeOut, fee = a.Volume2, a.Volume1, a.NominalFee2
	default:
		return fmt.Errorf("swap asset %s not in pool %s", swap.AssetIn, a.PoolAddress)
	}

	volumeIn.Add(volumeIn, amountIn)
	volumeOut.Add(volumeOut, amountOut)
	fee.Add(fee, nominalFee(amountIn))
	a.SwapCount++
	return nil
}

func parseBigInt(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	return parsed, nil
}

// nominalFee is floor(amountIn*3/1000).
func nominalFee(amountIn *big.Int) *big.Int {
	if amountIn == nil {
		return big.NewInt(0)
	}
	fee := new(big.Int).Mul(amountIn, feeNumerator)
	return fee.Div(fee, feeDenominator)
}
