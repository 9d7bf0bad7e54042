package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/holiman/uint256"

	"liquidityPool/internal/amm"
	"liquidityPool/internal/model"
)

// Aggregator buckets decoded pool events into fixed windows keyed by the
// operation timestamp. A zero window size keeps a single window.
type Aggregator struct {
	windowSeconds uint64
	poolAddress   string
	asset1        string
	asset2        string
	accumulators  map[uint64]*Accumulator
}

func NewAggregator(windowSeconds uint64, poolAddress, asset1, asset2 string) *Aggregator {
	return &Aggregator{
		windowSeconds: windowSeconds,
		poolAddress:   poolAddress,
		asset1:        asset1,
		asset2:        asset2,
		accumulators:  make(map[uint64]*Accumulator),
	}
}

// Add folds one event into its window.
func (a *Aggregator) Add(event model.TypedEvent) error {
	start, end := a.windowFor(event.Timestamp)
	acc, ok := a.accumulators[start]
	if !ok {
		acc = NewAccumulator(a.poolAddress, a.asset1, a.asset2, start, end)
		a.accumulators[start] = acc
	}
	if err := acc.AddEvent(event); err != nil {
		return fmt.Errorf("seq %d log %d: %w", event.Seq, event.LogIndex, err)
	}
	return nil
}

func (a *Aggregator) windowFor(ts uint64) (uint64, uint64) {
	if a.windowSeconds == 0 {
		return 0, 0
	}
	start := ts - ts%a.windowSeconds
	return start, start + a.windowSeconds
}

// Windows returns the accumulators ordered by window start.
func (a *Aggregator) Windows() []*Accumulator {
	out := make([]*Accumulator, 0, len(a.accumulators))
	for _, acc := range a.accumulators {
		out = append(out, acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WindowStart < out[j].WindowStart })
	return out
}

// Metrics renders every window against the given pool state. Fee rates are
// nominal fees over the closing reserve of the same asset.
func (a *Aggregator) Metrics(reserve1, reserve2, totalShares *uint256.Int) []model.PoolMetrics {
	windows := a.Windows()
	metrics := make([]model.PoolMetrics, 0, len(windows))
	r1, r2 := reserve1.ToBig(), reserve2.ToBig()
	price := amm.FormatRat(amm.PriceRat(reserve1, reserve2), ratioScale)

	for _, acc := range windows {
		feeRate1, feeRate2 := computeFeeRates(acc.NominalFee1, acc.NominalFee2, r1, r2)
		metrics = append(metrics, model.PoolMetrics{
			PoolAddress:   acc.PoolAddress,
			WindowStart:   time.Unix(int64(acc.WindowStart), 0).UTC(),
			WindowEnd:     time.Unix(int64(acc.WindowEnd), 0).UTC(),
			SwapCount:     acc.SwapCount,
			ProvideCount:  acc.ProvideCount,
			WithdrawCount: acc.WithdrawCount,
			Volume1:       acc.Volume1.String(),
			Volume2:       acc.Volume2.String(),
			NominalFee1:   acc.NominalFee1.String(),
			NominalFee2:   acc.NominalFee2.String(),
			FeeRate1:      feeRate1,
			FeeRate2:      feeRate2,
			Reserve1:      reserve1.Dec(),
			Reserve2:      reserve2.Dec(),
			TotalShares:   totalShares.Dec(),
			Price:         price,
		})
	}
	return metrics
}
