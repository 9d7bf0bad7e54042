package pool

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Event is an observation emitted after a pool mutation commits.
type Event interface {
	EventName() string
}

type LiquidityAdded struct {
	Participant  common.Address
	Amount1      *uint256.Int
	Amount2      *uint256.Int
	SharesMinted *uint256.Int
}

func (LiquidityAdded) EventName() string { return "LiquidityAdded" }

type LiquidityRemoved struct {
	Participant  common.Address
	Amount1      *uint256.Int
	Amount2      *uint256.Int
	SharesBurned *uint256.Int
}

func (LiquidityRemoved) EventName() string { return "LiquidityRemoved" }

type Swap struct {
	Participant common.Address
	AssetIn     common.Address
	AssetOut    common.Address
	AmountIn    *uint256.Int
	AmountOut   *uint256.Int
}

func (Swap) EventName() string { return "Swap" }

// Observer receives every event a pool emits, in commit order. Observe runs
// while the pool's write lock is held and must not call back into the pool's
// mutating methods.
type Observer interface {
	Observe(pool common.Address, event Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(pool common.Address, event Event)

func (f ObserverFunc) Observe(pool common.Address, event Event) { f(pool, event) }

// Observers fans each event out to every member in order.
type Observers []Observer

func (o Observers) Observe(pool common.Address, event Event) {
	for _, observer := range o {
		if observer != nil {
			observer.Observe(pool, event)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Observe(common.Address, Event) {}
