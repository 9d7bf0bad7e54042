package pool

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Ledger moves fungible balances on behalf of the pool.
//
// Pull moves amount of asset from `from` to `to` and requires `from` to have
// authorised `to` for at least that amount. Push moves without an
// authorisation check. Both fail without effect when `from` cannot cover the
// amount.
type Ledger interface {
	Pull(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error
	Push(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error
}

// Refunder is implemented by ledgers that can undo a Pull together with the
// authorisation it spent. RefundPull takes the arguments of the Pull it
// reverses. Rollback falls back to a Push from `to` to `from` when the ledger
// does not implement it, which leaves the allowance consumed.
type Refunder interface {
	RefundPull(ctx context.Context, asset, from, to common.Address, amount *uint256.Int) error
}
