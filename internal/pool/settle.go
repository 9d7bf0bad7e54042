package pool

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type transferKind uint8

const (
	transferPull transferKind = iota + 1
	transferPush
)

type transfer struct {
	kind   transferKind
	asset  common.Address
	amount *uint256.Int
}

// settlement journals the ledger transfers of one operation so they can be
// reversed if a later leg fails.
type settlement struct {
	ctx         context.Context
	pool        *Pool
	op          string
	participant common.Address
	done        []transfer
}

func (p *Pool) settle(ctx context.Context, op string, participant common.Address) *settlement {
	return &settlement{ctx: ctx, pool: p, op: op, participant: participant}
}

// pull moves amount from the participant into the pool. Zero amounts are skipped.
func (s *settlement) pull(asset common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := s.pool.ledger.Pull(s.ctx, asset, s.participant, s.pool.address, amount); err != nil {
		return fmt.Errorf("%w: pull %s of %s from %s: %w", ErrTransferFailed, amount.Dec(), asset.Hex(), s.participant.Hex(), err)
	}
	s.done = append(s.done, transfer{kind: transferPull, asset: asset, amount: amount})
	return nil
}

// push pays amount from the pool to the participant. Zero amounts are skipped.
func (s *settlement) push(asset common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := s.pool.ledger.Push(s.ctx, asset, s.pool.address, s.participant, amount); err != nil {
		return fmt.Errorf("%w: push %s of %s to %s: %w", ErrTransferFailed, amount.Dec(), asset.Hex(), s.participant.Hex(), err)
	}
	s.done = append(s.done, transfer{kind: transferPush, asset: asset, amount: amount})
	return nil
}

// rollback reverses completed transfers newest first and returns cause,
// joined with any reversal failures.
func (s *settlement) rollback(cause error) error {
	if len(s.done) == 0 {
		return cause
	}
	// the caller's deadline must not strand a half-settled operation
	ctx := context.WithoutCancel(s.ctx)
	logger := s.pool.logger.With(zap.String("op", s.op), zap.String("participant", s.participant.Hex()))

	var errs error
	for i := len(s.done) - 1; i >= 0; i-- {
		t := s.done[i]
		var err error
		switch t.kind {
		case transferPull:
			if r, ok := s.pool.ledger.(Refunder); ok {
				err = r.RefundPull(ctx, t.asset, s.participant, s.pool.address, t.amount)
			} else {
				err = s.pool.ledger.Push(ctx, t.asset, s.pool.address, s.participant, t.amount)
			}
		case transferPush:
			err = s.pool.ledger.Push(ctx, t.asset, s.participant, s.pool.address, t.amount)
		}
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reverse %s of %s: %w", t.amount.Dec(), t.asset.Hex(), err))
		}
	}
	s.done = nil

	if errs != nil {
		logger.Error("rollback failed", zap.Error(cause), zap.NamedError("rollback_error", errs))
		return multierr.Append(cause, errs)
	}
	logger.Warn("rolled back transfers", zap.Error(cause))
	return cause
}
