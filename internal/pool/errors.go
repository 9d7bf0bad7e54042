package pool

import (
	"errors"

	"liquidityPool/internal/amm"
)

var (
	// ErrInvalidConfiguration is returned by New for a zero or colliding pool/asset address or a nil ledger.
	ErrInvalidConfiguration = errors.New("invalid pool configuration")
	// ErrInvalidParticipant is returned when the participant is the zero address or the pool itself.
	ErrInvalidParticipant = errors.New("invalid participant")
	// ErrZeroAmount is returned when a deposit, burn or swap input is zero.
	ErrZeroAmount = errors.New("amount must be positive")
	// ErrRatioMismatch is returned when a deposit into a funded pool does not match its reserve ratio.
	ErrRatioMismatch = errors.New("deposit does not match pool ratio")
	// ErrZeroSharesMinted is returned when a deposit is too small to mint any shares.
	ErrZeroSharesMinted = errors.New("deposit mints zero shares")
	// ErrInsufficientShares is returned when a withdrawal burns more shares than the participant holds.
	ErrInsufficientShares = errors.New("insufficient shares")
	// ErrNoLiquidity is returned when a swap or quote meets an empty reserve.
	ErrNoLiquidity = errors.New("no liquidity")
	// ErrTransferFailed wraps a ledger error raised while settling an operation.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrInvalidDirection is returned for a swap direction other than asset1->asset2 or asset2->asset1.
	ErrInvalidDirection = errors.New("invalid swap direction")
	// ErrInvariantViolated is returned by CheckInvariants when reserves or shares are inconsistent.
	ErrInvariantViolated = errors.New("pool invariant violated")

	// ErrOverflow is the same value as amm.ErrOverflow so callers can match
	// either.
	ErrOverflow = amm.ErrOverflow
)
