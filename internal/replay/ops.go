package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"liquidityPool/internal/amm"
	"liquidityPool/internal/ledger"
	"liquidityPool/internal/model"
	"liquidityPool/internal/pool"
)

// ErrUnknownOperation is returned for op kinds the runner does not handle.
var ErrUnknownOperation = errors.New("unknown operation")

// Entry is one non-blank line of a replay script. Seq counts from 1.
type Entry struct {
	Seq      uint64
	Hash     common.Hash
	Op       model.Operation
	ParseErr error
}

// ReadOperations loads a JSONL replay script. Lines that are not valid JSON
// are kept with ParseErr set so they are reported in sequence.
func ReadOperations(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()
	return readOperations(file)
}

func readOperations(r io.Reader) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var entries []Entry
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		entry := Entry{
			Seq:  uint64(len(entries) + 1),
			Hash: crypto.Keccak256Hash(line),
		}
		if err := json.Unmarshal(line, &entry.Op); err != nil {
			entry.ParseErr = fmt.Errorf("parse operation: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return entries, nil
}

// apply executes one operation against the pool and its ledger.
func apply(ctx context.Context, p *pool.Pool, l *ledger.Memory, op model.Operation) error {
	account, err := ParseAddress(op.Account)
	if err != nil {
		return fmt.Errorf("account: %w", err)
	}

	switch op.Op {
	case model.OpMint, model.OpApprove:
		asset, err := ParseAddress(op.Asset)
		if err != nil {
			return fmt.Errorf("asset: %w", err)
		}
		amount, err := parseAmount("amount", op.Amount)
		if err != nil {
			return err
		}
		if op.Op == model.OpMint {
			return l.Mint(asset, account, amount)
		}
		return l.Approve(asset, account, p.Address(), amount)

	case model.OpProvide:
		amount1, err := parseAmount("amount1", op.Amount1)
		if err != nil {
			return err
		}
		amount2, err := parseAmount("amount2", op.Amount2)
		if err != nil {
			return err
		}
		_, err = p.ProvideLiquidity(ctx, account, amount1, amount2)
		return err

	case model.OpWithdraw:
		shares, err := parseAmount("shares", op.Shares)
		if err != nil {
			return err
		}
		_, _, err = p.WithdrawLiquidity(ctx, account, shares)
		return err

	case model.OpSwap:
		direction, err := pool.ParseDirection(op.Direction)
		if err != nil {
			return err
		}
		amount, err := parseAmount("amount", op.Amount)
		if err != nil {
			return err
		}
		_, err = p.Swap(ctx, account, direction, amount)
		return err
	}
	return fmt.Errorf("%w: %q", ErrUnknownOperation, op.Op)
}

func parseAmount(field, value string) (*uint256.Int, error) {
	amount, err := amm.ParseAmount(value)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", field, value, err)
	}
	return amount, nil
}
