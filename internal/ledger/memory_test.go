package ledger

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

var (
	token = common.HexToAddress("0x000000000000000000000000000000000000a001")
	owner = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	pool  = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func TestPullSpendsAllowance(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Mint(token, owner, uint256.NewInt(100)))
	require.NoError(t, m.Approve(token, owner, pool, uint256.NewInt(60)))

	require.NoError(t, m.Pull(context.Background(), token, owner, pool, uint256.NewInt(40)))
	require.Equal(t, uint64(60), m.BalanceOf(token, owner).Uint64())
	require.Equal(t, uint64(40), m.BalanceOf(token, pool).Uint64())
	require.Equal(t, uint64(20), m.Allowance(token, owner, pool).Uint64())

	err := m.Pull(context.Background(), token, owner, pool, uint256.NewInt(21))
	require.ErrorIs(t, err, ErrInsufficientAllowance)
	require.Equal(t, uint64(60), m.BalanceOf(token, owner).Uint64())
}

func TestPullChecksBalance(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Mint(token, owner, uint256.NewInt(10)))
	require.NoError(t, m.Approve(token, owner, pool, uint256.NewInt(1000)))

	err := m.Pull(context.Background(), token, owner, pool, uint256.NewInt(11))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, uint64(1000), m.Allowance(token, owner, pool).Uint64())
}

func TestPushIgnoresAllowance(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Mint(token, pool, uint256.NewInt(10)))

	require.NoError(t, m.Push(context.Background(), token, pool, owner, uint256.NewInt(10)))
	require.Equal(t, uint64(10), m.BalanceOf(token, owner).Uint64())
	require.True(t, m.BalanceOf(token, pool).IsZero())

	err := m.Push(context.Background(), token, pool, owner, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestTransferRejectsZeroAddressAndCancelledContext(t *testing.T) {
	m := NewMemory()
	require.ErrorIs(t, m.Mint(token, common.Address{}, uint256.NewInt(1)), ErrZeroAddress)
	require.ErrorIs(t, m.Push(context.Background(), token, pool, common.Address{}, uint256.NewInt(0)), ErrZeroAddress)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, m.Push(ctx, token, pool, owner, uint256.NewInt(0)), context.Canceled)
}

func TestMintOverflow(t *testing.T) {
	m := NewMemory()
	max := new(uint256.Int).SetAllOne()
	require.NoError(t, m.Mint(token, owner, max))
	require.ErrorIs(t, m.Mint(token, owner, uint256.NewInt(1)), ErrOverflow)
}

func TestSnapshotRestore(t *testing.T) {
	other := common.HexToAddress("0x000000000000000000000000000000000000b002")
	m := NewMemory()
	require.NoError(t, m.Mint(token, owner, uint256.NewInt(100)))
	require.NoError(t, m.Mint(other, owner, uint256.NewInt(5)))
	require.NoError(t, m.Mint(token, pool, uint256.NewInt(7)))
	require.NoError(t, m.Approve(token, owner, pool, uint256.NewInt(30)))

	snap := m.Snapshot()
	require.Len(t, snap.Balances, 3)
	require.Len(t, snap.Allowances, 1)

	restored, err := RestoreMemory(snap)
	require.NoError(t, err)
	require.Equal(t, snap, restored.Snapshot())
	require.Equal(t, uint64(30), restored.Allowance(token, owner, pool).Uint64())

	snap.Balances[0].Amount = "-1"
	_, err = RestoreMemory(snap)
	require.Error(t, err)
}

func TestRefundPullRestoresAllowance(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Mint(token, owner, uint256.NewInt(100)))
	require.NoError(t, m.Approve(token, owner, pool, uint256.NewInt(60)))
	require.NoError(t, m.Pull(context.Background(), token, owner, pool, uint256.NewInt(40)))

	require.NoError(t, m.RefundPull(context.Background(), token, owner, pool, uint256.NewInt(40)))
	require.Equal(t, uint64(100), m.BalanceOf(token, owner).Uint64())
	require.True(t, m.BalanceOf(token, pool).IsZero())
	require.Equal(t, uint64(60), m.Allowance(token, owner, pool).Uint64())
}

func TestRefundPullChecksSpenderBalance(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Mint(token, pool, uint256.NewInt(5)))

	err := m.RefundPull(context.Background(), token, owner, pool, uint256.NewInt(6))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, uint64(5), m.BalanceOf(token, pool).Uint64())
	require.True(t, m.Allowance(token, owner, pool).IsZero())
}
