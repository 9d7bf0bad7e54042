package pool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"liquidityPool/internal/ledger"
	"liquidityPool/internal/model"
)

func TestSnapshotRestore(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 100, 200)
	f.fund(t, bob, 50, 100)
	_, err := f.pool.ProvideLiquidity(context.Background(), bob, u(50), u(100))
	require.NoError(t, err)

	snap := f.pool.Snapshot()
	require.Equal(t, "150", snap.Reserve1)
	require.Equal(t, "300", snap.Reserve2)
	require.Equal(t, "211", snap.TotalShares)
	require.Len(t, snap.Shares, 2)
	require.Less(t, snap.Shares[0].Account, snap.Shares[1].Account)

	restored, err := Restore(snap, f.ledger, nil, nil)
	require.NoError(t, err)
	require.Equal(t, snap, restored.Snapshot())
	require.Equal(t, uint64(70), restored.Shares(bob).Uint64())

	// the restored pool keeps trading against the same ledger
	f.fund(t, bob, 10, 0)
	out, err := restored.Swap(context.Background(), bob, Asset1ToAsset2, u(10))
	require.NoError(t, err)
	require.False(t, out.IsZero())
}

func TestRestoreRejectsBrokenSnapshots(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 100, 200)
	base := f.pool.Snapshot()
	l := ledger.NewMemory()

	tampered := base
	tampered.TotalShares = "140"
	_, err := Restore(tampered, l, nil, nil)
	require.ErrorIs(t, err, ErrInvariantViolated)

	tampered = base
	tampered.Reserve2 = "0"
	_, err = Restore(tampered, l, nil, nil)
	require.ErrorIs(t, err, ErrInvariantViolated)

	tampered = base
	tampered.Reserve1 = "lots"
	_, err = Restore(tampered, l, nil, nil)
	require.ErrorIs(t, err, ErrInvariantViolated)

	tampered = base
	tampered.Asset2 = tampered.Asset1
	_, err = Restore(tampered, l, nil, nil)
	require.ErrorIs(t, err, ErrInvalidConfiguration)

	tampered = base
	tampered.Shares = append(append([]model.ShareEntry(nil), base.Shares...), base.Shares...)
	_, err = Restore(tampered, l, nil, nil)
	require.ErrorIs(t, err, ErrInvariantViolated)
}
