package eventlog

import (
	"context"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"liquidityPool/internal/ledger"
	"liquidityPool/internal/model"
	"liquidityPool/internal/pool"
)

func TestRecorderCapturesPoolObservations(t *testing.T) {
	var (
		poolAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
		assetA   = common.HexToAddress("0x000000000000000000000000000000000000a001")
		assetB   = common.HexToAddress("0x000000000000000000000000000000000000b002")
		trader   = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	)

	l := ledger.NewMemory()
	for _, asset := range []common.Address{assetA, assetB} {
		require.NoError(t, l.Mint(asset, trader, uint256.NewInt(1_000)))
		require.NoError(t, l.Approve(asset, trader, poolAddr, uint256.NewInt(1_000)))
	}

	recorder := NewRecorder(nil)
	p, err := pool.New(pool.Config{Address: poolAddr, Asset1: assetA, Asset2: assetB}, l, recorder, nil)
	require.NoError(t, err)

	ctx := context.Background()
	recorder.Begin(1, crypto.Keccak256Hash([]byte("provide")), 100)
	_, err = p.ProvideLiquidity(ctx, trader, uint256.NewInt(100), uint256.NewInt(200))
	require.NoError(t, err)

	recorder.Begin(2, crypto.Keccak256Hash([]byte("swap")), 101)
	_, err = p.Swap(ctx, trader, pool.Asset1ToAsset2, uint256.NewInt(10))
	require.NoError(t, err)
	require.Equal(t, 2, recorder.Len())

	records, err := recorder.Drain()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Zero(t, recorder.Len())

	require.Equal(t, uint64(1), records[0].Seq)
	require.Equal(t, uint64(2), records[1].Seq)
	require.Equal(t, uint64(0), records[1].LogIndex)
	require.Equal(t, uint64(101), records[1].Timestamp)
	require.Equal(t, poolAddr.Hex(), records[1].Address)
	require.Len(t, records[1].Topics, 4)
	require.NotEmpty(t, records[1].RecordedAt)

	decoder, err := NewDecoder()
	require.NoError(t, err)

	added, err := decoder.Decode(records[0])
	require.NoError(t, err)
	require.Equal(t, model.LiquidityAddedData{
		Participant:  trader.Hex(),
		Amount1:      "100",
		Amount2:      "200",
		SharesMinted: "141",
	}, added.Decoded)

	swap, err := decoder.Decode(records[1])
	require.NoError(t, err)
	require.Equal(t, model.SwapEventData{
		Participant: trader.Hex(),
		AssetIn:     assetA.Hex(),
		AssetOut:    assetB.Hex(),
		AmountIn:    "10",
		AmountOut:   "18",
	}, swap.Decoded)
	require.True(t, strings.EqualFold(records[1].TxHash, crypto.Keccak256Hash([]byte("swap")).Hex()))
}

type unknownEvent struct{}

func (unknownEvent) EventName() string { return "Sync" }

func TestRecorderReportsEncodeFailures(t *testing.T) {
	recorder := NewRecorder(nil)
	recorder.Observe(common.HexToAddress("0x01"), unknownEvent{})

	records, err := recorder.Drain()
	require.Empty(t, records)
	require.ErrorIs(t, err, ErrUnknownEvent)

	_, err = recorder.Drain()
	require.NoError(t, err)
}
