package eventlog

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"

	"liquidityPool/internal/model"
	"liquidityPool/internal/pool"
)

// Encode lays out a pool event as a log emitted by address: topic0 is the
// event ID, indexed addresses follow, the amounts are ABI-packed into data.
// Sequencing fields are left for the caller.
func Encode(address common.Address, event pool.Event) (model.LogRecord, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return model.LogRecord{}, err
	}

	var (
		indexed []interface{}
		values  []interface{}
	)
	switch e := event.(type) {
	case pool.LiquidityAdded:
		indexed = []interface{}{e.Participant}
		values = []interface{}{toBig(e.Amount1), toBig(e.Amount2), toBig(e.SharesMinted)}
	case pool.LiquidityRemoved:
		indexed = []interface{}{e.Participant}
		values = []interface{}{toBig(e.Amount1), toBig(e.Amount2), toBig(e.SharesBurned)}
	case pool.Swap:
		indexed = []interface{}{e.Participant, e.AssetIn, e.AssetOut}
		values = []interface{}{toBig(e.AmountIn), toBig(e.AmountOut)}
	default:
		return model.LogRecord{}, fmt.Errorf("%w: %T", ErrUnknownEvent, event)
	}

	abiEvent, ok := poolABI.Events[event.EventName()]
	if !ok {
		return model.LogRecord{}, fmt.Errorf("%w: %s", ErrUnknownEvent, event.EventName())
	}

	query := make([][]interface{}, 0, len(indexed))
	for _, value := range indexed {
		query = append(query, []interface{}{value})
	}
	topicSets, err := abi.MakeTopics(query...)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("make topics for %s: %w", abiEvent.Name, err)
	}
	topics := make([]string, 0, len(topicSets)+1)
	topics = append(topics, abiEvent.ID.Hex())
	for _, set := range topicSets {
		topics = append(topics, set[0].Hex())
	}

	data, err := abiEvent.Inputs.NonIndexed().Pack(values...)
	if err != nil {
		return model.LogRecord{}, fmt.Errorf("pack %s: %w", abiEvent.Name, err)
	}

	return model.LogRecord{
		Address: address.Hex(),
		Topics:  topics,
		Data:    hexutil.Encode(data),
	}, nil
}

func toBig(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}
