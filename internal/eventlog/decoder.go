package eventlog

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"liquidityPool/internal/model"
)

// ErrUnknownEvent is returned for events and topics outside the pool ABI.
var ErrUnknownEvent = errors.New("unknown pool event")

// Decoder turns encoded pool observations back into typed events.
type Decoder struct {
	poolABI     abi.ABI
	topicToName map[string]string
}

func NewDecoder() (*Decoder, error) {
	poolABI, err := PoolABI()
	if err != nil {
		return nil, err
	}

	topicToName := make(map[string]string, len(poolABI.Events))
	for name, event := range poolABI.Events {
		topicToName[strings.ToLower(event.ID.Hex())] = name
	}
	return &Decoder{poolABI: poolABI, topicToName: topicToName}, nil
}

// CanDecode checks if the topic0 is supported.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	_, ok := d.topicToName[strings.ToLower(topic0)]
	return ok
}

// Decode converts a LogRecord into a TypedEvent.
func (d *Decoder) Decode(log model.LogRecord) (*model.TypedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("missing topics")
	}
	name, ok := d.topicToName[strings.ToLower(log.Topics[0])]
	if !ok {
		return nil, fmt.Errorf("%w: topic0 %s", ErrUnknownEvent, log.Topics[0])
	}
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("invalid pool address: %s", log.Address)
	}

	var (
		decoded interface{}
		err     error
	)
	switch name {
	case EventLiquidityAdded:
		decoded, err = d.decodeLiquidity(log, name, func(participant common.Address, amounts []*big.Int) interface{} {
			return model.LiquidityAddedData{
				Participant:  participant.Hex(),
				Amount1:      amounts[0].String(),
				Amount2:      amounts[1].String(),
				SharesMinted: amounts[2].String(),
			}
		})
	case EventLiquidityRemoved:
		decoded, err = d.decodeLiquidity(log, name, func(participant common.Address, amounts []*big.Int) interface{} {
			return model.LiquidityRemovedData{
				Participant:  participant.Hex(),
				Amount1:      amounts[0].String(),
				Amount2:      amounts[1].String(),
				SharesBurned: amounts[2].String(),
			}
		})
	case EventSwap:
		decoded, err = d.decodeSwap(log)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	return &model.TypedEvent{
		Seq:       log.Seq,
		TxHash:    log.TxHash,
		LogIndex:  log.LogIndex,
		Address:   log.Address,
		EventName: name,
		Timestamp: log.Timestamp,
		Decoded:   decoded,
		Raw:       &model.RawLogRef{Topic0: log.Topics[0], Data: log.Data},
	}, nil
}

func (d *Decoder) decodeLiquidity(log model.LogRecord, name string, build func(common.Address, []*big.Int) interface{}) (interface{}, error) {
	event := d.poolABI.Events[name]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return nil, err
	}

	var indexed struct {
		Participant common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return nil, fmt.Errorf("parse topics: %w", err)
	}

	amounts, err := unpackAmounts(event, log.Data, 3)
	if err != nil {
		return nil, err
	}
	return build(indexed.Participant, amounts), nil
}

func (d *Decoder) decodeSwap(log model.LogRecord) (model.SwapEventData, error) {
	event := d.poolABI.Events[EventSwap]
	indexedTopics, err := parseIndexedTopics(event, log.Topics)
	if err != nil {
		return model.SwapEventData{}, err
	}

	var indexed struct {
		Participant common.Address
		AssetIn     common.Address
		AssetOut    common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(event.Inputs), indexedTopics); err != nil {
		return model.SwapEventData{}, fmt.Errorf("parse topics: %w", err)
	}

	amounts, err := unpackAmounts(event, log.Data, 2)
	if err != nil {
		return model.SwapEventData{}, err
	}
	return model.SwapEventData{
		Participant: indexed.Participant.Hex(),
		AssetIn:     indexed.AssetIn.Hex(),
		AssetOut:    indexed.AssetOut.Hex(),
		AmountIn:    amounts[0].String(),
		AmountOut:   amounts[1].String(),
	}, nil
}

func unpackAmounts(event abi.Event, dataHex string, want int) ([]*big.Int, error) {
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	values, err := event.Inputs.NonIndexed().Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", event.Name, err)
	}
	if len(values) != want {
		return nil, fmt.Errorf("unexpected %s values: %d", event.Name, len(values))
	}

	amounts := make([]*big.Int, 0, len(values))
	for _, value := range values {
		amount, ok := value.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("unsupported int type %T", value)
		}
		amounts = append(amounts, amount)
	}
	return amounts, nil
}

func parseIndexedTopics(event abi.Event, topics []string) ([]common.Hash, error) {
	indexedCount := len(indexedArguments(event.Inputs))
	if len(topics) != indexedCount+1 {
		return nil, fmt.Errorf("expected %d topics, got %d", indexedCount+1, len(topics))
	}

	out := make([]common.Hash, 0, indexedCount)
	for _, topic := range topics[1:] {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
