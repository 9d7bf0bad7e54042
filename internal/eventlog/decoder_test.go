package eventlog

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"liquidityPool/internal/model"
)

func TestDecoderSwap(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	participant := common.HexToAddress("0x2222222222222222222222222222222222222222")
	assetIn := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	assetOut := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	huge, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)
	data, err := poolABI.Events[EventSwap].Inputs.NonIndexed().Pack(huge, big.NewInt(18))
	if err != nil {
		t.Fatalf("pack swap: %v", err)
	}

	logRecord := buildLogRecord(pool, poolABI.Events[EventSwap].ID, data, []common.Hash{
		topicFromAddress(participant),
		topicFromAddress(assetIn),
		topicFromAddress(assetOut),
	})

	if !decoder.CanDecode(logRecord.Topics[0]) {
		t.Fatalf("swap topic should be decodable")
	}
	event, err := decoder.Decode(logRecord)
	if err != nil {
		t.Fatalf("decode swap: %v", err)
	}

	swap, ok := event.Decoded.(model.SwapEventData)
	if !ok {
		t.Fatalf("decoded type mismatch")
	}
	if swap.AmountIn != huge.String() || swap.AmountOut != "18" {
		t.Fatalf("amounts mismatch: %+v", swap)
	}
	if swap.Participant != participant.Hex() || swap.AssetIn != assetIn.Hex() || swap.AssetOut != assetOut.Hex() {
		t.Fatalf("address mismatch: %+v", swap)
	}
	if event.EventName != EventSwap || event.Seq != 7 || event.LogIndex != 1 {
		t.Fatalf("metadata mismatch: %+v", event)
	}
}

func TestDecoderLiquidity(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x9999999999999999999999999999999999999999")
	provider := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	addedData, err := poolABI.Events[EventLiquidityAdded].Inputs.NonIndexed().Pack(
		big.NewInt(100), big.NewInt(200), big.NewInt(141),
	)
	if err != nil {
		t.Fatalf("pack added: %v", err)
	}
	addedLog := buildLogRecord(pool, poolABI.Events[EventLiquidityAdded].ID, addedData, []common.Hash{topicFromAddress(provider)})

	addedEvent, err := decoder.Decode(addedLog)
	if err != nil {
		t.Fatalf("decode added: %v", err)
	}
	added, ok := addedEvent.Decoded.(model.LiquidityAddedData)
	if !ok {
		t.Fatalf("added type mismatch")
	}
	if added.Amount1 != "100" || added.Amount2 != "200" || added.SharesMinted != "141" {
		t.Fatalf("added amount mismatch: %+v", added)
	}
	if added.Participant != provider.Hex() {
		t.Fatalf("added participant mismatch")
	}

	removedData, err := poolABI.Events[EventLiquidityRemoved].Inputs.NonIndexed().Pack(
		big.NewInt(49), big.NewInt(99), big.NewInt(70),
	)
	if err != nil {
		t.Fatalf("pack removed: %v", err)
	}
	removedLog := buildLogRecord(pool, poolABI.Events[EventLiquidityRemoved].ID, removedData, []common.Hash{topicFromAddress(provider)})

	removedEvent, err := decoder.Decode(removedLog)
	if err != nil {
		t.Fatalf("decode removed: %v", err)
	}
	removed, ok := removedEvent.Decoded.(model.LiquidityRemovedData)
	if !ok {
		t.Fatalf("removed type mismatch")
	}
	if removed.Amount1 != "49" || removed.Amount2 != "99" || removed.SharesBurned != "70" {
		t.Fatalf("removed amount mismatch: %+v", removed)
	}
}

func TestDecoderRejectsMalformedRecords(t *testing.T) {
	poolABI, err := PoolABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}

	pool := common.HexToAddress("0x1111111111111111111111111111111111111111")
	participant := common.HexToAddress("0x2222222222222222222222222222222222222222")
	data, err := poolABI.Events[EventSwap].Inputs.NonIndexed().Pack(big.NewInt(10), big.NewInt(18))
	if err != nil {
		t.Fatalf("pack swap: %v", err)
	}

	unknown := buildLogRecord(pool, common.HexToHash("0x01"), data, nil)
	if decoder.CanDecode(unknown.Topics[0]) {
		t.Fatalf("unknown topic should not be decodable")
	}
	if _, err := decoder.Decode(unknown); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}

	missingTopics := buildLogRecord(pool, poolABI.Events[EventSwap].ID, data, []common.Hash{topicFromAddress(participant)})
	if _, err := decoder.Decode(missingTopics); err == nil {
		t.Fatalf("expected error for wrong topic count")
	}

	truncated := buildLogRecord(pool, poolABI.Events[EventSwap].ID, data[:32], []common.Hash{
		topicFromAddress(participant), topicFromAddress(participant), topicFromAddress(participant),
	})
	if _, err := decoder.Decode(truncated); err == nil {
		t.Fatalf("expected error for truncated data")
	}

	badAddress := buildLogRecord(pool, poolABI.Events[EventSwap].ID, data, nil)
	badAddress.Address = "pool"
	if _, err := decoder.Decode(badAddress); err == nil {
		t.Fatalf("expected error for invalid address")
	}

	if _, err := decoder.Decode(model.LogRecord{}); err == nil {
		t.Fatalf("expected error for missing topics")
	}
}

func buildLogRecord(pool common.Address, topic0 common.Hash, data []byte, indexed []common.Hash) model.LogRecord {
	topics := make([]string, 0, len(indexed)+1)
	topics = append(topics, topic0.Hex())
	for _, topic := range indexed {
		topics = append(topics, topic.Hex())
	}

	return model.LogRecord{
		Seq:       7,
		TxHash:    "0xdef",
		LogIndex:  1,
		Address:   pool.Hex(),
		Topics:    topics,
		Data:      hexutil.Encode(data),
		Timestamp: 1700000000,
	}
}

func topicFromAddress(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}
