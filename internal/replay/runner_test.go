package replay

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityPool/internal/model"
	"liquidityPool/internal/pool"
	"liquidityPool/internal/storage"
)

const (
	testPool   = "0x00000000000000000000000000000000000000aa"
	testAsset1 = "0x000000000000000000000000000000000000a001"
	testAsset2 = "0x000000000000000000000000000000000000b002"
	testAlice  = "0x0000000000000000000000000000000000000a11"
	testBob    = "0x0000000000000000000000000000000000000b0b"
)

func testPoolConfig() pool.Config {
	return pool.Config{
		Address: common.HexToAddress(testPool),
		Asset1:  common.HexToAddress(testAsset1),
		Asset2:  common.HexToAddress(testAsset2),
	}
}

func writeOps(t *testing.T, path string, ops []model.Operation, extra ...string) {
	t.Helper()
	var lines []string
	for _, op := range ops {
		line, err := json.Marshal(op)
		if err != nil {
			t.Fatalf("marshal op: %v", err)
		}
		lines = append(lines, string(line))
	}
	lines = append(lines, extra...)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write ops: %v", err)
	}
}

func seedOps() []model.Operation {
	return []model.Operation{
		{Op: model.OpMint, Account: testAlice, Asset: testAsset1, Amount: "100"},
		{Op: model.OpMint, Account: testAlice, Asset: testAsset2, Amount: "200"},
		{Op: model.OpApprove, Account: testAlice, Asset: testAsset1, Amount: "100"},
		{Op: model.OpApprove, Account: testAlice, Asset: testAsset2, Amount: "200"},
		{Op: model.OpProvide, Account: testAlice, Amount1: "100", Amount2: "200", Timestamp: 1000},
		{Op: model.OpMint, Account: testBob, Asset: testAsset1, Amount: "10"},
		{Op: model.OpApprove, Account: testBob, Asset: testAsset1, Amount: "10"},
		{Op: model.OpSwap, Account: testBob, Direction: "1to2", Amount: "10", Timestamp: 1010},
		// off ratio
		{Op: model.OpProvide, Account: testAlice, Amount1: "50", Amount2: "90", Timestamp: 1020},
	}
}

func countLines(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0
		}
		t.Fatalf("read %s: %v", path, err)
	}
	return len(strings.Split(strings.TrimSpace(string(data)), "\n"))
}

type fixture struct {
	dir        string
	in         string
	out        string
	errs       string
	checkpoint string
}

func newFixture(t *testing.T) fixture {
	dir := t.TempDir()
	return fixture{
		dir:        dir,
		in:         filepath.Join(dir, "ops.jsonl"),
		out:        filepath.Join(dir, "events.jsonl"),
		errs:       filepath.Join(dir, "op_errors.jsonl"),
		checkpoint: filepath.Join(dir, "checkpoint.json"),
	}
}

func (f fixture) runner(publisher Publisher) *Runner {
	return NewRunner(RunConfig{
		InputPath:    f.in,
		Pool:         testPoolConfig(),
		BatchSize:    4,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	}, storage.NewJsonlStorage(f.out), storage.NewJsonlStorage(f.errs), NewFileCheckpointStore(f.checkpoint, true), publisher, zap.NewNop())
}

type memPublisher struct {
	snapshot model.PoolSnapshot
	metrics  []model.PoolMetrics
}

func (m *memPublisher) UpsertPoolSnapshot(_ context.Context, snap model.PoolSnapshot) error {
	m.snapshot = snap
	return nil
}

func (m *memPublisher) UpsertMetrics(_ context.Context, metrics []model.PoolMetrics) error {
	m.metrics = metrics
	return nil
}

func TestRunnerReplaysScript(t *testing.T) {
	f := newFixture(t)
	writeOps(t, f.in, seedOps(), "", "{not json")

	publisher := &memPublisher{}
	summary, err := f.runner(publisher).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if summary.Applied != 8 || summary.Failed != 2 || summary.Events != 2 {
		t.Fatalf("summary mismatch: %+v", summary)
	}
	if summary.Snapshot.Reserve1 != "110" || summary.Snapshot.Reserve2 != "182" {
		t.Fatalf("reserves mismatch: %+v", summary.Snapshot)
	}
	if len(summary.Metrics) != 1 || summary.Metrics[0].SwapCount != 1 || summary.Metrics[0].ProvideCount != 1 {
		t.Fatalf("metrics mismatch: %+v", summary.Metrics)
	}
	if publisher.snapshot.TotalShares != "141" || len(publisher.metrics) != 1 {
		t.Fatalf("publisher mismatch: %+v", publisher)
	}

	if got := countLines(t, f.out); got != 2 {
		t.Fatalf("expected 2 events, got %d", got)
	}
	if got := countLines(t, f.errs); got != 2 {
		t.Fatalf("expected 2 operation errors, got %d", got)
	}

	data, err := os.ReadFile(f.errs)
	if err != nil {
		t.Fatalf("read errors: %v", err)
	}
	var first model.OperationError
	if err := json.Unmarshal([]byte(strings.Split(string(data), "\n")[0]), &first); err != nil {
		t.Fatalf("unmarshal op error: %v", err)
	}
	if first.Seq != 9 || first.Op != model.OpProvide || !strings.Contains(first.Error, pool.ErrRatioMismatch.Error()) {
		t.Fatalf("op error mismatch: %+v", first)
	}

	cp, ok, err := NewFileCheckpointStore(f.checkpoint, true).Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("load checkpoint: ok=%v err=%v", ok, err)
	}
	if cp.LastSeq != 10 || cp.Pool.Reserve2 != "182" {
		t.Fatalf("checkpoint mismatch: %+v", cp)
	}
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	f := newFixture(t)
	ops := seedOps()
	writeOps(t, f.in, ops)
	if _, err := f.runner(nil).Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	ops = append(ops,
		model.Operation{Op: model.OpWithdraw, Account: testAlice, Shares: "141", Timestamp: 1030},
	)
	writeOps(t, f.in, ops)

	summary, err := f.runner(nil).Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if summary.From != 10 || summary.Applied != 1 || summary.Events != 1 {
		t.Fatalf("resume mismatch: %+v", summary)
	}
	if summary.Snapshot.Reserve1 != "0" || summary.Snapshot.TotalShares != "0" {
		t.Fatalf("pool should be empty: %+v", summary.Snapshot)
	}
	if got := countLines(t, f.out); got != 3 {
		t.Fatalf("expected 3 events across runs, got %d", got)
	}

	summary, err = f.runner(nil).Run(context.Background())
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if summary.Applied != 0 || summary.From != 11 {
		t.Fatalf("nothing should be replayed: %+v", summary)
	}
}

func TestRunnerRejectsForeignCheckpoint(t *testing.T) {
	f := newFixture(t)
	writeOps(t, f.in, seedOps())
	if _, err := f.runner(nil).Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	other := NewRunner(RunConfig{
		InputPath: f.in,
		Pool: pool.Config{
			Address: common.HexToAddress("0x00000000000000000000000000000000000000bb"),
			Asset1:  common.HexToAddress(testAsset1),
			Asset2:  common.HexToAddress(testAsset2),
		},
		BatchSize: 4,
	}, storage.NewJsonlStorage(f.out), storage.NewJsonlStorage(f.errs), NewFileCheckpointStore(f.checkpoint, true), nil, nil)
	if _, err := other.Run(context.Background()); err == nil {
		t.Fatalf("expected error for checkpoint of another pool")
	}
}

type flakySink struct {
	failures int
	calls    int
	inner    storage.Storage
}

func (s *flakySink) PutLogBatch(ctx context.Context, logs []model.LogRecord) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("sink unavailable")
	}
	return s.inner.PutLogBatch(ctx, logs)
}

func TestRunnerRetriesSink(t *testing.T) {
	f := newFixture(t)
	writeOps(t, f.in, seedOps())

	sink := &flakySink{failures: 1, inner: storage.NewJsonlStorage(f.out)}
	runner := NewRunner(RunConfig{
		InputPath:    f.in,
		Pool:         testPoolConfig(),
		BatchSize:    100,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}, sink, storage.NewJsonlStorage(f.errs), nil, nil, nil)

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sink.calls != 2 {
		t.Fatalf("expected one retry, got %d calls", sink.calls)
	}
	if got := countLines(t, f.out); got != 2 {
		t.Fatalf("expected 2 events, got %d", got)
	}
}

func TestRunnerFailsWhenSinkStaysDown(t *testing.T) {
	f := newFixture(t)
	writeOps(t, f.in, seedOps())

	sink := &flakySink{failures: 100, inner: storage.NewJsonlStorage(f.out)}
	runner := NewRunner(RunConfig{
		InputPath:    f.in,
		Pool:         testPoolConfig(),
		BatchSize:    100,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	}, sink, storage.NewJsonlStorage(f.errs), NewFileCheckpointStore(f.checkpoint, true), nil, nil)

	if _, err := runner.Run(context.Background()); err == nil {
		t.Fatalf("expected sink failure")
	}
	if _, ok, _ := NewFileCheckpointStore(f.checkpoint, true).Load(context.Background()); ok {
		t.Fatalf("checkpoint must not advance past an unstored batch")
	}
}

type memStateStore struct {
	seq     uint64
	payload []byte
	ok      bool
}

func (m *memStateStore) LoadState(_ context.Context, name string) (uint64, []byte, bool, error) {
	return m.seq, m.payload, m.ok, nil
}

func (m *memStateStore) SaveState(_ context.Context, name string, seq uint64, payload []byte) error {
	m.seq, m.payload, m.ok = seq, payload, true
	return nil
}

func TestDBCheckpointStore(t *testing.T) {
	state := &memStateStore{}
	store := &DBCheckpointStore{Store: state, Name: "replay"}

	if _, ok, err := store.Load(context.Background()); ok || err != nil {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	if err := store.Save(context.Background(), Checkpoint{LastSeq: 42, Pool: model.PoolSnapshot{Reserve1: "1"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	cp, ok, err := store.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if cp.LastSeq != 42 || cp.Pool.Reserve1 != "1" || cp.UpdatedAt == "" {
		t.Fatalf("checkpoint mismatch: %+v", cp)
	}

	state.seq = 41
	if _, _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected error for mismatched seq")
	}
}

func TestReadOperations(t *testing.T) {
	entries, err := readOperations(strings.NewReader("\n{\"op\":\"swap\"}\n  \nbroken\n"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Seq != 1 || entries[0].Op.Op != model.OpSwap || entries[0].ParseErr != nil {
		t.Fatalf("first entry mismatch: %+v", entries[0])
	}
	if entries[1].Seq != 2 || entries[1].ParseErr == nil {
		t.Fatalf("second entry should carry a parse error: %+v", entries[1])
	}
	if entries[0].Hash == entries[1].Hash {
		t.Fatalf("hashes should differ")
	}
}
