package eventlog

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"liquidityPool/internal/model"
	"liquidityPool/internal/pool"
)

// Recorder is a pool.Observer that buffers every observation as an encoded
// LogRecord. Begin tags subsequent observations with the operation that
// caused them; Drain hands the buffer over.
type Recorder struct {
	mu sync.Mutex

	seq       uint64
	txHash    string
	timestamp uint64
	logIndex  uint64

	records []model.LogRecord
	errs    error

	logger *zap.Logger
	now    func() time.Time
}

func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{logger: logger, now: time.Now}
}

// Begin starts a new operation. Log indexes restart at zero.
func (r *Recorder) Begin(seq uint64, txHash common.Hash, timestamp uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq = seq
	r.txHash = txHash.Hex()
	r.timestamp = timestamp
	r.logIndex = 0
}

// Observe implements pool.Observer.
func (r *Recorder) Observe(address common.Address, event pool.Event) {
	record, err := Encode(address, event)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.logger.Error("encode observation failed",
			zap.Uint64("seq", r.seq),
			zap.String("event", event.EventName()),
			zap.Error(err),
		)
		r.errs = multierr.Append(r.errs, err)
		return
	}

	record.Seq = r.seq
	record.TxHash = r.txHash
	record.LogIndex = r.logIndex
	record.Timestamp = r.timestamp
	record.RecordedAt = r.now().UTC().Format(time.RFC3339Nano)
	r.logIndex++
	r.records = append(r.records, record)
}

// Drain returns the buffered records and any encode failures, and resets both.
func (r *Recorder) Drain() ([]model.LogRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	records, errs := r.records, r.errs
	r.records, r.errs = nil, nil
	return records, errs
}

// Len reports how many records are buffered.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
