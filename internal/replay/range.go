package replay

import "fmt"

// SeqRange is an inclusive range of operation sequence numbers.
type SeqRange struct {
	From uint64
	To   uint64
}

// Len returns the number of operations in the range.
func (r SeqRange) Len() uint64 { return r.To - r.From + 1 }

// SplitRange splits [from, to] into consecutive batches of at most batchSize.
func SplitRange(from, to, batchSize uint64) ([]SeqRange, error) {
	if batchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if to < from {
		return nil, fmt.Errorf("to seq must be >= from seq")
	}

	ranges := make([]SeqRange, 0, (to-from)/batchSize+1)
	for start := from; ; {
		end := to
		if to-start >= batchSize {
			end = start + batchSize - 1
		}
		ranges = append(ranges, SeqRange{From: start, To: end})
		if end == to {
			return ranges, nil
		}
		start = end + 1
	}
}
