package storage

import (
	"context"

	"go.uber.org/multierr"

	"liquidityPool/internal/model"
)

// Storage defines a sink for encoded pool observations.
type Storage interface {
	PutLogBatch(ctx context.Context, logs []model.LogRecord) error
}

// Multi writes every batch to each sink in order and reports all failures.
type Multi []Storage

func (m Multi) PutLogBatch(ctx context.Context, logs []model.LogRecord) error {
	var errs error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		errs = multierr.Append(errs, sink.PutLogBatch(ctx, logs))
	}
	return errs
}
