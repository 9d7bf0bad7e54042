package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityPool/internal/config"
	"liquidityPool/internal/eventlog"
	"liquidityPool/internal/model"
	"liquidityPool/internal/storage"
)

// decodeFlushSize is the number of input lines decoded between writes.
const decodeFlushSize = 1000

func runDecode(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDecode(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Out == "" {
		return fmt.Errorf("output path is required")
	}
	if cfg.Errors == "" {
		return fmt.Errorf("errors path is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	decoder, err := eventlog.NewDecoder()
	if err != nil {
		return err
	}

	inputFile, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer inputFile.Close()

	out := storage.NewJsonlStorage(cfg.Out)
	errs := storage.NewJsonlStorage(cfg.Errors)
	for _, sink := range []*storage.JsonlStorage{out, errs} {
		if err := sink.Truncate(); err != nil {
			return err
		}
	}

	logger.Info("decode start",
		zap.String("in", cfg.In),
		zap.String("out", cfg.Out),
		zap.String("errors", cfg.Errors),
		zap.Strings("events", cfg.Events),
	)

	stats, err := decodeStream(ctx, inputFile, decoder, eventFilter(cfg.Events), out, errs)
	if err != nil {
		return err
	}

	logger.Info("decode complete",
		zap.Int("total", stats.total),
		zap.Int("decoded", stats.decoded),
		zap.Int("skipped", stats.skipped),
		zap.Int("failed", stats.failed),
	)

	return nil
}

type decodeStats struct {
	total, decoded, skipped, failed int
}

// decodeStream decodes every record of r into out. Records that fail to
// decode go to errs; records whose event is filtered out are skipped.
func decodeStream(ctx context.Context, r io.Reader, decoder *eventlog.Decoder, keep func(string) bool, out, errs *storage.JsonlStorage) (decodeStats, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var (
		stats    decodeStats
		events   []model.TypedEvent
		failures []model.DecodeError
	)
	flush := func() error {
		if err := out.PutTypedEvents(ctx, events); err != nil {
			return fmt.Errorf("write typed events: %w", err)
		}
		if err := errs.PutDecodeErrors(ctx, failures); err != nil {
			return fmt.Errorf("write decode errors: %w", err)
		}
		events, failures = events[:0], failures[:0]
		return nil
	}

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.total++

		var record model.LogRecord
		if err := json.Unmarshal(line, &record); err != nil {
			stats.failed++
			failures = append(failures, model.DecodeError{Error: err.Error()})
		} else if event, err := decoder.Decode(record); err != nil {
			stats.failed++
			failures = append(failures, decodeErrorFromRecord(record, err))
		} else if !keep(event.EventName) {
			stats.skipped++
		} else {
			stats.decoded++
			events = append(events, *event)
		}

		if stats.total%decodeFlushSize == 0 {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("scan input: %w", err)
	}
	return stats, flush()
}

func eventFilter(names []string) func(string) bool {
	if len(names) == 0 {
		return func(string) bool { return true }
	}
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[strings.ToLower(name)] = struct{}{}
	}
	return func(name string) bool {
		_, ok := wanted[strings.ToLower(name)]
		return ok
	}
}

func decodeErrorFromRecord(record model.LogRecord, err error) model.DecodeError {
	topic0 := ""
	if len(record.Topics) > 0 {
		topic0 = record.Topics[0]
	}

	return model.DecodeError{
		Seq:      record.Seq,
		TxHash:   record.TxHash,
		LogIndex: record.LogIndex,
		Address:  record.Address,
		Topic0:   topic0,
		Error:    err.Error(),
	}
}

func printJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
