// Package filter provides implementations for filter modules.
// Filter modules drop or enrich records between input and output.
package filter

import (
	"context"
	"log/slog"

	"github.com/Molly503/paid-media/internal/errhandling"
	"github.com/Molly503/paid-media/internal/logger"
)

// Module represents a filter module that transforms data.
type Module interface {
	// Process transforms the input records and returns the surviving ones.
	Process(ctx context.Context, records []map[string]interface{}) ([]map[string]interface{}, error)
}

// ctxCheckInterval is how many records are processed between context checks.
const ctxCheckInterval = 256

func checkContext(ctx context.Context, i int) error {
	if i%ctxCheckInterval != 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// handleRecordError applies an onError strategy to a per-record failure.
// It returns err when the strategy is fail and nil when the record should be dropped.
func handleRecordError(strategy errhandling.OnErrorStrategy, module string, recordIdx int, err error) error {
	switch strategy {
	case errhandling.OnErrorSkip:
		logger.Warn("skipping record due to "+module+" error",
			slog.Int("record_index", recordIdx),
			slog.String("error", err.Error()),
		)
		return nil
	case errhandling.OnErrorLog:
		logger.Error(module+" error (continuing)",
			slog.Int("record_index", recordIdx),
			slog.String("error", err.Error()),
		)
		return nil
	default:
		return err
	}
}
