package output

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/Molly503/paid-media/internal/errhandling"
	"github.com/Molly503/paid-media/internal/logger"
	"github.com/Molly503/paid-media/internal/pathutil"
	"github.com/Molly503/paid-media/internal/record"
	"github.com/Molly503/paid-media/pkg/adclean"
)

// ErrCSVInvalidDelim is returned for a delimiter that is not one character.
var ErrCSVInvalidDelim = errors.New("delimiter must be a single character")

// CSVOutputConfig holds configuration for the csv output module.
type CSVOutputConfig struct {
	// Path is the file written (default facebook_ads_final_clean.csv)
	Path      string `json:"path"`
	Delimiter string `json:"delimiter"`
	// Columns restricts and orders the written columns
	Columns []string `json:"columns"`
}

// CSVOutput writes records to a delimited text file with a header row.
// The file is replaced atomically. Numbers are written in their shortest
// round-trip form, so a whole float is written as "100", not "100.0".
// Missing values are empty cells.
type CSVOutput struct {
	config  CSVOutputConfig
	delim   rune
	columns []string
}

// NewCSVOutputFromConfig creates a csv output module from configuration.
func NewCSVOutputFromConfig(cfg *adclean.ModuleConfig) (*CSVOutput, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	config := parseCSVOutputConfig(cfg.Config)
	if config.Path == "" {
		config.Path = adclean.DefaultOutputPath
	}
	if err := pathutil.ValidateFilePath(config.Path); err != nil {
		return nil, fmt.Errorf("invalid csv output path: %w", err)
	}

	delim := ','
	if config.Delimiter != "" {
		if config.Delimiter == `\t` {
			config.Delimiter = "\t"
		}
		if utf8.RuneCountInString(config.Delimiter) != 1 {
			return nil, fmt.Errorf("%w: %q", ErrCSVInvalidDelim, config.Delimiter)
		}
		delim, _ = utf8.DecodeRuneInString(config.Delimiter)
	}

	logger.Debug("csv output module created",
		slog.String("path", config.Path),
		slog.Int("fixed_columns", len(config.Columns)),
	)
	return &CSVOutput{config: config, delim: delim}, nil
}

func parseCSVOutputConfig(cfg map[string]interface{}) CSVOutputConfig {
	config := CSVOutputConfig{}
	if v, ok := cfg["path"].(string); ok {
		config.Path = v
	}
	if v, ok := cfg["delimiter"].(string); ok {
		config.Delimiter = v
	}
	if v, ok := cfg["columns"].([]interface{}); ok {
		for _, c := range v {
			if s, ok := c.(string); ok && s != "" {
				config.Columns = append(config.Columns, s)
			}
		}
	}
	return config
}

// SetColumns sets the source column order used for the header.
func (c *CSVOutput) SetColumns(columns []string) {
	c.columns = append([]string(nil), columns...)
}

// Path returns the file the module writes.
func (c *CSVOutput) Path() string {
	return c.config.Path
}

// SetPath changes the file the module writes.
func (c *CSVOutput) SetPath(path string) {
	c.config.Path = path
}

func (c *CSVOutput) header(records []map[string]interface{}) []string {
	if len(c.config.Columns) > 0 {
		return c.config.Columns
	}
	return record.Columns(c.columns, records)
}

// Send writes the header and every record, replacing the target file.
// An empty record set still produces a header-only file.
func (c *CSVOutput) Send(ctx context.Context, records []map[string]interface{}) (int, error) {
	startTime := time.Now()
	header := c.header(records)

	err := pathutil.WriteFileAtomic(c.config.Path, func(f *os.File) error {
		buf := bufio.NewWriter(f)
		w := csv.NewWriter(buf)
		w.Comma = c.delim

		if len(header) > 0 {
			if err := w.Write(header); err != nil {
				return err
			}
		}
		row := make([]string, len(header))
		for i, rec := range records {
			if i%1024 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			for j, col := range header {
				row[j] = record.FormatCell(rec[col])
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
		return buf.Flush()
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return 0, err
		}
		return 0, errhandling.NewIOError(fmt.Sprintf("write csv output %s", c.config.Path), err)
	}

	logger.Info("csv output written",
		slog.String("path", c.config.Path),
		slog.Int("record_count", len(records)),
		slog.Int("column_count", len(header)),
		slog.Duration("duration", time.Since(startTime)),
	)
	return len(records), nil
}

// Close releases resources (no-op, the file is closed by Send).
func (c *CSVOutput) Close() error {
	return nil
}

var (
	_ Module      = (*CSVOutput)(nil)
	_ ColumnAware = (*CSVOutput)(nil)
	_ FileTarget  = (*CSVOutput)(nil)
)
