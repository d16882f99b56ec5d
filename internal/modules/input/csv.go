package input

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/Molly503/paid-media/internal/errhandling"
	"github.com/Molly503/paid-media/internal/logger"
	"github.com/Molly503/paid-media/internal/pathutil"
	"github.com/Molly503/paid-media/internal/record"
	"github.com/Molly503/paid-media/pkg/adclean"
)

// Error types for the csv input module
var (
	ErrCSVMissingPath     = errors.New("path is required for csv input")
	ErrCSVInvalidDelim    = errors.New("delimiter must be a single character")
	ErrCSVEmptyFile       = errors.New("csv file has no header row")
	ErrCSVDuplicateColumn = errors.New("csv header has a duplicate column")
)

const utf8BOM = "\ufeff"

// CSVInputConfig holds configuration for the csv input module.
type CSVInputConfig struct {
	Path      string `json:"path"`
	Delimiter string `json:"delimiter"`
	OnError   string `json:"onError"`
}

// CSVInput reads the dataset from a delimited text file with a header row.
type CSVInput struct {
	config  CSVInputConfig
	delim   rune
	onError errhandling.OnErrorStrategy
	columns []string
	skipped int
}

// NewCSVInputFromConfig creates a csv input module from configuration.
func NewCSVInputFromConfig(cfg *adclean.ModuleConfig) (*CSVInput, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	config := parseCSVInputConfig(cfg.Config)

	if config.Path == "" {
		return nil, ErrCSVMissingPath
	}
	if err := pathutil.ValidateFilePath(config.Path); err != nil {
		return nil, fmt.Errorf("invalid csv input path: %w", err)
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

	module := &CSVInput{
		config:  config,
		delim:   delim,
		onError: errhandling.ParseOnErrorStrategy(config.OnError),
	}

	logger.Debug("csv input module created",
		slog.String("path", config.Path),
		slog.String("delimiter", string(delim)),
		slog.String("on_error", string(module.onError)),
	)
	return module, nil
}

func parseCSVInputConfig(cfg map[string]interface{}) CSVInputConfig {
	config := CSVInputConfig{}
	if v, ok := cfg["path"].(string); ok {
		config.Path = v
	}
	if v, ok := cfg["delimiter"].(string); ok {
		config.Delimiter = v
	}
	if v, ok := cfg["onError"].(string); ok {
		config.OnError = v
	}
	return config
}

// Fetch reads every data row of the file into records.
// Numeric cells become float64 and missing cells become nil.
func (c *CSVInput) Fetch(ctx context.Context) ([]map[string]interface{}, error) {
	f, err := os.Open(c.config.Path)
	if err != nil {
		return nil, errhandling.NewIOError(fmt.Sprintf("open csv input %s", c.config.Path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = c.delim
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errhandling.NewParseError(c.config.Path, ErrCSVEmptyFile)
	}
	if err != nil {
		return nil, errhandling.NewParseError(fmt.Sprintf("read csv header of %s", c.config.Path), err)
	}
	if err := c.setColumns(header); err != nil {
		return nil, err
	}

	c.skipped = 0
	records := make([]map[string]interface{}, 0, 1024)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err == nil && len(row) != len(c.columns) {
			line, _ := reader.FieldPos(0)
			err = &csv.ParseError{StartLine: line, Line: line, Err: csv.ErrFieldCount}
		}
		if err != nil {
			if herr := c.handleRowError(errorLine(err), err); herr != nil {
				return nil, herr
			}
			continue
		}

		rec := make(map[string]interface{}, len(c.columns))
		for i, col := range c.columns {
			rec[col] = record.ParseCell(row[i])
		}
		records = append(records, rec)
	}

	logger.Info("csv input loaded",
		slog.String("path", c.config.Path),
		slog.Int("record_count", len(records)),
		slog.Int("column_count", len(c.columns)),
		slog.Int("skipped_rows", c.skipped),
	)
	return records, nil
}

func (c *CSVInput) setColumns(header []string) error {
	seen := make(map[string]struct{}, len(header))
	cols := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		h = strings.TrimSpace(h)
		if _, dup := seen[h]; dup {
			return errhandling.NewParseError(c.config.Path, fmt.Errorf("%w: %q", ErrCSVDuplicateColumn, h))
		}
		seen[h] = struct{}{}
		cols[i] = h
	}
	c.columns = cols
	return nil
}

func errorLine(err error) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Line
	}
	return 0
}

func (c *CSVInput) handleRowError(line int, err error) error {
	switch c.onError {
	case errhandling.OnErrorSkip:
		c.skipped++
		logger.Warn("skipping malformed csv row",
			slog.String("path", c.config.Path),
			slog.Int("row", line),
			slog.String("error", err.Error()),
		)
		return nil
	case errhandling.OnErrorLog:
		c.skipped++
		logger.LogError("malformed csv row", logger.ErrorContext{
			Stage: "input",
			Path:  c.config.Path,
			Row:   line,
			Err:   err,
		})
		return nil
	default:
		return errhandling.NewParseError(fmt.Sprintf("%s row %d", c.config.Path, line), err)
	}
}

// Columns returns the header of the last fetched file.
func (c *CSVInput) Columns() []string {
	return append([]string(nil), c.columns...)
}

// Skipped returns the number of malformed rows dropped by the last Fetch.
func (c *CSVInput) Skipped() int {
	return c.skipped
}

// Close releases resources (the file is closed at the end of Fetch).
func (c *CSVInput) Close() error {
	return nil
}

var (
	_ Module         = (*CSVInput)(nil)
	_ ColumnProvider = (*CSVInput)(nil)
)
