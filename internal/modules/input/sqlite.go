package input

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/Molly503/paid-media/internal/database"
	"github.com/Molly503/paid-media/internal/logger"
	"github.com/Molly503/paid-media/internal/pathutil"
	"github.com/Molly503/paid-media/pkg/adclean"
)

// Error types for the sqlite input module
var (
	ErrSQLiteMissingPath   = errors.New("path is required for sqlite input")
	ErrSQLiteMissingSource = errors.New("table or query is required for sqlite input")
)

const defaultSQLiteTimeout = 30 * time.Second

// SQLiteInputConfig holds configuration for the sqlite input module.
type SQLiteInputConfig struct {
	// Path is the database file
	Path string `json:"path"`
	// Table is read in full when Query is empty
	Table string `json:"table"`
	// Query is an inline SELECT statement
	Query     string `json:"query"`
	TimeoutMs int    `json:"timeoutMs"`
}

// SQLiteInput reads the dataset from a SQLite table or query, for example the
// table written by a previous run's sqlite output.
type SQLiteInput struct {
	config  SQLiteInputConfig
	timeout time.Duration
	db      *sql.DB
	columns []string
}

// NewSQLiteInputFromConfig creates a sqlite input module from configuration.
// The database is opened lazily by Fetch.
func NewSQLiteInputFromConfig(cfg *adclean.ModuleConfig) (*SQLiteInput, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	config := parseSQLiteInputConfig(cfg.Config)

	if config.Path == "" {
		return nil, ErrSQLiteMissingPath
	}
	if config.Path != ":memory:" {
		if err := pathutil.ValidateFilePath(config.Path); err != nil {
			return nil, fmt.Errorf("invalid sqlite input path: %w", err)
		}
	}
	if config.Query == "" && config.Table == "" {
		return nil, ErrSQLiteMissingSource
	}

	timeout := defaultSQLiteTimeout
	if config.TimeoutMs > 0 {
		timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	}

	logger.Debug("sqlite input module created",
		slog.String("path", config.Path),
		slog.String("table", config.Table),
		slog.Bool("has_query", config.Query != ""),
		slog.String("timeout", timeout.String()),
	)
	return &SQLiteInput{config: config, timeout: timeout}, nil
}

func parseSQLiteInputConfig(cfg map[string]interface{}) SQLiteInputConfig {
	config := SQLiteInputConfig{}
	if v, ok := cfg["path"].(string); ok {
		config.Path = v
	}
	if v, ok := cfg["table"].(string); ok {
		config.Table = v
	}
	if v, ok := cfg["query"].(string); ok {
		config.Query = v
	}
	if v, ok := cfg["timeoutMs"].(float64); ok {
		config.TimeoutMs = int(v)
	}
	return config
}

func (s *SQLiteInput) query() string {
	if s.config.Query != "" {
		return s.config.Query
	}
	return "SELECT * FROM " + database.QuoteIdentifier(s.config.Table)
}

// Fetch runs the query and converts every row into a record.
func (s *SQLiteInput) Fetch(ctx context.Context) ([]map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.db == nil {
		db, err := database.Open(ctx, s.config.Path)
		if err != nil {
			return nil, err
		}
		s.db = db
	}

	query := s.query()
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, database.ClassifyDatabaseError(err, "select", s.config.Table, query)
	}
	defer rows.Close()

	records, err := s.rowsToRecords(rows)
	if err != nil {
		return nil, database.ClassifyDatabaseError(err, "select", s.config.Table, query)
	}

	logger.Info("sqlite input loaded",
		slog.String("path", s.config.Path),
		slog.Int("record_count", len(records)),
		slog.Int("column_count", len(s.columns)),
	)
	return records, nil
}

func (s *SQLiteInput) rowsToRecords(rows *sql.Rows) ([]map[string]interface{}, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("getting column names: %w", err)
	}
	s.columns = columns

	records := make([]map[string]interface{}, 0, 256)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		rec := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			rec[col] = convertDatabaseValue(values[i])
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return records, nil
}

// convertDatabaseValue maps SQLite values onto record values: integers become
// float64 like every other numeric cell.
func convertDatabaseValue(val interface{}) interface{} {
	switch v := val.(type) {
	case nil:
		return nil
	case int64:
		return float64(v)
	case float64:
		if math.IsNaN(v) {
			return nil
		}
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	}
	return val
}

// Columns returns the result columns of the last Fetch.
func (s *SQLiteInput) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Close releases the database handle.
func (s *SQLiteInput) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

var (
	_ Module         = (*SQLiteInput)(nil)
	_ ColumnProvider = (*SQLiteInput)(nil)
)
