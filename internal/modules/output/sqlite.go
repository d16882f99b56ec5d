package output

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Molly503/paid-media/internal/database"
	"github.com/Molly503/paid-media/internal/errhandling"
	"github.com/Molly503/paid-media/internal/logger"
	"github.com/Molly503/paid-media/internal/pathutil"
	"github.com/Molly503/paid-media/internal/record"
	"github.com/Molly503/paid-media/pkg/adclean"
)

// Default configuration values for sqlite output
const (
	DefaultSQLiteTable         = "ads_clean"
	defaultSQLiteOutputTimeout = 30 * time.Second
	sqliteColumnTypeReal       = "REAL"
	sqliteColumnTypeText       = "TEXT"
)

// ErrSQLiteOutputMissingPath is returned when no database file is configured.
var ErrSQLiteOutputMissingPath = errors.New("path is required for sqlite output")

// SQLiteOutputConfig holds configuration for the sqlite output module.
type SQLiteOutputConfig struct {
	Path  string `json:"path"`
	Table string `json:"table"`

	// Truncate deletes existing rows before inserting
	Truncate bool `json:"truncate"`

	// OnError handles per-record insert failures: "fail", "skip", "log"
	OnError string `json:"onError"`

	// Retry applies to the whole send when SQLite reports a locked database
	Retry errhandling.RetryConfig `json:"retry"`

	TimeoutMs int `json:"timeoutMs"`
}

// SQLiteOutput writes records into a SQLite table in one transaction.
// The table is created from the record columns when missing: REAL for
// columns whose values are all numeric or missing, TEXT otherwise.
type SQLiteOutput struct {
	config  SQLiteOutputConfig
	onError errhandling.OnErrorStrategy
	timeout time.Duration
	columns []string
	db      *sql.DB
	retry   *errhandling.RetryExecutor
}

// NewSQLiteOutputFromConfig creates a sqlite output module from configuration.
// The database is opened lazily by Send, so dry runs never touch it.
func NewSQLiteOutputFromConfig(cfg *adclean.ModuleConfig) (*SQLiteOutput, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	config := parseSQLiteOutputConfig(cfg.Config)
	if config.Path == "" {
		return nil, ErrSQLiteOutputMissingPath
	}
	if config.Path != ":memory:" {
		if err := pathutil.ValidateFilePath(config.Path); err != nil {
			return nil, fmt.Errorf("invalid sqlite output path: %w", err)
		}
	}
	if config.Table == "" {
		config.Table = DefaultSQLiteTable
	}
	if err := config.Retry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sqlite output retry: %w", err)
	}

	timeout := defaultSQLiteOutputTimeout
	if config.TimeoutMs > 0 {
		timeout = time.Duration(config.TimeoutMs) * time.Millisecond
	}

	logger.Debug("sqlite output module created",
		slog.String("path", config.Path),
		slog.String("table", config.Table),
		slog.Bool("truncate", config.Truncate),
		slog.Int("retry_max_attempts", config.Retry.MaxAttempts),
	)

	return &SQLiteOutput{
		config:  config,
		onError: errhandling.ParseOnErrorStrategy(config.OnError),
		timeout: timeout,
		retry:   errhandling.NewRetryExecutor(config.Retry),
	}, nil
}

func parseSQLiteOutputConfig(cfg map[string]interface{}) SQLiteOutputConfig {
	config := SQLiteOutputConfig{}
	if v, ok := cfg["path"].(string); ok {
		config.Path = v
	}
	if v, ok := cfg["table"].(string); ok {
		config.Table = v
	}
	if v, ok := cfg["truncate"].(bool); ok {
		config.Truncate = v
	}
	if v, ok := cfg["onError"].(string); ok {
		config.OnError = v
	}
	if v, ok := cfg["timeoutMs"].(float64); ok {
		config.TimeoutMs = int(v)
	}
	retry, _ := cfg["retry"].(map[string]interface{})
	config.Retry = errhandling.ParseRetryConfig(retry)
	return config
}

// SetColumns sets the source column order used for the table definition.
func (s *SQLiteOutput) SetColumns(columns []string) {
	s.columns = append([]string(nil), columns...)
}

// Send writes records to the table, retrying the whole transaction while the
// database is locked by another writer.
func (s *SQLiteOutput) Send(ctx context.Context, records []map[string]interface{}) (int, error) {
	startTime := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.db == nil {
		db, err := database.Open(ctx, s.config.Path)
		if err != nil {
			return 0, err
		}
		s.db = db
	}

	columns := record.Columns(s.columns, records)
	if len(columns) == 0 {
		logger.Warn("sqlite output has no columns to write", slog.String("table", s.config.Table))
		return 0, nil
	}

	var sent int
	err := s.retry.Execute(ctx, func(ctx context.Context) error {
		var err error
		sent, err = s.sendWithTransaction(ctx, columns, records)
		return err
	})
	info := s.retry.GetRetryInfo()
	if err != nil {
		logger.Error("sqlite output send failed",
			slog.String("table", s.config.Table),
			slog.Int("attempts", info.TotalAttempts),
			slog.Duration("duration", time.Since(startTime)),
			slog.String("error", err.Error()),
		)
		return 0, err
	}

	logger.Info("sqlite output written",
		slog.String("path", s.config.Path),
		slog.String("table", s.config.Table),
		slog.Int("record_count", len(records)),
		slog.Int("sent_count", sent),
		slog.Int("retries", info.RetryCount),
		slog.Duration("duration", time.Since(startTime)),
	)
	return sent, nil
}

func (s *SQLiteOutput) sendWithTransaction(ctx context.Context, columns []string, records []map[string]interface{}) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, database.ClassifyDatabaseError(err, "begin", s.config.Table, "")
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.ensureTable(ctx, tx, columns, records); err != nil {
		return 0, err
	}
	if s.config.Truncate {
		query := "DELETE FROM " + database.QuoteIdentifier(s.config.Table)
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return 0, database.ClassifyDatabaseError(err, "truncate", s.config.Table, query)
		}
	}

	query := buildInsertQuery(s.config.Table, columns)
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, database.ClassifyDatabaseError(err, "prepare", s.config.Table, query)
	}
	defer stmt.Close()

	sent := 0
	args := make([]interface{}, len(columns))
	for i, rec := range records {
		for j, col := range columns {
			args[j] = sqliteValue(rec[col])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			dbErr := database.ClassifyDatabaseError(err, "insert", s.config.Table, query)
			if dbErr.Retryable {
				return 0, dbErr
			}
			if herr := s.handleRecordError(i, dbErr); herr != nil {
				return 0, herr
			}
			continue
		}
		sent++
	}

	if err := tx.Commit(); err != nil {
		return 0, database.NewTransactionError("commit failed", err, database.IsRetryableError(err))
	}
	return sent, nil
}

func (s *SQLiteOutput) handleRecordError(recordIdx int, err error) error {
	switch s.onError {
	case errhandling.OnErrorSkip:
		logger.Warn("skipping record due to insert error",
			slog.Int("record_index", recordIdx),
			slog.String("error", err.Error()),
		)
		return nil
	case errhandling.OnErrorLog:
		logger.Error("insert error (continuing)",
			slog.Int("record_index", recordIdx),
			slog.String("error", err.Error()),
		)
		return nil
	default:
		return err
	}
}

// ensureTable creates the table when missing and adds columns it lacks.
func (s *SQLiteOutput) ensureTable(ctx context.Context, tx *sql.Tx, columns []string, records []map[string]interface{}) error {
	types := inferColumnTypes(columns, records)

	defs := make([]string, len(columns))
	for i, col := range columns {
		defs[i] = database.QuoteIdentifier(col) + " " + types[col]
	}
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", database.QuoteIdentifier(s.config.Table), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return database.ClassifyDatabaseError(err, "create", s.config.Table, create)
	}

	existing, err := tableColumns(ctx, tx, s.config.Table)
	if err != nil {
		return err
	}
	for _, col := range columns {
		if _, ok := existing[col]; ok {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", database.QuoteIdentifier(s.config.Table), database.QuoteIdentifier(col), types[col])
		if _, err := tx.ExecContext(ctx, alter); err != nil {
			return database.ClassifyDatabaseError(err, "alter", s.config.Table, alter)
		}
		logger.Debug("sqlite output added column", slog.String("table", s.config.Table), slog.String("column", col))
	}
	return nil
}

func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]struct{}, error) {
	query := "SELECT name FROM pragma_table_info(?)"
	rows, err := tx.QueryContext(ctx, query, table)
	if err != nil {
		return nil, database.ClassifyDatabaseError(err, "describe", table, query)
	}
	defer rows.Close()

	cols := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, database.ClassifyDatabaseError(err, "describe", table, query)
		}
		cols[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, database.ClassifyDatabaseError(err, "describe", table, query)
	}
	return cols, nil
}

// inferColumnTypes picks REAL for columns holding only numbers or missing values.
func inferColumnTypes(columns []string, records []map[string]interface{}) map[string]string {
	types := make(map[string]string, len(columns))
	for _, col := range columns {
		types[col] = sqliteColumnTypeReal
		for _, rec := range records {
			v := rec[col]
			if v == nil {
				continue
			}
			if _, isString := v.(string); isString {
				types[col] = sqliteColumnTypeText
				break
			}
			if _, ok := record.Float(v); !ok {
				types[col] = sqliteColumnTypeText
				break
			}
		}
	}
	return types
}

func buildInsertQuery(table string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = database.QuoteIdentifier(col)
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		database.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

// sqliteValue converts a record value into a driver argument.
func sqliteValue(v interface{}) interface{} {
	switch n := v.(type) {
	case nil, string:
		return n
	case float64:
		if math.IsNaN(n) {
			return nil
		}
		return n
	}
	if f, ok := record.Float(v); ok {
		return f
	}
	return record.FormatCell(v)
}

// Close releases the database handle.
func (s *SQLiteOutput) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

var (
	_ Module      = (*SQLiteOutput)(nil)
	_ ColumnAware = (*SQLiteOutput)(nil)
)
