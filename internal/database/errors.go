package database

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories for database operations
const (
	CategoryConnection  = "connection"
	CategoryQuery       = "query"
	CategoryConstraint  = "constraint"
	CategoryTransaction = "transaction"
	CategoryBusy        = "busy"
	CategoryTimeout     = "timeout"
)

// DatabaseError represents a categorized database error with context.
//
//nolint:revive // DatabaseError reads better than Error at call sites
type DatabaseError struct {
	Category    string // connection, query, constraint, transaction, busy, timeout
	Operation   string // open, create, insert, truncate, commit
	Message     string // User-friendly error message
	Table       string // Table involved, if any
	Query       string // Statement that failed, truncated, never with values
	OriginalErr error
	Retryable   bool
}

func (e *DatabaseError) Error() string {
	msg := fmt.Sprintf("database %s error in %s: %s", e.Category, e.Operation, e.Message)
	if e.Table != "" {
		msg = fmt.Sprintf("database %s error in %s on %s: %s", e.Category, e.Operation, e.Table, e.Message)
	}
	if e.OriginalErr != nil {
		msg += fmt.Sprintf(" (original: %v)", e.OriginalErr)
	}
	return msg
}

func (e *DatabaseError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns true if the error is transient and can be retried.
func (e *DatabaseError) IsRetryable() bool {
	return e.Retryable
}

// NewDatabaseError creates a new database error with the given details.
func NewDatabaseError(category, operation, message string, originalErr error, retryable bool) *DatabaseError {
	return &DatabaseError{
		Category:    category,
		Operation:   operation,
		Message:     message,
		OriginalErr: originalErr,
		Retryable:   retryable,
	}
}

// NewConnectionError creates an error for a database that cannot be opened.
func NewConnectionError(message string, originalErr error) *DatabaseError {
	return NewDatabaseError(CategoryConnection, "open", message, originalErr, false)
}

// NewTransactionError creates a transaction error.
func NewTransactionError(message string, originalErr error, retryable bool) *DatabaseError {
	return NewDatabaseError(CategoryTransaction, "transaction", message, originalErr, retryable)
}

// ClassifyDatabaseError classifies a raw SQLite error into a DatabaseError.
func ClassifyDatabaseError(err error, operation, table, query string) *DatabaseError {
	if err == nil {
		return nil
	}

	var existing *DatabaseError
	if errors.As(err, &existing) {
		return existing
	}

	msg := strings.ToLower(err.Error())
	dbErr := &DatabaseError{
		Operation:   operation,
		Table:       table,
		Query:       sanitizeQuery(query),
		OriginalErr: err,
	}

	switch {
	case isBusyError(msg):
		dbErr.Category, dbErr.Message, dbErr.Retryable = CategoryBusy, "database is locked by another writer", true
	case isTimeoutError(msg):
		dbErr.Category, dbErr.Message, dbErr.Retryable = CategoryTimeout, "operation timed out", true
	case isConnectionError(msg):
		dbErr.Category, dbErr.Message = CategoryConnection, "database file cannot be opened"
	case isConstraintError(msg):
		dbErr.Category, dbErr.Message = CategoryConstraint, extractConstraintMessage(msg)
	case isSyntaxError(msg):
		dbErr.Category, dbErr.Message = CategoryQuery, "SQL syntax error"
	default:
		dbErr.Category, dbErr.Message = CategoryQuery, err.Error()
	}
	return dbErr
}

func containsAny(s string, indicators ...string) bool {
	for _, indicator := range indicators {
		if strings.Contains(s, indicator) {
			return true
		}
	}
	return false
}

// isBusyError matches SQLITE_BUSY and SQLITE_LOCKED.
func isBusyError(errMsg string) bool {
	return containsAny(errMsg, "database is locked", "sqlite_busy", "database table is locked", "sqlite_locked")
}

func isTimeoutError(errMsg string) bool {
	return containsAny(errMsg, "timeout", "timed out", "deadline exceeded")
}

func isConnectionError(errMsg string) bool {
	return containsAny(errMsg,
		"unable to open database",
		"sqlite_cantopen",
		"file is not a database",
		"sqlite_notadb",
		"disk i/o error",
		"readonly database",
		"sql: database is closed",
	)
}

func isConstraintError(errMsg string) bool {
	return containsAny(errMsg, "constraint failed", "sqlite_constraint", "constraint violation")
}

func isSyntaxError(errMsg string) bool {
	return containsAny(errMsg, "syntax error", "near \"", "no such table", "no such column", "has no column named")
}

// extractConstraintMessage extracts a user-friendly message from a constraint error.
func extractConstraintMessage(errMsg string) string {
	switch {
	case strings.Contains(errMsg, "unique"):
		return "unique constraint violation: duplicate value exists"
	case strings.Contains(errMsg, "not null"):
		return "not-null constraint violation: required field is null"
	case strings.Contains(errMsg, "check"):
		return "check constraint violation: value does not meet requirements"
	}
	return "constraint violation"
}

// sanitizeQuery truncates long statements for logging.
func sanitizeQuery(query string) string {
	if len(query) > 500 {
		return query[:500] + "... (truncated)"
	}
	return query
}

// GetDatabaseError extracts the DatabaseError from an error chain.
func GetDatabaseError(err error) *DatabaseError {
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr
	}
	return nil
}

// IsRetryableError checks if a database error is retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if dbErr := GetDatabaseError(err); dbErr != nil {
		return dbErr.Retryable
	}
	msg := strings.ToLower(err.Error())
	return isBusyError(msg) || isTimeoutError(msg)
}
