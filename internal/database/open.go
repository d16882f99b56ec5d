// Package database opens the SQLite sink and classifies its errors.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Molly503/paid-media/internal/pathutil"
)

// DriverSQLite is the database/sql driver name registered by modernc.org/sqlite.
const DriverSQLite = "sqlite"

// DefaultBusyTimeout is how long SQLite waits on a locked database before failing.
const DefaultBusyTimeout = 5 * time.Second

// Open opens or creates a SQLite database at path and checks it is usable.
// The parent directory is created when missing. ":memory:" is accepted as is.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, NewConnectionError("database path is empty", nil)
	}

	dsn := path
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := pathutil.EnsureParentDir(path); err != nil {
			return nil, NewConnectionError("create database dir", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, DefaultBusyTimeout.Milliseconds())
	}

	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, NewConnectionError("open sqlite", err)
	}
	// A single writer connection keeps :memory: databases alive across statements.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, ClassifyDatabaseError(err, "open", "", "")
	}
	return db, nil
}

// QuoteIdentifier quotes a table or column name for use in SQLite statements.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
