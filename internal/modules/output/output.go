// Package output provides implementations for output modules.
// Output modules persist the cleaned records.
package output

import (
	"context"
	"errors"
)

// ErrNilConfig is returned when a module is built without configuration.
var ErrNilConfig = errors.New("output configuration is nil")

// Module represents an output module that sends data to a destination.
type Module interface {
	// Send writes records to the destination.
	// Returns the number of records successfully written and any error.
	Send(ctx context.Context, records []map[string]interface{}) (int, error)

	// Close releases any resources held by the module.
	Close() error
}

// ColumnAware is implemented by outputs that keep the source column order.
type ColumnAware interface {
	SetColumns(columns []string)
}

// FileTarget is implemented by outputs that write a named file.
// The runtime retargets them when the relaxed fallback result is written.
type FileTarget interface {
	Path() string
	SetPath(path string)
}
