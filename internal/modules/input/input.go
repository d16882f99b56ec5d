// Package input provides implementations for input modules.
// Input modules load the advertising dataset into records.
package input

import (
	"context"
	"errors"
)

// ErrNilConfig is returned when a module is built without configuration.
var ErrNilConfig = errors.New("input configuration is nil")

// Module represents an input module that fetches data from a source.
type Module interface {
	// Fetch retrieves the dataset.
	// The context can be used to cancel long-running reads.
	Fetch(ctx context.Context) ([]map[string]interface{}, error)
	// Close releases any resources held by the module.
	Close() error
}

// ColumnProvider is implemented by inputs that know the dataset's column order.
// Outputs use it to keep the source header order.
type ColumnProvider interface {
	Columns() []string
}
