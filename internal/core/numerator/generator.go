// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
// This is the domain contract - implementations live in infrastructure layer.
//
// The counter lives in a dedicated row incremented atomically inside the
// caller's transaction; numbers are never derived by scanning for the
// current maximum, so concurrent writers cannot observe the same value.
type Generator interface {
	// GetNextNumber generates the next document number.
	// Pattern: PREFIX-XXXXXX (e.g., INV-000001), or PREFIX-YEAR-XXXXXX
	// when the config includes the year.
	//
	// Supports Strict (DB-level) and Cached (Memory-level) strategies.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber sets the next number value (for migration purposes).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
