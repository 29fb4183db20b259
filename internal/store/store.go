// Package store defines the persistence capability that keeps the
// in-memory identity index durable across restarts. Two interchangeable
// backends implement it: a PostgreSQL table (one row per enrollment) and
// a local JSON snapshot file.
package store

import (
	"context"

	"github.com/veriface/veriface/internal/index"
)

// Store is the durable backend behind the identity index.
//
// The index is allowed to run ahead of the store: Append failures are
// logged and swallowed by the caller, and a failed LoadSnapshot degrades
// the service to cache-only operation. The store is never ahead of the
// index after a successful startup load.
type Store interface {
	// LoadSnapshot returns every persisted enrollment in a deterministic
	// order suitable for rebuilding the index scan order.
	LoadSnapshot(ctx context.Context) ([]index.Enrollment, error)

	// Append durably records one enrollment.
	Append(ctx context.Context, name string, embedding []float32) error
}
