// Package store is the relational store boundary: a read query for existing
// regulations, a transactional bulk insert that returns assigned ids, and
// the component association insert. The Postgres implementation is the real
// one; Memory mirrors its semantics for engine and pipeline tests.
package store

import (
	"context"
	"errors"

	"github.com/normapipe/normapipe/internal/record"
)

// ErrDuplicate marks insert failures caused by a uniqueness conflict.
// Callers downgrade these to a "duplicates skipped" outcome instead of a
// generic failure.
var ErrDuplicate = errors.New("duplicate record")

// Store is the persistence boundary the insert engine writes through.
type Store interface {
	// ExistingRegulations returns identity projections of every persisted
	// regulation for the entity, external links coalesced to "".
	ExistingRegulations(ctx context.Context, entity string) ([]record.Projection, error)

	// InsertRegulations persists the records in one transaction and
	// returns the identifiers the store assigned, in insert order. The
	// whole batch rolls back on any failure.
	InsertRegulations(ctx context.Context, regs []record.Regulation) ([]int64, error)

	// LinkComponents inserts one association row per regulation id against
	// the fixed component and returns how many were linked.
	LinkComponents(ctx context.Context, regulationIDs []int64, componentID int64) (int64, error)

	// Ping verifies connectivity.
	Ping(ctx context.Context) error
}
