// Package ingest is the terminal write step: it reconciles a validated
// batch against persisted rows, inserts only the genuinely new subset in
// one transaction, and links every inserted row to the fixed component.
// Running the same batch twice inserts once; the second run reports full
// duplicate counts and touches nothing.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/normapipe/normapipe/internal/dedup"
	"github.com/normapipe/normapipe/internal/record"
	"github.com/normapipe/normapipe/internal/store"
)

// Engine writes reconciled batches through the store boundary.
type Engine struct {
	store       store.Store
	componentID int64
	log         *slog.Logger
}

// New creates an insert engine bound to a store and a fixed component id.
func New(st store.Store, componentID int64, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{store: st, componentID: componentID, log: log}
}

// Result is the outcome of one write pass. Message is operator-facing
// prose, not machine-parseable.
type Result struct {
	Processed         int    `json:"processed"`
	Existing          int    `json:"existing"`
	DuplicateExisting int    `json:"duplicate_existing"`
	DuplicateInternal int    `json:"duplicate_internal"`
	Inserted          int    `json:"inserted"`
	Linked            int64  `json:"linked"`
	Message           string `json:"message"`
}

// Write persists the new subset of the batch for one entity. An empty batch
// and an all-duplicate batch are both successful no-ops. A uniqueness
// conflict during insert (a record slipping past reconciliation, e.g. a
// concurrent writer) is reported as duplicates skipped, not as a failure.
// Association linking is best-effort: its failure lands in the message but
// never rolls back the committed insert.
func (e *Engine) Write(ctx context.Context, batch []record.Regulation, entity string) (Result, error) {
	res := Result{Processed: len(batch)}

	if len(batch) == 0 {
		res.Message = fmt.Sprintf("entity %s: no new records", entity)
		return res, nil
	}

	existing, err := e.store.ExistingRegulations(ctx, entity)
	if err != nil {
		return res, fmt.Errorf("load existing records for %s: %w", entity, err)
	}
	res.Existing = len(existing)

	rec := dedup.Reconcile(batch, existing)
	res.DuplicateExisting = rec.DuplicateExisting
	res.DuplicateInternal = rec.DuplicateInternal

	e.log.Debug("batch reconciled",
		"entity", entity,
		"processed", len(batch),
		"existing", len(existing),
		"duplicate_existing", rec.DuplicateExisting,
		"duplicate_internal", rec.DuplicateInternal,
		"new", len(rec.New),
	)

	if len(rec.New) == 0 {
		res.Message = fmt.Sprintf("entity %s: no new records after duplicate validation (%d duplicates skipped)",
			entity, rec.DuplicateExisting+rec.DuplicateInternal)
		return res, nil
	}

	ids, err := e.store.InsertRegulations(ctx, rec.New)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Expected race: another writer landed the same records
			// between our read and our insert. The transaction already
			// rolled back; soften the outcome.
			res.Message = fmt.Sprintf("entity %s: some records were duplicates and skipped", entity)
			return res, nil
		}
		return res, fmt.Errorf("insert new records for %s: %w", entity, err)
	}
	res.Inserted = len(ids)

	linkMsg := e.linkComponents(ctx, ids, &res)

	res.Message = fmt.Sprintf(
		"entity %s: processed %d | existing %d | duplicates skipped %d | new inserted %d. %s",
		entity, res.Processed, res.Existing,
		res.DuplicateExisting+res.DuplicateInternal, res.Inserted, linkMsg,
	)
	return res, nil
}

// linkComponents associates inserted ids with the fixed component and
// renders the outcome for the aggregate message.
func (e *Engine) linkComponents(ctx context.Context, ids []int64, res *Result) string {
	if len(ids) == 0 {
		return "no regulation ids to link"
	}

	linked, err := e.store.LinkComponents(ctx, ids, e.componentID)
	if err != nil {
		e.log.Warn("component linking failed", "component_id", e.componentID, "error", err)
		return fmt.Sprintf("error inserting components: %v", err)
	}
	res.Linked = linked
	return fmt.Sprintf("inserted %d regulation components", linked)
}
