// Package validate applies per-field rules to a raw batch, producing a
// cleaned batch and a report. Rows are only discarded over a required field
// that is invalid or null; every other failure is recorded and the row
// survives.
package validate

import (
	"fmt"
	"strings"

	"github.com/normapipe/normapipe/internal/record"
)

// Report summarizes one validation pass. TotalInputRows always equals
// TotalValidRows + TotalDroppedRows.
type Report struct {
	TotalInputRows   int            `json:"total_input_rows"`
	TotalValidRows   int            `json:"total_valid_rows"`
	TotalDroppedRows int            `json:"total_dropped_rows"`
	DiscardedRows    []DiscardedRow `json:"discarded_rows"`
	InvalidByField   map[string]int `json:"invalid_by_field"`
}

// DiscardedRow records one dropped row with its original positional index,
// not the post-filter index.
type DiscardedRow struct {
	OriginalIndex int        `json:"original_index"`
	Reason        string     `json:"reason"`
	RowData       record.Row `json:"row_data"`
}

// SchemaError reports required columns entirely absent from the input
// batch. It is a precondition failure: no row is processed.
type SchemaError struct {
	Entity  string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("entity %q is missing required columns: %s",
		e.Entity, strings.Join(e.Missing, ", "))
}
