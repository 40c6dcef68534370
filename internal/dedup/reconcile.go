// Package dedup decides which records of a freshly validated batch are
// genuinely new. Comparison runs over identity keys (title, created_at,
// external_link) built identically on both sides, using set lookups so a
// batch of n records against m persisted rows costs O(n+m).
package dedup

import (
	"github.com/normapipe/normapipe/internal/record"
)

// Result splits a batch into the new subset plus the two duplicate counts.
// Both duplicate kinds are dropped from New; the counts stay separate so
// callers can report "already known" apart from "redundant within this run".
type Result struct {
	New               []record.Regulation
	DuplicateExisting int
	DuplicateInternal int
}

// Reconcile classifies each batch record against the persisted projections.
// Records matching an existing key are duplicates-against-existing; among
// the remainder, repeated keys collapse to the first occurrence in input
// order.
func Reconcile(batch []record.Regulation, existing []record.Projection) Result {
	var res Result
	if len(batch) == 0 {
		return res
	}

	existingKeys := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		existingKeys[p.Key()] = struct{}{}
	}

	seen := make(map[string]struct{}, len(batch))
	for _, reg := range batch {
		key := reg.Key()

		if _, dup := existingKeys[key]; dup {
			res.DuplicateExisting++
			continue
		}
		if _, dup := seen[key]; dup {
			res.DuplicateInternal++
			continue
		}
		seen[key] = struct{}{}
		res.New = append(res.New, reg)
	}

	return res
}
