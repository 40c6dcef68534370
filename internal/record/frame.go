// Package record defines the record shapes that flow through the pipeline:
// the loosely shaped Frame produced by extraction, and the closed Regulation
// type that gets persisted. It also carries the identity-key normalization
// that duplicate detection depends on.
package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical date form used for validation, identity keys
// and persistence.
const DateLayout = "2006-01-02"

// Row is a single raw or validated record keyed by field name. Values are
// untyped scalars: string, int64, float64, bool, time.Time or nil.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Frame is an ordered batch of rows sharing one column set. Columns carry
// the declaration order; Rows preserve input order.
type Frame struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the frame declares the named column.
func (f Frame) HasColumn(name string) bool {
	for _, c := range f.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (f Frame) Len() int { return len(f.Rows) }

// CanonicalString renders a scalar in the form used for regex matching and
// identity keys: dates as YYYY-MM-DD, numbers without exponent noise, nil as
// the empty string.
func CanonicalString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(DateLayout)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// IsNull reports whether a raw value counts as null for validation purposes.
func IsNull(v any) bool {
	return v == nil
}

// NormalizeTitle trims the title for identity comparison.
func NormalizeTitle(s string) string {
	return strings.TrimSpace(s)
}

// IdentityKey builds the composite key that decides whether two records
// denote the same regulation. Both sides of a comparison must pass through
// here or dedup produces false results.
func IdentityKey(title, createdAt, externalLink string) string {
	return NormalizeTitle(title) + "|" + strings.TrimSpace(createdAt) + "|" + externalLink
}
