package record

// convert.go maps untyped row values onto pgtype values for insertion.
// Invalid or null inputs become pgtype zero values with Valid=false so the
// database receives NULL rather than a zero.

import (
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ToPgText converts a value to pgtype.Text. Empty and nil become NULL.
func ToPgText(v any) pgtype.Text {
	s := strings.TrimSpace(CanonicalString(v))
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate converts a value to pgtype.Date. Accepts time.Time directly or a
// string in the canonical YYYY-MM-DD form.
func ToPgDate(v any) pgtype.Date {
	switch t := v.(type) {
	case time.Time:
		return pgtype.Date{Time: t, Valid: true}
	case string:
		parsed, err := time.Parse(DateLayout, strings.TrimSpace(t))
		if err != nil {
			return pgtype.Date{}
		}
		return pgtype.Date{Time: parsed, Valid: true}
	default:
		return pgtype.Date{}
	}
}

// ToPgTimestamp converts a value to pgtype.Timestamp. Accepts time.Time or a
// "YYYY-MM-DD HH:MM:SS" string.
func ToPgTimestamp(v any) pgtype.Timestamp {
	switch t := v.(type) {
	case time.Time:
		return pgtype.Timestamp{Time: t, Valid: true}
	case string:
		parsed, err := time.Parse("2006-01-02 15:04:05", strings.TrimSpace(t))
		if err != nil {
			return pgtype.Timestamp{}
		}
		return pgtype.Timestamp{Time: parsed, Valid: true}
	default:
		return pgtype.Timestamp{}
	}
}

// ToPgInt8 converts a value to pgtype.Int8.
func ToPgInt8(v any) pgtype.Int8 {
	switch t := v.(type) {
	case int:
		return pgtype.Int8{Int64: int64(t), Valid: true}
	case int64:
		return pgtype.Int8{Int64: t, Valid: true}
	case float64:
		return pgtype.Int8{Int64: int64(t), Valid: true}
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return pgtype.Int8{}
		}
		return pgtype.Int8{Int64: n, Valid: true}
	default:
		return pgtype.Int8{}
	}
}

// ToPgFloat8 converts a value to pgtype.Float8.
func ToPgFloat8(v any) pgtype.Float8 {
	switch t := v.(type) {
	case float64:
		return pgtype.Float8{Float64: t, Valid: true}
	case int:
		return pgtype.Float8{Float64: float64(t), Valid: true}
	case int64:
		return pgtype.Float8{Float64: float64(t), Valid: true}
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return pgtype.Float8{}
		}
		return pgtype.Float8{Float64: f, Valid: true}
	default:
		return pgtype.Float8{}
	}
}

// ToPgBool converts a value to pgtype.Bool.
func ToPgBool(v any) pgtype.Bool {
	switch t := v.(type) {
	case bool:
		return pgtype.Bool{Bool: t, Valid: true}
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "t", "yes", "y", "1":
			return pgtype.Bool{Bool: true, Valid: true}
		case "false", "f", "no", "n", "0":
			return pgtype.Bool{Bool: false, Valid: true}
		}
	}
	return pgtype.Bool{}
}
