package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/normapipe/normapipe/internal/record"
	"github.com/normapipe/normapipe/internal/rules"
)

// Coerce converts a non-null raw value into the declared type: int64,
// float64, time.Time (strict YYYY-MM-DD) or trimmed string. A failed
// coercion returns an error; the caller decides whether that drops the row.
func Coerce(value any, target rules.FieldType) (any, error) {
	switch target {
	case rules.TypeInt:
		return coerceInt(value)
	case rules.TypeFloat:
		return coerceFloat(value)
	case rules.TypeDate:
		return coerceDate(value)
	case rules.TypeString:
		return strings.TrimSpace(record.CanonicalString(value)), nil
	default:
		return value, nil
	}
}

func coerceInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("not an integer: %v", value)
	}
}

func coerceFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("not a number: %v", value)
	}
}

// coerceDate stringifies the value and parses it strictly as YYYY-MM-DD.
// Values already carried as time.Time canonicalize to that form, so they
// pass unchanged modulo time-of-day truncation.
func coerceDate(value any) (any, error) {
	s := strings.TrimSpace(record.CanonicalString(value))
	t, err := time.Parse(record.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("not a %s date: %q", record.DateLayout, s)
	}
	return t, nil
}
