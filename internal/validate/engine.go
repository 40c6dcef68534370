package validate

import (
	"fmt"

	"github.com/normapipe/normapipe/internal/record"
	"github.com/normapipe/normapipe/internal/rules"
)

// Validate checks every row of the frame against the entity's rules and
// returns the surviving rows plus a report. An entity with no registered
// rules passes through unchanged with an all-valid report. A required
// column absent from the frame header fails fast with *SchemaError before
// any row is touched.
func Validate(frame record.Frame, entity string, rs *rules.RuleSet) (record.Frame, Report, error) {
	report := Report{
		TotalInputRows: frame.Len(),
		InvalidByField: map[string]int{},
	}

	fieldRules, ok := rs.RulesFor(entity)
	if !ok {
		report.TotalValidRows = frame.Len()
		return frame, report, nil
	}

	var missing []string
	for _, rule := range fieldRules {
		if rule.Required && !frame.HasColumn(rule.Field) {
			missing = append(missing, rule.Field)
		}
	}
	if len(missing) > 0 {
		return record.Frame{}, Report{}, &SchemaError{Entity: entity, Missing: missing}
	}

	for _, rule := range fieldRules {
		report.InvalidByField[rule.Field] = 0
	}

	clean := record.Frame{Columns: frame.Columns}

	for idx, row := range frame.Rows {
		newRow := row.Clone()
		dropped := false

		for _, rule := range fieldRules {
			value, valid, reason := checkField(row[rule.Field], rule)

			if !valid {
				report.InvalidByField[rule.Field]++
			}

			// A required field that failed or resolved to null discards
			// the row; remaining fields of this row are not evaluated.
			if rule.Required && (!valid || value == nil) {
				cause := fmt.Sprintf("required field %q invalid or missing", rule.Field)
				if reason != "" {
					cause += " (" + reason + ")"
				}
				report.DiscardedRows = append(report.DiscardedRows, DiscardedRow{
					OriginalIndex: idx,
					Reason:        cause,
					RowData:       row,
				})
				dropped = true
				break
			}

			newRow[rule.Field] = value
		}

		if !dropped {
			clean.Rows = append(clean.Rows, newRow)
		}
	}

	report.TotalValidRows = len(clean.Rows)
	report.TotalDroppedRows = len(report.DiscardedRows)
	return clean, report, nil
}

// checkField validates one value against one rule. It returns the coerced
// value (nil when invalid or null), whether every declared check passed,
// and a reason for the first failure.
func checkField(value any, rule rules.FieldRule) (any, bool, string) {
	if record.IsNull(value) {
		return nil, true, ""
	}

	coerced := value
	if rule.Type != rules.TypeNone {
		var err error
		coerced, err = Coerce(value, rule.Type)
		if err != nil {
			return nil, false, fmt.Sprintf("expected %s for %v", rule.Type, value)
		}
	}

	if rule.Regex != nil {
		subject := record.CanonicalString(coerced)
		if !rule.Regex.MatchString(subject) {
			return nil, false, fmt.Sprintf("regex %q did not match", rule.Pattern)
		}
	}

	return coerced, true, ""
}
