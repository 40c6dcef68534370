// Package rules loads and structurally validates the per-entity field rule
// document that drives validation. All structural checks happen at load
// time; a RuleSet handed to the validation engine is immutable and known
// good.
package rules

import (
	"fmt"
	"regexp"
)

// FieldType enumerates the supported coercion targets.
type FieldType int

const (
	TypeNone FieldType = iota // no type declared, value passes through
	TypeInt
	TypeFloat
	TypeDate
	TypeString
)

// String returns the document-level spelling of the type.
func (t FieldType) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeDate:
		return "date"
	case TypeString:
		return "string"
	default:
		return "none"
	}
}

// FieldRule is one field's constraints. Regex is pre-compiled at load time,
// anchored at the start of the subject (search-from-position-zero
// semantics).
type FieldRule struct {
	Field    string
	Type     FieldType
	Required bool
	Regex    *regexp.Regexp
	Pattern  string // original pattern text, for messages
}

// RuleSet maps entity names to their ordered field rules. Field order
// follows declaration order in the source document.
type RuleSet struct {
	entities map[string][]FieldRule
	order    []string
}

// RulesFor returns the rules for an entity in declaration order. An absent
// entity is not an error at this layer.
func (rs *RuleSet) RulesFor(entity string) ([]FieldRule, bool) {
	if rs == nil {
		return nil, false
	}
	fields, ok := rs.entities[entity]
	return fields, ok
}

// Entities lists the entities declared in the document, in document order.
func (rs *RuleSet) Entities() []string {
	if rs == nil {
		return nil
	}
	out := make([]string, len(rs.order))
	copy(out, rs.order)
	return out
}

// ConfigError reports a malformed rule document. It is fatal: no rows are
// processed against a document that fails to load.
type ConfigError struct {
	Detail string
}

func (e *ConfigError) Error() string {
	return "rules: " + e.Detail
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Detail: fmt.Sprintf(format, args...)}
}
