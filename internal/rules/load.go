package rules

// load.go parses the rule document. Parsing goes through yaml.v3 nodes
// rather than a plain map so field declaration order survives; JSON is a
// YAML subset, so the canonical validation_rules.json loads unchanged.

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var validTypes = map[string]FieldType{
	"int":    TypeInt,
	"float":  TypeFloat,
	"date":   TypeDate,
	"string": TypeString,
}

// Load reads and parses a rule document from disk.
func Load(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	rs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// Parse builds a RuleSet from document bytes, rejecting structural
// violations eagerly.
func Parse(data []byte) (*RuleSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, configErrorf("document does not parse: %v", err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, configErrorf("document is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, configErrorf("top level must be a mapping of entities")
	}

	rs := &RuleSet{entities: make(map[string][]FieldRule)}

	for i := 0; i < len(root.Content); i += 2 {
		entityKey := root.Content[i]
		entityVal := root.Content[i+1]
		entity := entityKey.Value

		if entityVal.Kind != yaml.MappingNode {
			return nil, configErrorf("entity %q must map field names to rules", entity)
		}

		fields, err := parseEntity(entity, entityVal)
		if err != nil {
			return nil, err
		}
		rs.entities[entity] = fields
		rs.order = append(rs.order, entity)
	}

	return rs, nil
}

func parseEntity(entity string, node *yaml.Node) ([]FieldRule, error) {
	var fields []FieldRule

	for i := 0; i < len(node.Content); i += 2 {
		fieldKey := node.Content[i]
		fieldVal := node.Content[i+1]
		field := fieldKey.Value

		if fieldVal.Kind != yaml.MappingNode {
			return nil, configErrorf("rule for %s.%s must be a mapping", entity, field)
		}

		rule, err := parseFieldRule(entity, field, fieldVal)
		if err != nil {
			return nil, err
		}
		fields = append(fields, rule)
	}

	return fields, nil
}

func parseFieldRule(entity, field string, node *yaml.Node) (FieldRule, error) {
	rule := FieldRule{Field: field}

	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i].Value
		val := node.Content[i+1]

		switch key {
		case "type":
			ft, ok := validTypes[val.Value]
			if !ok {
				return FieldRule{}, configErrorf(
					"invalid type %q for %s.%s (valid: int, float, date, string)",
					val.Value, entity, field)
			}
			rule.Type = ft
		case "required":
			var b bool
			if err := val.Decode(&b); err != nil {
				return FieldRule{}, configErrorf("required for %s.%s must be a boolean", entity, field)
			}
			rule.Required = b
		case "regex":
			// Anchor at the start: rule matching searches from position
			// zero, it does not require a full match.
			re, err := regexp.Compile("^(?:" + val.Value + ")")
			if err != nil {
				return FieldRule{}, configErrorf("invalid regex for %s.%s: %v", entity, field, err)
			}
			rule.Regex = re
			rule.Pattern = val.Value
		}
	}

	return rule, nil
}
