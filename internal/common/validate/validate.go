// Package validate checks raw request payloads against declarative
// per-field schemas before any business logic runs.
package validate

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"auth_api/internal/common"
)

// Type is the expected JSON type of a field.
type Type int

const (
	String Type = iota
	Number
	Bool
)

// Rule describes the constraints on a single field. Coercion (Trim,
// Lowercase) applies only to fields that declare it.
type Rule struct {
	Required  bool
	Type      Type
	MinLen    int
	MaxLen    int
	Pattern   *regexp.Regexp
	Enum      []string
	Trim      bool
	Lowercase bool
	// Label overrides the field name in generated messages; PatternMsg and
	// EnumMsg replace the generic message for their violation.
	Label      string
	PatternMsg string
	EnumMsg    string
}

// Schema maps field names to their rules.
type Schema map[string]Rule

// Apply validates payload against the schema. On success it returns a
// normalized payload containing only the declared fields, with declared
// coercions applied. On failure it returns a ValidationError enumerating
// every violated field.
func (s Schema) Apply(payload map[string]any) (map[string]any, error) {
	violations := make(map[string]string)
	normalized := make(map[string]any, len(s))

	for name, rule := range s {
		raw, present := payload[name]
		if !present || raw == nil {
			if rule.Required {
				violations[name] = rule.label(name) + " is required"
			}
			continue
		}

		switch rule.Type {
		case String:
			value, ok := raw.(string)
			if !ok {
				violations[name] = rule.label(name) + " must be a string"
				continue
			}
			if rule.Trim {
				value = strings.TrimSpace(value)
			}
			if rule.Lowercase {
				value = strings.ToLower(value)
			}
			if reason, ok := rule.checkString(name, value); !ok {
				violations[name] = reason
				continue
			}
			normalized[name] = value
		case Number:
			value, ok := raw.(float64)
			if !ok {
				violations[name] = rule.label(name) + " must be a number"
				continue
			}
			normalized[name] = value
		case Bool:
			value, ok := raw.(bool)
			if !ok {
				violations[name] = rule.label(name) + " must be a boolean"
				continue
			}
			normalized[name] = value
		}
	}

	if len(violations) > 0 {
		return nil, &common.ValidationError{Violations: violations}
	}
	return normalized, nil
}

func (r Rule) checkString(name, value string) (string, bool) {
	if r.Required && value == "" {
		return r.label(name) + " is required", false
	}
	length := utf8.RuneCountInString(value)
	if r.MinLen > 0 && length < r.MinLen {
		return fmt.Sprintf("%s must be at least %d characters", r.label(name), r.MinLen), false
	}
	if r.MaxLen > 0 && length > r.MaxLen {
		return fmt.Sprintf("%s cannot exceed %d characters", r.label(name), r.MaxLen), false
	}
	if r.Pattern != nil && !r.Pattern.MatchString(value) {
		if r.PatternMsg != "" {
			return r.PatternMsg, false
		}
		return r.label(name) + " has an invalid format", false
	}
	if len(r.Enum) > 0 && !slices.Contains(r.Enum, value) {
		if r.EnumMsg != "" {
			return r.EnumMsg, false
		}
		return fmt.Sprintf("%s must be one of: %s", r.label(name), strings.Join(r.Enum, ", ")), false
	}
	return "", true
}

func (r Rule) label(name string) string {
	if r.Label != "" {
		return r.Label
	}
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
