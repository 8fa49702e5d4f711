package catalog

import (
	"errors"
	"fmt"
)

// Operator is a comparison applied by a query condition.
type Operator string

// Supported condition operators.
const (
	OpEq       Operator = "eq"       // exact match
	OpILike    Operator = "ilike"    // case-insensitive pattern match
	OpLte      Operator = "lte"      // numeric less-than-or-equal
	OpGte      Operator = "gte"      // numeric greater-than-or-equal
	OpContains Operator = "cs"       // array column contains value
	OpOverlaps Operator = "overlaps" // array column shares any value
	OpRegex    Operator = "regex"    // pattern match, rewritten to ilike before execution
)

// FieldKind classifies a catalog column for condition validation.
type FieldKind int

const (
	FieldText FieldKind = iota
	FieldNumeric
	FieldArray
)

// Schema maps every queryable catalog column to its kind.
var Schema = map[string]FieldKind{
	"brand":           FieldText,
	"model":           FieldText,
	"price":           FieldNumeric,
	"release_year":    FieldNumeric,
	"os":              FieldText,
	"ram":             FieldNumeric,
	"storage":         FieldNumeric,
	"display_type":    FieldText,
	"display_size":    FieldNumeric,
	"resolution":      FieldText,
	"refresh_rate":    FieldNumeric,
	"camera_main":     FieldNumeric,
	"camera_front":    FieldNumeric,
	"camera_features": FieldArray,
	"battery":         FieldNumeric,
	"charging":        FieldText,
	"processor":       FieldText,
	"connectivity":    FieldArray,
	"sensors":         FieldArray,
	"features":        FieldArray,
	"weight":          FieldNumeric,
	"dimensions":      FieldText,
	"rating":          FieldNumeric,
	"stock_status":    FieldText,
	"category":        FieldText,
	"colours":         FieldArray,
}

// Validation errors.
var (
	ErrUnknownField      = errors.New("unknown catalog field")
	ErrInvalidOperator   = errors.New("invalid operator for field")
	ErrEmptyPlan         = errors.New("plan has no conditions")
	ErrInvalidValue      = errors.New("invalid condition value")
	ErrRegexNotRewritten = errors.New("regex condition must be rewritten before execution")
)

// Condition is a single filter within a query plan.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    Value    `json:"value"`
}

// Plan is one executable catalog query: conditions combined with AND.
type Plan struct {
	Description string      `json:"description,omitempty"`
	Conditions  []Condition `json:"queryConditions"`
}

// Validate checks every condition against the schema. Regex conditions pass
// validation here; the executor rewrites them to ilike before the store sees
// them.
func (p Plan) Validate() error {
	if len(p.Conditions) == 0 {
		return ErrEmptyPlan
	}
	for _, c := range p.Conditions {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks a single condition against the schema.
func (c Condition) Validate() error {
	kind, ok := Schema[c.Field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, c.Field)
	}

	switch c.Operator {
	case OpEq:
		// valid on every kind
	case OpILike, OpRegex:
		if kind == FieldNumeric {
			return fmt.Errorf("%w: %s on numeric field %s", ErrInvalidOperator, c.Operator, c.Field)
		}
	case OpLte, OpGte:
		if kind != FieldNumeric {
			return fmt.Errorf("%w: %s on non-numeric field %s", ErrInvalidOperator, c.Operator, c.Field)
		}
		if _, ok := c.Value.Number(); !ok {
			return fmt.Errorf("%w: %s requires a numeric value", ErrInvalidValue, c.Operator)
		}
	case OpContains, OpOverlaps:
		if kind != FieldArray {
			return fmt.Errorf("%w: %s on non-array field %s", ErrInvalidOperator, c.Operator, c.Field)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOperator, c.Operator)
	}
	return nil
}
