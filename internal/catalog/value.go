package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Value holds a condition value as produced by the query planner: a string,
// a number, or a list of strings. The zero Value is empty.
type Value struct {
	str  string
	num  float64
	list []string
	kind valueKind
}

type valueKind int

const (
	valueEmpty valueKind = iota
	valueString
	valueNumber
	valueList
)

// StringValue builds a string Value.
func StringValue(s string) Value {
	return Value{str: s, kind: valueString}
}

// NumberValue builds a numeric Value.
func NumberValue(n float64) Value {
	return Value{num: n, kind: valueNumber}
}

// ListValue builds a string-list Value.
func ListValue(items ...string) Value {
	return Value{list: items, kind: valueList}
}

// String returns the value as a string. Numbers are formatted, lists are
// not representable and return the empty string.
func (v Value) String() string {
	switch v.kind {
	case valueString:
		return v.str
	case valueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	default:
		return ""
	}
}

// Number returns the numeric value. Strings are parsed when possible.
func (v Value) Number() (float64, bool) {
	switch v.kind {
	case valueNumber:
		return v.num, true
	case valueString:
		n, err := strconv.ParseFloat(v.str, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// List returns the value as a string list. Scalar values become a
// single-element list.
func (v Value) List() []string {
	switch v.kind {
	case valueList:
		return v.list
	case valueEmpty:
		return nil
	default:
		return []string{v.String()}
	}
}

// IsEmpty reports whether the value is unset.
func (v Value) IsEmpty() bool {
	return v.kind == valueEmpty
}

// UnmarshalJSON accepts a JSON string, number, or array of strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case string:
		*v = StringValue(t)
	case float64:
		*v = NumberValue(t)
	case []interface{}:
		items := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("%w: list values must be strings", ErrInvalidValue)
			}
			items = append(items, s)
		}
		*v = ListValue(items...)
	case nil:
		*v = Value{}
	default:
		return fmt.Errorf("%w: unsupported value type %T", ErrInvalidValue, raw)
	}
	return nil
}

// MarshalJSON writes the value in its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case valueString:
		return json.Marshal(v.str)
	case valueNumber:
		return json.Marshal(v.num)
	case valueList:
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}
