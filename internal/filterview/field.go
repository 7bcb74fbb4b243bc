package filterview

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	// ErrUnknownField is returned when a field name is not part of the schema.
	ErrUnknownField = errors.New("filterview: unknown field")
	// ErrInvalidValue is returned when a value does not match the field kind.
	ErrInvalidValue = errors.New("filterview: invalid value")
	// ErrRequired marks a required field without a value.
	ErrRequired = errors.New("filterview: value required")
)

// Kind is the value kind of a filter field.
type Kind int

const (
	KindString Kind = iota + 1
	KindInt
	KindBool
	KindDate
	KindStrings
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindStrings:
		return "strings"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Field declares one filterable field of a view.
type Field struct {
	Name     string
	Kind     Kind
	Default  any
	Required bool
	Disabled bool
	// Options restricts string and strings fields to a fixed set.
	Options []string
	// Rule is a validator tag checked against a present value, e.g. "gt=0".
	Rule string
}

// Schema is the full set of fields of a view plus an optional cross-field check.
type Schema struct {
	Fields []Field
	Check  func(Values) error
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Names returns the field names in declaration order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

func (s Schema) verify() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("filterview: schema has no fields")
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("filterview: field without name")
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("filterview: duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Kind < KindString || f.Kind > KindStrings {
			return fmt.Errorf("filterview: field %q: unsupported kind %s", f.Name, f.Kind)
		}
		if _, err := normalize(f.Kind, f.Default); err != nil {
			return fmt.Errorf("filterview: field %q default: %w", f.Name, err)
		}
	}
	return nil
}

// normalize converts an accepted Go value into the canonical representation
// of kind. Strings are trimmed; blank strings, blank list items and empty
// lists normalize away, so a value decodes to exactly what it encodes.
func normalize(kind Kind, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch kind {
	case KindString:
		switch v := value.(type) {
		case string:
			if v = strings.TrimSpace(v); v == "" {
				return nil, nil
			}
			return v, nil
		case *string:
			if v == nil {
				return nil, nil
			}
			return normalize(kind, *v)
		}
	case KindInt:
		switch v := value.(type) {
		case int:
			return int64(v), nil
		case int32:
			return int64(v), nil
		case int64:
			return v, nil
		case *int64:
			if v == nil {
				return nil, nil
			}
			return *v, nil
		}
	case KindBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case *bool:
			if v == nil {
				return nil, nil
			}
			return *v, nil
		}
	case KindDate:
		switch v := value.(type) {
		case time.Time:
			if v.IsZero() {
				return nil, nil
			}
			return Day(v), nil
		case *time.Time:
			if v == nil {
				return nil, nil
			}
			return normalize(kind, *v)
		}
	case KindStrings:
		switch v := value.(type) {
		case []string:
			list := make([]string, 0, len(v))
			for _, item := range v {
				if item = strings.TrimSpace(item); item != "" {
					list = append(list, item)
				}
			}
			if len(list) == 0 {
				return nil, nil
			}
			return list, nil
		case string:
			return normalize(kind, []string{v})
		}
	}
	return nil, fmt.Errorf("%w: %T for %s field", ErrInvalidValue, value, kind)
}

// Values is a snapshot of enabled, present field values keyed by field name.
// Ints are int64, dates are time.Time at UTC midnight, lists are []string.
type Values map[string]any

// Equal reports deep, kind-aware equality.
func (v Values) Equal(o Values) bool {
	if len(v) != len(o) {
		return false
	}
	for k, a := range v {
		b, ok := o[k]
		if !ok || !equalValue(a, b) {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no mutable state with v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		if list, ok := val.([]string); ok {
			val = slices.Clone(list)
		}
		out[k] = val
	}
	return out
}

func (v Values) String(name string) (string, bool) {
	s, ok := v[name].(string)
	return s, ok
}

func (v Values) Int(name string) (int64, bool) {
	n, ok := v[name].(int64)
	return n, ok
}

func (v Values) Bool(name string) (bool, bool) {
	b, ok := v[name].(bool)
	return b, ok
}

func (v Values) Date(name string) (time.Time, bool) {
	t, ok := v[name].(time.Time)
	return t, ok
}

func (v Values) Strings(name string) []string {
	list, _ := v[name].([]string)
	return list
}

func equalValue(a, b any) bool {
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case []string:
		y, ok := b.([]string)
		return ok && slices.Equal(x, y)
	case int64, bool, string:
		return a == b
	default:
		return false
	}
}
