package filterview

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
)

// State holds the current value and enabled flag of every field of a schema.
// State is not safe for concurrent use; the Controller serializes access.
type State struct {
	schema   Schema
	values   map[string]any
	disabled map[string]bool
	validate *validator.Validate
}

// NewState builds a State from the schema defaults. A nil validate is
// replaced by a fresh validator instance.
func NewState(schema Schema, validate *validator.Validate) (*State, error) {
	if err := schema.verify(); err != nil {
		return nil, err
	}
	if validate == nil {
		validate = validator.New()
	}
	s := &State{
		schema:   schema,
		values:   make(map[string]any, len(schema.Fields)),
		disabled: make(map[string]bool),
		validate: validate,
	}
	for _, f := range schema.Fields {
		v, _ := normalize(f.Kind, f.Default)
		if v != nil {
			s.values[f.Name] = v
		}
		if f.Disabled {
			s.disabled[f.Name] = true
		}
	}
	return s, nil
}

// Schema returns the schema the state was built from.
func (s *State) Schema() Schema {
	return s.schema
}

// Set assigns a value to a field. A nil value clears it.
func (s *State) Set(name string, value any) error {
	f, ok := s.schema.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	v, err := normalize(f.Kind, value)
	if err != nil {
		return fmt.Errorf("field %s: %w", name, err)
	}
	if v == nil {
		delete(s.values, name)
		return nil
	}
	s.values[name] = v
	return nil
}

// Reset clears the value of a field.
func (s *State) Reset(name string) error {
	return s.Set(name, nil)
}

// Enable includes the field in validity and snapshots again.
func (s *State) Enable(name string) error {
	if _, ok := s.schema.Field(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	delete(s.disabled, name)
	return nil
}

// Disable excludes the field from validity and snapshots. Its value is kept.
func (s *State) Disable(name string) error {
	if _, ok := s.schema.Field(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	s.disabled[name] = true
	return nil
}

// Enabled reports whether the field takes part in validity and snapshots.
func (s *State) Enabled(name string) bool {
	return !s.disabled[name]
}

// Value returns the raw value of a field regardless of its enabled flag.
func (s *State) Value(name string) any {
	v := s.values[name]
	if list, ok := v.([]string); ok {
		return slices.Clone(list)
	}
	return v
}

// FieldError returns the validation error of a single field, nil when valid
// or disabled.
func (s *State) FieldError(name string) error {
	f, ok := s.schema.Field(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if s.disabled[name] {
		return nil
	}
	v, present := s.values[name]
	if !present {
		if f.Required {
			return fmt.Errorf("%s: %w", name, ErrRequired)
		}
		return nil
	}
	if len(f.Options) > 0 {
		switch x := v.(type) {
		case string:
			if !slices.Contains(f.Options, x) {
				return fmt.Errorf("%s: %w: %q not allowed", name, ErrInvalidValue, x)
			}
		case []string:
			for _, item := range x {
				if !slices.Contains(f.Options, item) {
					return fmt.Errorf("%s: %w: %q not allowed", name, ErrInvalidValue, item)
				}
			}
		}
	}
	if f.Rule != "" {
		if err := s.validate.Var(v, f.Rule); err != nil {
			return fmt.Errorf("%s: %w: %v", name, ErrInvalidValue, err)
		}
	}
	return nil
}

// FieldValid reports whether a single field passes its own rules.
func (s *State) FieldValid(name string) bool {
	return s.FieldError(name) == nil
}

// Err joins every field error and the cross-field check error.
func (s *State) Err() error {
	var errs []error
	for _, f := range s.schema.Fields {
		if err := s.FieldError(f.Name); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if s.schema.Check != nil {
		if err := s.schema.Check(s.Snapshot()); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
	}
	return nil
}

// Valid reports overall validity: every enabled field valid and the check passing.
func (s *State) Valid() bool {
	return s.Err() == nil
}

// Snapshot returns the values of enabled fields that hold a value.
func (s *State) Snapshot() Values {
	out := make(Values, len(s.values))
	for name, v := range s.values {
		if s.disabled[name] {
			continue
		}
		if list, ok := v.([]string); ok {
			v = slices.Clone(list)
		}
		out[name] = v
	}
	return out
}

func (s *State) clone() *State {
	out := &State{
		schema:   s.schema,
		values:   make(map[string]any, len(s.values)),
		disabled: make(map[string]bool, len(s.disabled)),
		validate: s.validate,
	}
	for k, v := range s.values {
		if list, ok := v.([]string); ok {
			v = slices.Clone(list)
		}
		out.values[k] = v
	}
	for k, v := range s.disabled {
		out.disabled[k] = v
	}
	return out
}
