package views

import (
	"context"
	"fmt"
	"net/url"

	"github.com/odyssey-erp/backoffice/internal/filterview"
	"github.com/odyssey-erp/backoffice/internal/toggle"
)

// Session is one open view: its controller, the location it is bound to and
// its toggle widgets.
type Session[D any] struct {
	Controller *filterview.Controller[D]
	Location   *filterview.MemoryLocation

	schema   filterview.Schema
	codec    filterview.Codec
	toggles  map[string]*toggle.Group
	bindings []ToggleBinding
}

// Open builds and starts a session whose location starts at initial.
func Open[D any](ctx context.Context, def Definition[D], initial url.Values, opts Options) (*Session[D], error) {
	if def.Schema == nil || def.Load == nil {
		return nil, fmt.Errorf("views: %s: schema and load are required", def.Name)
	}
	schema := def.Schema(initial)
	codec := def.codec(schema)
	loc := filterview.NewMemoryLocation(initial)

	ctrl, err := filterview.New(filterview.Config[D]{
		Name:         def.Name,
		Schema:       schema,
		Load:         def.Load,
		Codec:        codec,
		Location:     loc,
		Retry:        opts.Retry,
		Debounce:     opts.Debounce,
		WriteInitial: def.WriteInitial,
		Validator:    opts.Validator,
		Logger:       opts.Logger,
		Metrics:      opts.Metrics,
	})
	if err != nil {
		_ = loc.Close()
		return nil, fmt.Errorf("views: %s: %w", def.Name, err)
	}

	s := &Session[D]{
		Controller: ctrl,
		Location:   loc,
		schema:     schema,
		codec:      codec,
		toggles:    make(map[string]*toggle.Group, len(def.Toggles)),
		bindings:   def.Toggles,
	}
	for _, b := range def.Toggles {
		if _, ok := schema.Field(b.Field); !ok {
			_ = loc.Close()
			return nil, fmt.Errorf("views: %s: toggle %s: %w: %s", def.Name, b.Group, filterview.ErrUnknownField, b.Field)
		}
		s.toggles[b.Group] = toggle.New(b.Options...)
	}

	if err := ctrl.Start(ctx); err != nil {
		_ = loc.Close()
		return nil, err
	}
	return s, nil
}

// Schema returns the fields of the view.
func (s *Session[D]) Schema() filterview.Schema {
	return s.schema
}

// Keys lists the query parameters owned by the view.
func (s *Session[D]) Keys() []string {
	return s.codec.Keys()
}

// OwnedQuery is the view's part of the current location.
func (s *Session[D]) OwnedQuery() url.Values {
	return filterview.OwnedQuery(s.Location.Query(), s.codec.Keys())
}

// Navigate applies q as an inbound navigation and waits for its delivery.
// It reports whether the owned parameters differed from the location.
func (s *Session[D]) Navigate(q url.Values) bool {
	current := filterview.OwnedQuery(s.Location.Query(), s.codec.Keys())
	next := filterview.OwnedQuery(q, s.codec.Keys())
	if current.Encode() == next.Encode() {
		return false
	}
	s.Location.Navigate(q)
	s.Location.Sync()
	return true
}

// ParseForm converts submitted form values into field values. Blank inputs
// clear their field; tokens that do not parse are reported and left out.
func (s *Session[D]) ParseForm(form url.Values) (map[string]any, []string) {
	values := make(map[string]any)
	var rejected []string
	for _, f := range s.schema.Fields {
		raw, ok := form[f.Name]
		if !ok {
			continue
		}
		if blank(raw) {
			values[f.Name] = nil
			continue
		}
		decoded := s.codec.Decode(url.Values{f.Name: raw})
		if v, ok := decoded[f.Name]; ok {
			values[f.Name] = v
			continue
		}
		rejected = append(rejected, f.Name)
	}
	return values, rejected
}

// Toggle clicks value in the named group and applies the resulting change to
// the bound field.
func (s *Session[D]) Toggle(group, value string) (toggle.Change, error) {
	binding, g, err := s.toggle(group)
	if err != nil {
		return toggle.Change{}, err
	}
	// The field is the source of truth; the group only mirrors it.
	if err := g.Reset(s.fieldToken(binding.Field)); err != nil {
		_ = g.Reset("")
	}
	change, err := g.Select(value)
	if err != nil {
		return toggle.Change{}, err
	}
	if !change.Selected {
		return change, s.Controller.ResetField(binding.Field)
	}
	decoded := s.codec.Decode(url.Values{binding.Field: {change.Value}})
	v, ok := decoded[binding.Field]
	if !ok {
		return change, fmt.Errorf("%w: %s=%q", filterview.ErrInvalidValue, binding.Field, change.Value)
	}
	return change, s.Controller.SetField(binding.Field, v)
}

// ToggleState describes a toggle group for presentation.
type ToggleState struct {
	Group    string
	Field    string
	Options  []string
	Selected string
}

// ToggleStates mirrors every toggle group from the current field values.
func (s *Session[D]) ToggleStates() []ToggleState {
	out := make([]ToggleState, 0, len(s.bindings))
	for _, b := range s.bindings {
		selected := s.fieldToken(b.Field)
		if g := s.toggles[b.Group]; g != nil {
			if err := g.Reset(selected); err != nil {
				selected = ""
			}
		}
		out = append(out, ToggleState{Group: b.Group, Field: b.Field, Options: b.Options, Selected: selected})
	}
	return out
}

// Close tears down the controller and its location.
func (s *Session[D]) Close() error {
	err := s.Controller.Close()
	if cerr := s.Location.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Session[D]) toggle(group string) (ToggleBinding, *toggle.Group, error) {
	for _, b := range s.bindings {
		if b.Group == group {
			return b, s.toggles[group], nil
		}
	}
	return ToggleBinding{}, nil, fmt.Errorf("%w: %q", ErrUnknownToggle, group)
}

func (s *Session[D]) fieldToken(field string) string {
	v := s.Controller.Value(field)
	if v == nil || !s.Controller.Enabled(field) {
		return ""
	}
	return s.codec.Encode(filterview.Values{field: v}).Get(field)
}

func blank(raw []string) bool {
	for _, v := range raw {
		if v != "" {
			return false
		}
	}
	return true
}
