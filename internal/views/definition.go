// Package views hosts the filtered dashboard views: per-tab sessions, the
// shared HTTP flow and the presentation model.
package views

import (
	"log/slog"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/backoffice/internal/filterview"
)

// ToggleBinding ties a single-select toggle group to a filter field.
// Selecting an option sets the field; re-selecting it clears the field.
type ToggleBinding struct {
	Group   string
	Field   string
	Options []string
}

// Action is a view-specific command posted to /{view}/{name}.
type Action[D any] func(s *Session[D]) error

// Definition describes one filtered view.
type Definition[D any] struct {
	Name  string
	Title string
	// Schema builds the fields. initial is the query the view is opened with.
	Schema func(initial url.Values) filterview.Schema
	// Codec overrides the schema-driven query codec.
	Codec        func(filterview.Schema) filterview.Codec
	Load         filterview.LoadFunc[D]
	WriteInitial bool
	Toggles      []ToggleBinding
	Actions      map[string]Action[D]
	// Present converts the committed data for templates and JSON.
	Present func(v filterview.View[D]) any
}

// Options carries the runtime knobs shared by every view.
type Options struct {
	Retry     filterview.RetryPolicy
	Debounce  time.Duration
	Validator *validator.Validate
	Logger    *slog.Logger
	Metrics   filterview.Recorder
}

func (d Definition[D]) codec(schema filterview.Schema) filterview.Codec {
	if d.Codec != nil {
		return d.Codec(schema)
	}
	return filterview.NewSchemaCodec(schema)
}
