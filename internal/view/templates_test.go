package view

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineParsesEmbeddedTemplates(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	for _, name := range []string{
		"pages/view.html",
		"layouts/header",
		"layouts/footer",
		"partials/filters",
		"partials/saved",
		"partials/stats",
		"partials/logger",
		"partials/payments",
	} {
		assert.NotNil(t, engine.templates.Lookup(name), name)
	}
}

func TestTemplateFuncs(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	tpl, err := engine.templates.New("probe").Parse(
		`{{formatDate .D}}|{{formatDate .Zero}}|{{withQuery "/stats" .Q}}|{{withQuery "/stats" ""}}|{{contains .L "b"}}`)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	err = tpl.Execute(rr, map[string]any{
		"D":    time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		"Zero": time.Time{},
		"Q":    "dateFrom=2024-03-01",
		"L":    []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "05 Mar 2024||/stats?dateFrom=2024-03-01|/stats|true", rr.Body.String())
}

func TestRenderOnNilEngineFails(t *testing.T) {
	var engine *Engine
	assert.Error(t, engine.Render(httptest.NewRecorder(), "pages/view.html", TemplateData{}))
}
