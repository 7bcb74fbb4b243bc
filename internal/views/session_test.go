package views

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDemo(t *testing.T, initial url.Values) *Session[string] {
	t.Helper()
	s, err := Open(context.Background(), demoDefinition(), initial, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.Eventually(t, func() bool {
		_, ok := s.Controller.Data()
		return ok
	}, 2*time.Second, time.Millisecond)
	return s
}

func TestParseFormSeparatesBlankAndRejected(t *testing.T) {
	s := openDemo(t, nil)

	values, rejected := s.ParseForm(url.Values{
		"accountId": {"abc"},
		"kind":      {""},
		"unknown":   {"x"},
	})

	assert.Equal(t, []string{"accountId"}, rejected)
	require.Contains(t, values, "kind")
	assert.Nil(t, values["kind"])
	assert.NotContains(t, values, "accountId")
	assert.NotContains(t, values, "unknown")
}

func TestNavigateReportsOwnedChangesOnly(t *testing.T) {
	s := openDemo(t, url.Values{"accountId": {"1"}, "tab": {"x"}})

	assert.False(t, s.Navigate(url.Values{"accountId": {"1"}, "tab": {"y"}}))
	assert.True(t, s.Navigate(url.Values{"accountId": {"2"}}))
	assert.Equal(t, int64(2), s.Controller.Value("accountId"))
	assert.Equal(t, url.Values{"accountId": {"2"}}, s.OwnedQuery())
}

func TestToggleFollowsFieldChanges(t *testing.T) {
	s := openDemo(t, nil)

	_, err := s.Toggle("kind", "a")
	require.NoError(t, err)
	require.NoError(t, s.Controller.SetField("kind", "b"))

	// The field moved to b, so clicking a selects it instead of clearing.
	change, err := s.Toggle("kind", "a")
	require.NoError(t, err)
	assert.True(t, change.Selected)
	assert.Equal(t, "b", change.Previous)

	states := s.ToggleStates()
	require.Len(t, states, 1)
	assert.Equal(t, "a", states[0].Selected)
}

func TestOpenRejectsToggleOnUnknownField(t *testing.T) {
	def := demoDefinition()
	def.Toggles = []ToggleBinding{{Group: "g", Field: "missing", Options: []string{"x"}}}
	_, err := Open(context.Background(), def, nil, Options{})
	require.Error(t, err)
}
