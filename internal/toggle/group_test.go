package toggle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectClearsOnSecondClick(t *testing.T) {
	g := New("A", "B")
	var changes []Change
	cancel := g.OnChange(func(c Change) { changes = append(changes, c) })
	defer cancel()

	_, ok := g.Value()
	require.False(t, ok)

	_, err := g.Select("A")
	require.NoError(t, err)
	v, ok := g.Value()
	assert.True(t, ok)
	assert.Equal(t, "A", v)

	_, err = g.Select("A")
	require.NoError(t, err)
	_, ok = g.Value()
	assert.False(t, ok)

	_, err = g.Select("B")
	require.NoError(t, err)
	v, _ = g.Value()
	assert.Equal(t, "B", v)

	assert.Equal(t, []Change{
		{Value: "A", Selected: true},
		{Previous: "A"},
		{Value: "B", Selected: true},
	}, changes)
}

func TestSwitchingOptionsRecordsPrevious(t *testing.T) {
	g := New("A", "B")
	_, _ = g.Select("A")
	c, err := g.Select("B")
	require.NoError(t, err)
	assert.Equal(t, Change{Value: "B", Previous: "A", Selected: true}, c)
}

func TestUnknownOptionRejected(t *testing.T) {
	g := New("A", "B")
	_, err := g.Select("C")
	assert.ErrorIs(t, err, ErrUnknownOption)
	assert.ErrorIs(t, g.Reset("C"), ErrUnknownOption)
}

func TestResetIsSilent(t *testing.T) {
	g := New("A", "B")
	called := false
	g.OnChange(func(Change) { called = true })

	require.NoError(t, g.Reset("B"))
	v, ok := g.Value()
	assert.True(t, ok)
	assert.Equal(t, "B", v)

	// The synced option behaves as the active one.
	c, err := g.Select("B")
	require.NoError(t, err)
	assert.False(t, c.Selected)
	assert.True(t, called)

	require.NoError(t, g.Reset(""))
	_, ok = g.Value()
	assert.False(t, ok)
}

func TestCancelledListenerIsNotCalled(t *testing.T) {
	g := New("A")
	count := 0
	cancel := g.OnChange(func(Change) { count++ })
	_, _ = g.Select("A")
	cancel()
	_, _ = g.Select("A")
	assert.Equal(t, 1, count)
}
