// Package toggle implements a single-select button group whose active option
// can be cleared by selecting it again.
package toggle

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownOption is returned when a value is not one of the group's options.
var ErrUnknownOption = errors.New("toggle: unknown option")

// Change is emitted after every selection. Selected is false when the active
// option was clicked again and the group is now empty.
type Change struct {
	Value    string
	Previous string
	Selected bool
}

// Group is a mutually exclusive option group.
type Group struct {
	mu       sync.Mutex
	options  []string
	value    string
	selected bool
	subs     map[int]func(Change)
	nextID   int
}

// New returns a group with no option selected.
func New(options ...string) *Group {
	return &Group{
		options: slices.Clone(options),
		subs:    make(map[int]func(Change)),
	}
}

// Options lists the selectable values in display order.
func (g *Group) Options() []string {
	return slices.Clone(g.options)
}

// Value returns the selected option.
func (g *Group) Value() (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.value, g.selected
}

// Select handles a click on value.
func (g *Group) Select(value string) (Change, error) {
	if !slices.Contains(g.options, value) {
		return Change{}, fmt.Errorf("%w: %q", ErrUnknownOption, value)
	}
	g.mu.Lock()
	change := Change{Previous: g.value}
	if g.selected && g.value == value {
		g.value, g.selected = "", false
	} else {
		g.value, g.selected = value, true
		change.Value, change.Selected = value, true
	}
	subs := g.listeners()
	g.mu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
	return change, nil
}

// Reset sets the selection without notifying listeners. An empty value clears it.
func (g *Group) Reset(value string) error {
	if value != "" && !slices.Contains(g.options, value) {
		return fmt.Errorf("%w: %q", ErrUnknownOption, value)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value, g.selected = value, value != ""
	return nil
}

// OnChange registers fn for every later selection.
func (g *Group) OnChange(fn func(Change)) (cancel func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.nextID
	g.nextID++
	g.subs[id] = fn
	return func() {
		g.mu.Lock()
		delete(g.subs, id)
		g.mu.Unlock()
	}
}

func (g *Group) listeners() []func(Change) {
	ids := make([]int, 0, len(g.subs))
	for id := range g.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		out = append(out, g.subs[id])
	}
	return out
}
