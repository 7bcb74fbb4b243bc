// Package viewsession keeps the long-lived per-tab state of open views.
package viewsession

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"
)

// ErrClosed is returned by a registry after Close.
var ErrClosed = errors.New("viewsession: registry closed")

// Key identifies one open view of one browser tab.
type Key struct {
	Session string
	View    string
}

type entry[E io.Closer] struct {
	value    E
	lastSeen time.Time
}

// Registry owns entries keyed by Key and closes them when they expire.
type Registry[E io.Closer] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[Key]*entry[E]
	closed  bool
	logger  *slog.Logger
	now     func() time.Time
}

// NewRegistry builds a registry whose entries expire after ttl of inactivity.
func NewRegistry[E io.Closer](ttl time.Duration, logger *slog.Logger) *Registry[E] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry[E]{
		ttl:     ttl,
		entries: make(map[Key]*entry[E]),
		logger:  logger,
		now:     time.Now,
	}
}

// GetOrCreate returns the entry for key, creating it with create when absent.
// The boolean reports whether the entry was created by this call.
func (r *Registry[E]) GetOrCreate(key Key, create func() (E, error)) (E, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero E
	if r.closed {
		return zero, false, ErrClosed
	}
	if e, ok := r.entries[key]; ok {
		e.lastSeen = r.now()
		return e.value, false, nil
	}
	value, err := create()
	if err != nil {
		return zero, false, err
	}
	r.entries[key] = &entry[E]{value: value, lastSeen: r.now()}
	return value, true, nil
}

// Get returns the entry for key and refreshes its lifetime.
func (r *Registry[E]) Get(key Key) (E, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		var zero E
		return zero, false
	}
	e.lastSeen = r.now()
	return e.value, true
}

// Remove closes and forgets the entry for key.
func (r *Registry[E]) Remove(key Key) error {
	r.mu.Lock()
	e, ok := r.entries[key]
	delete(r.entries, key)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return e.value.Close()
}

// Len counts open entries.
func (r *Registry[E]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep closes entries idle for longer than the ttl and returns how many.
func (r *Registry[E]) Sweep() int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	cutoff := r.now().Add(-r.ttl)
	var expired []E
	for key, e := range r.entries {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e.value)
			delete(r.entries, key)
		}
	}
	r.mu.Unlock()

	for _, value := range expired {
		if err := value.Close(); err != nil {
			r.logger.Warn("close expired view session", slog.Any("error", err))
		}
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (r *Registry[E]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("swept view sessions", slog.Int("count", n))
			}
		}
	}
}

// Close closes every entry and rejects later creations.
func (r *Registry[E]) Close() error {
	r.mu.Lock()
	r.closed = true
	entries := r.entries
	r.entries = make(map[Key]*entry[E])
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := e.value.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
