package filterview

import (
	"context"
	"net/url"
	"sync"
)

// Navigation is one change of a Location's query. Source is empty for
// external navigations and carries the writer id for Replace calls.
type Navigation struct {
	Query  url.Values
	Source string
}

// Location is the query-string state a view is bound to.
//
// Implementations must deliver notifications asynchronously and in order;
// Replace must not call subscribers on the caller's goroutine.
type Location interface {
	Query() url.Values
	Replace(ctx context.Context, q url.Values, source string) error
	Navigate(q url.Values)
	Subscribe(fn func(Navigation)) (cancel func())
}

// MemoryLocation is an in-process Location with an ordered delivery goroutine.
type MemoryLocation struct {
	mu      sync.Mutex
	cond    *sync.Cond
	query   url.Values
	subs    map[int]func(Navigation)
	nextID  int
	queue   []Navigation
	busy    bool
	closed  bool
	history int
}

// NewMemoryLocation starts a location seeded with initial.
func NewMemoryLocation(initial url.Values) *MemoryLocation {
	l := &MemoryLocation{
		query: cloneQuery(initial),
		subs:  make(map[int]func(Navigation)),
	}
	l.cond = sync.NewCond(&l.mu)
	go l.deliver()
	return l
}

// Query returns a copy of the current query.
func (l *MemoryLocation) Query() url.Values {
	l.mu.Lock()
	defer l.mu.Unlock()
	return cloneQuery(l.query)
}

// Replace swaps the current query without adding a history entry.
func (l *MemoryLocation) Replace(ctx context.Context, q url.Values, source string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.query = cloneQuery(q)
	l.enqueue(Navigation{Query: cloneQuery(q), Source: source})
	return nil
}

// Navigate records an external navigation, as a user following a link would.
func (l *MemoryLocation) Navigate(q url.Values) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.query = cloneQuery(q)
	l.history++
	l.enqueue(Navigation{Query: cloneQuery(q)})
}

// HistoryLen counts external navigations; Replace never adds to it.
func (l *MemoryLocation) HistoryLen() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.history
}

// Subscribe registers fn for every later navigation.
func (l *MemoryLocation) Subscribe(fn func(Navigation)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		delete(l.subs, id)
		l.mu.Unlock()
	}
}

// Sync blocks until every queued navigation has been delivered.
func (l *MemoryLocation) Sync() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for (len(l.queue) > 0 || l.busy) && !l.closed {
		l.cond.Wait()
	}
}

// Close stops delivery. Pending navigations are dropped.
func (l *MemoryLocation) Close() error {
	l.mu.Lock()
	l.closed = true
	l.queue = nil
	l.subs = map[int]func(Navigation){}
	l.mu.Unlock()
	l.cond.Broadcast()
	return nil
}

func (l *MemoryLocation) enqueue(nav Navigation) {
	l.queue = append(l.queue, nav)
	l.cond.Broadcast()
}

func (l *MemoryLocation) deliver() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for {
		for len(l.queue) == 0 && !l.closed {
			l.cond.Wait()
		}
		if l.closed {
			return
		}
		nav := l.queue[0]
		l.queue = l.queue[1:]
		subs := make([]func(Navigation), 0, len(l.subs))
		for _, fn := range l.subs {
			subs = append(subs, fn)
		}
		l.busy = true
		l.mu.Unlock()
		for _, fn := range subs {
			fn(nav)
		}
		l.mu.Lock()
		l.busy = false
		l.cond.Broadcast()
	}
}

func cloneQuery(q url.Values) url.Values {
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}
