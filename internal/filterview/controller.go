package filterview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	// ErrClosed is returned by operations on a torn-down controller or location.
	ErrClosed = errors.New("filterview: closed")
	// ErrNotStarted is returned when the controller is mutated before Start.
	ErrNotStarted = errors.New("filterview: not started")
	// ErrStarted is returned when Start is called twice.
	ErrStarted = errors.New("filterview: already started")
)

var errSuperseded = errors.New("filterview: superseded")

// LoadFunc produces the view data for a filter snapshot.
type LoadFunc[D any] func(ctx context.Context, values Values) (D, error)

// Config wires a Controller. Schema, Load and Codec are the view-specific
// parts; a nil Codec disables query-string synchronization.
type Config[D any] struct {
	Name     string
	Schema   Schema
	Load     LoadFunc[D]
	Codec    Codec
	Location Location
	Retry    RetryPolicy
	// Debounce coalesces valid changes arriving within the window.
	Debounce time.Duration
	// WriteInitial writes the started state to the location once.
	WriteInitial bool
	Validator    *validator.Validate
	Logger       *slog.Logger
	Metrics      Recorder
}

// Phase is the lifecycle phase of a Controller.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitializing
	PhaseIdle
	PhaseLoading
	PhaseRetrying
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitializing:
		return "initializing"
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseRetrying:
		return "retrying"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Status is a consistent read of the load pipeline.
type Status struct {
	Phase   Phase
	Loading bool
	// Pending is set while a debounced reload waits to be dispatched.
	Pending bool
	// Err is the terminal failure of the most recent load, if any.
	Err      error
	Attempts int
	// Generation counts committed results.
	Generation uint64
	Valid      bool
}

// FieldStatus describes one field for presentation.
type FieldStatus struct {
	Name    string
	Kind    Kind
	Value   any
	Enabled bool
	Err     error
}

// View is a consistent read of filter state, data and status.
type View[D any] struct {
	Values  Values
	Fields  []FieldStatus
	Data    D
	HasData bool
	Status  Status
}

// Controller owns the filter state of one view, reloads its data on every
// valid and distinct change, and keeps the state in sync with a Location.
type Controller[D any] struct {
	cfg     Config[D]
	id      string
	log     *slog.Logger
	metrics Recorder

	mu         sync.Mutex
	state      *State
	last       Values
	hasLast    bool
	data       D
	hasData    bool
	phase      Phase
	loading    bool
	err        error
	attempts   int
	gen        uint64
	seq        uint64
	ctx        context.Context
	stop       context.CancelFunc
	cancelLoad context.CancelFunc
	unsub      func()
	timer      *time.Timer
	changed    chan struct{}
}

// New validates cfg and builds the filter state. Nothing runs until Start.
func New[D any](cfg Config[D]) (*Controller[D], error) {
	if cfg.Load == nil {
		return nil, fmt.Errorf("filterview: load function required")
	}
	if cfg.Codec != nil && cfg.Location == nil {
		return nil, fmt.Errorf("filterview: location required when a codec is set")
	}
	state, err := NewState(cfg.Schema, cfg.Validator)
	if err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = "view"
	}
	cfg.Retry = cfg.Retry.withDefaults()
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Controller[D]{
		cfg:     cfg,
		id:      uuid.NewString(),
		log:     logger.With(slog.String("view", cfg.Name)),
		metrics: metrics,
		state:   state,
		changed: make(chan struct{}),
	}, nil
}

// ID identifies the controller as the source of its location writes.
func (c *Controller[D]) ID() string {
	return c.id
}

// Start hydrates from the location, subscribes to it and dispatches the
// initial load. The controller outlives ctx cancellation; call Close.
func (c *Controller[D]) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case PhaseUninitialized:
	case PhaseClosed:
		return ErrClosed
	default:
		return ErrStarted
	}
	c.phase = PhaseInitializing
	c.ctx, c.stop = context.WithCancel(context.WithoutCancel(ctx))

	if c.syncEnabled() {
		c.unsub = c.cfg.Location.Subscribe(c.onNavigate)
		c.hydrate(c.cfg.Location.Query())
	}
	if c.state.Valid() {
		c.last, c.hasLast = c.state.Snapshot(), true
		if c.cfg.WriteInitial && c.syncEnabled() {
			c.writeLocation(c.last)
		}
	}
	c.dispatch()
	c.notify()
	return nil
}

// Close unsubscribes from the location, stops pending timers and cancels
// in-flight loads. Results arriving afterwards are dropped.
func (c *Controller[D]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseClosed {
		return nil
	}
	c.phase = PhaseClosed
	c.loading = false
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.stop != nil {
		c.stop()
	}
	c.notify()
	return nil
}

// SetField assigns a field value as user input would.
func (c *Controller[D]) SetField(name string, value any) error {
	return c.Update(func(s *State) error { return s.Set(name, value) })
}

// SetFields assigns several fields and evaluates the result once.
func (c *Controller[D]) SetFields(values map[string]any) error {
	return c.Update(func(s *State) error {
		for name, v := range values {
			if err := s.Set(name, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// ResetField clears a field.
func (c *Controller[D]) ResetField(name string) error {
	return c.Update(func(s *State) error { return s.Reset(name) })
}

// EnableField brings a disabled field back into validity and the query string.
func (c *Controller[D]) EnableField(name string) error {
	return c.Update(func(s *State) error { return s.Enable(name) })
}

// DisableField drops a field from validity and the query string.
func (c *Controller[D]) DisableField(name string) error {
	return c.Update(func(s *State) error { return s.Disable(name) })
}

// Update applies fn to a copy of the state and commits it when fn succeeds.
// A valid result that differs from the last valid one is written to the
// location and reloaded.
func (c *Controller[D]) Update(fn func(*State) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutable(); err != nil {
		return err
	}
	work := c.state.clone()
	if err := fn(work); err != nil {
		return err
	}
	c.state = work
	c.settle(true)
	c.notify()
	return nil
}

// Reload dispatches a load for the current state even if it did not change.
func (c *Controller[D]) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.mutable(); err != nil {
		return err
	}
	if err := c.state.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFilters, err)
	}
	c.dispatch()
	c.notify()
	return nil
}

// Data returns the last committed result.
func (c *Controller[D]) Data() (D, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data, c.hasData
}

// IsLoading reports whether a dispatched load has not resolved yet.
func (c *Controller[D]) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Values returns the snapshot of enabled fields.
func (c *Controller[D]) Values() Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Snapshot()
}

// Value returns the raw value of one field, enabled or not.
func (c *Controller[D]) Value(name string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Value(name)
}

// Enabled reports whether a field is enabled.
func (c *Controller[D]) Enabled(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Enabled(name)
}

// Valid reports overall filter validity.
func (c *Controller[D]) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Valid()
}

// FieldValid reports the validity of one field.
func (c *Controller[D]) FieldValid(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.FieldValid(name)
}

// Status returns the load pipeline status.
func (c *Controller[D]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status()
}

// View returns state, data and status under one lock.
func (c *Controller[D]) View() View[D] {
	c.mu.Lock()
	defer c.mu.Unlock()
	fields := make([]FieldStatus, 0, len(c.state.schema.Fields))
	for _, f := range c.state.schema.Fields {
		fields = append(fields, FieldStatus{
			Name:    f.Name,
			Kind:    f.Kind,
			Value:   c.state.Value(f.Name),
			Enabled: c.state.Enabled(f.Name),
			Err:     c.state.FieldError(f.Name),
		})
	}
	return View[D]{
		Values:  c.state.Snapshot(),
		Fields:  fields,
		Data:    c.data,
		HasData: c.hasData,
		Status:  c.status(),
	}
}

// Changed returns a channel closed on the next observable change.
func (c *Controller[D]) Changed() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.changed
}

// Wait blocks until the latest dispatch has an outcome or ctx is done.
// A pending retry or debounced reload counts as unsettled.
func (c *Controller[D]) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.phase == PhaseClosed || (!c.loading && c.timer == nil && c.phase != PhaseRetrying) {
			c.mu.Unlock()
			return nil
		}
		ch := c.changed
		c.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Controller[D]) status() Status {
	return Status{
		Phase:      c.phase,
		Loading:    c.loading,
		Pending:    c.timer != nil,
		Err:        c.err,
		Attempts:   c.attempts,
		Generation: c.gen,
		Valid:      c.state.Valid(),
	}
}

func (c *Controller[D]) mutable() error {
	switch c.phase {
	case PhaseUninitialized:
		return ErrNotStarted
	case PhaseClosed:
		return ErrClosed
	}
	return nil
}

func (c *Controller[D]) syncEnabled() bool {
	return c.cfg.Codec != nil && c.cfg.Location != nil
}

// onNavigate handles inbound location changes. Echoes of this controller's
// own writes are skipped, and hydration never writes back.
func (c *Controller[D]) onNavigate(nav Navigation) {
	if nav.Source == c.id {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseClosed || c.phase == PhaseUninitialized {
		return
	}
	if !c.hydrate(nav.Query) {
		return
	}
	c.settle(false)
	c.notify()
}

// hydrate applies every decodable parameter and reports whether the state changed.
func (c *Controller[D]) hydrate(q url.Values) bool {
	decoded := c.cfg.Codec.Decode(q)
	changed := false
	for name, v := range decoded {
		old := c.state.Value(name)
		before := Values{}
		if old != nil {
			before[name] = old
		}
		if err := c.state.Set(name, v); err != nil {
			c.log.Debug("skip query parameter", slog.String("field", name), slog.Any("error", err))
			continue
		}
		if err := c.state.FieldError(name); err != nil {
			_ = c.state.Set(name, old)
			c.log.Debug("skip query parameter", slog.String("field", name), slog.Any("error", err))
			continue
		}
		if !before.Equal(Values{name: v}) {
			changed = true
		}
	}
	return changed
}

// settle runs after every committed mutation. write is false for changes
// that came from the location itself.
func (c *Controller[D]) settle(write bool) {
	if !c.state.Valid() {
		return
	}
	snap := c.state.Snapshot()
	if c.hasLast && snap.Equal(c.last) {
		return
	}
	c.last, c.hasLast = snap, true
	if write && c.syncEnabled() {
		c.writeLocation(snap)
	}
	c.trigger()
}

func (c *Controller[D]) writeLocation(snap Values) {
	loc := c.cfg.Location
	q := MergeQuery(loc.Query(), c.cfg.Codec.Keys(), c.cfg.Codec.Encode(snap))
	if err := loc.Replace(c.ctx, q, c.id); err != nil {
		c.log.Warn("replace location", slog.Any("error", err))
	}
}

func (c *Controller[D]) trigger() {
	if c.cfg.Debounce <= 0 {
		c.dispatch()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(c.cfg.Debounce, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		// A timer replaced after firing but before taking the lock is stale.
		if c.phase == PhaseClosed || c.timer != t {
			return
		}
		c.timer = nil
		c.dispatch()
		c.notify()
	})
	c.timer = t
	c.notify()
}

// dispatch starts a load for the current snapshot. A pending load is
// superseded: its context is cancelled and its result will not be committed.
func (c *Controller[D]) dispatch() {
	if c.cancelLoad != nil {
		c.cancelLoad()
		if c.loading || c.phase == PhaseRetrying {
			c.metrics.LoadSuperseded(c.cfg.Name)
		}
	}
	c.seq++
	seq := c.seq
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancelLoad = cancel
	c.loading = true
	c.phase = PhaseLoading
	c.err = nil
	c.attempts = 0
	values := c.state.Snapshot()
	c.metrics.LoadDispatched(c.cfg.Name)
	go c.run(ctx, seq, values)
}

func (c *Controller[D]) run(ctx context.Context, seq uint64, values Values) {
	start := time.Now()
	attempt := 0
	maxTries := c.cfg.Retry.MaxAttempts
	data, err := backoff.Retry(ctx, func() (D, error) {
		attempt++
		if !c.beginAttempt(seq, attempt) {
			var zero D
			return zero, backoff.Permanent(errSuperseded)
		}
		d, err := c.cfg.Load(ctx, values.Clone())
		if err == nil {
			return d, nil
		}
		if ctx.Err() != nil {
			return d, backoff.Permanent(ctx.Err())
		}
		if isPermanent(err) {
			return d, backoff.Permanent(err)
		}
		c.failAttempt(seq, attempt, uint(attempt) < maxTries)
		return d, err
	}, backoff.WithBackOff(c.cfg.Retry.backOff()), backoff.WithMaxTries(maxTries))
	c.finish(seq, data, err, time.Since(start))
}

func (c *Controller[D]) current(seq uint64) bool {
	return c.phase != PhaseClosed && seq == c.seq
}

func (c *Controller[D]) beginAttempt(seq uint64, attempt int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(seq) {
		return false
	}
	c.attempts = attempt
	if !c.loading {
		c.loading = true
		c.phase = PhaseLoading
		c.notify()
	}
	return true
}

func (c *Controller[D]) failAttempt(seq uint64, attempt int, willRetry bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !willRetry || !c.current(seq) {
		return
	}
	c.loading = false
	c.phase = PhaseRetrying
	c.metrics.LoadRetried(c.cfg.Name)
	c.log.Debug("load failed, retrying", slog.Int("attempt", attempt))
	c.notify()
}

func (c *Controller[D]) finish(seq uint64, data D, err error, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(seq) {
		return
	}
	c.cancelLoad()
	c.cancelLoad = nil
	c.loading = false
	c.phase = PhaseIdle
	if err != nil {
		c.err = err
		c.metrics.LoadFailed(c.cfg.Name)
		c.log.Warn("load failed", slog.Int("attempts", c.attempts), slog.Any("error", err))
		c.notify()
		return
	}
	c.data, c.hasData = data, true
	c.err = nil
	c.gen++
	c.metrics.LoadCommitted(c.cfg.Name, elapsed)
	c.notify()
}

func (c *Controller[D]) notify() {
	close(c.changed)
	c.changed = make(chan struct{})
}
