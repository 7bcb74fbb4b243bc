package filterview

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DefaultMaxAttempts bounds how often a failing load is attempted.
const DefaultMaxAttempts = 3

// ErrInvalidFilters is returned when a reload is requested for an invalid state.
// Loaders may return it to stop retries.
var ErrInvalidFilters = errors.New("filterview: invalid filters")

// RetryPolicy bounds the automatic retry of a failing load.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts == 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.InitialInterval <= 0 {
		p.InitialInterval = 100 * time.Millisecond
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = 2 * time.Second
	}
	return p
}

func (p RetryPolicy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval
	return b
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks a load error that must not be retried.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p) || errors.Is(err, ErrInvalidFilters)
}

// Recorder receives load lifecycle events, typically to feed metrics.
type Recorder interface {
	LoadDispatched(view string)
	LoadCommitted(view string, elapsed time.Duration)
	LoadSuperseded(view string)
	LoadRetried(view string)
	LoadFailed(view string)
}

type nopRecorder struct{}

func (nopRecorder) LoadDispatched(string)               {}
func (nopRecorder) LoadCommitted(string, time.Duration) {}
func (nopRecorder) LoadSuperseded(string)               {}
func (nopRecorder) LoadRetried(string)                  {}
func (nopRecorder) LoadFailed(string)                   {}
