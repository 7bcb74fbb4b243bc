package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Load outcomes.
const (
	OutcomeDispatched = "dispatched"
	OutcomeCommitted  = "committed"
	OutcomeSuperseded = "superseded"
	OutcomeFailed     = "failed"
)

// ViewMetrics records the load lifecycle of filtered views.
type ViewMetrics struct {
	loads    *prometheus.CounterVec
	retries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newViewMetrics(registerer prometheus.Registerer) *ViewMetrics {
	loads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_view_loads_total",
		Help: "View data loads by view and outcome.",
	}, []string{"view", "outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_view_load_retries_total",
		Help: "Load attempts retried after a transient failure.",
	}, []string{"view"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "backoffice_view_load_duration_seconds",
		Help:    "Time from dispatch to commit of a view load, retries included.",
		Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"view"})
	registerer.MustRegister(loads, retries, duration)
	return &ViewMetrics{loads: loads, retries: retries, duration: duration}
}

func (v *ViewMetrics) LoadDispatched(view string) {
	if v == nil {
		return
	}
	v.loads.WithLabelValues(view, OutcomeDispatched).Inc()
}

func (v *ViewMetrics) LoadCommitted(view string, elapsed time.Duration) {
	if v == nil {
		return
	}
	v.loads.WithLabelValues(view, OutcomeCommitted).Inc()
	v.duration.WithLabelValues(view).Observe(elapsed.Seconds())
}

func (v *ViewMetrics) LoadSuperseded(view string) {
	if v == nil {
		return
	}
	v.loads.WithLabelValues(view, OutcomeSuperseded).Inc()
}

func (v *ViewMetrics) LoadRetried(view string) {
	if v == nil {
		return
	}
	v.retries.WithLabelValues(view).Inc()
}

func (v *ViewMetrics) LoadFailed(view string) {
	if v == nil {
		return
	}
	v.loads.WithLabelValues(view, OutcomeFailed).Inc()
}
