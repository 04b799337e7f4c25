/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package keylock

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-keylock/internal/libinfo"
)

// MetricsCollector represents a collector of metrics about the lock usage.
type MetricsCollector interface {
	// IncRuns increments the number of finished Run calls with the given resulting state.
	IncRuns(state LockState)

	// ObserveWaitDuration observes how long a Run call waited in the queue before taking the slot.
	ObserveWaitDuration(d time.Duration)

	// SetActiveSlots sets the number of identifiers whose slot is held by a callback.
	SetActiveSlots(int)

	// SetQueuedWaiters sets the total number of queued Run calls.
	SetQueuedWaiters(int)

	// SetIdleEntries sets the number of identifiers kept in the idle history.
	SetIdleEntries(int)

	// AddIdleEvictions increments the number of identifiers evicted from the idle history.
	AddIdleEvictions(int)

	// IncAbandonedCompletions increments the number of callbacks completed after their slot expired.
	IncAbandonedCompletions()
}

const metricsLabelLockState = "lock_state"

// DefaultWaitDurationBuckets is the default list of buckets (in seconds) for the wait duration histogram.
var DefaultWaitDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels

	// CurriedLabelNames is a list of label names that will be curried with the provided labels.
	// See PrometheusMetrics.MustCurryWith method for more details.
	// Keep in mind that if this list is not empty,
	// PrometheusMetrics.MustCurryWith method must be called further with the same labels.
	// Otherwise, the collector will panic.
	CurriedLabelNames []string

	// WaitDurationBuckets is a list of buckets for the wait duration histogram.
	// DefaultWaitDurationBuckets is used if empty.
	WaitDurationBuckets []float64
}

// PrometheusMetrics represents a Prometheus metrics for the lock.
type PrometheusMetrics struct {
	RunsTotal                 *prometheus.CounterVec
	WaitDuration              *prometheus.HistogramVec
	ActiveSlots               *prometheus.GaugeVec
	QueuedWaiters             *prometheus.GaugeVec
	IdleEntriesAmount         *prometheus.GaugeVec
	IdleEvictionsTotal        *prometheus.CounterVec
	AbandonedCompletionsTotal *prometheus.CounterVec
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	constLabels := libinfo.AddPrometheusLibVersionLabel(opts.ConstLabels)
	buckets := opts.WaitDurationBuckets
	if len(buckets) == 0 {
		buckets = DefaultWaitDurationBuckets
	}
	makeLabelNames := func(names ...string) []string {
		return append(append(make([]string, 0, len(opts.CurriedLabelNames)+len(names)), opts.CurriedLabelNames...), names...)
	}

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "keylock_runs_total",
			Help:        "Number of finished Run calls by the resulting lock state.",
			ConstLabels: constLabels,
		},
		makeLabelNames(metricsLabelLockState),
	)

	waitDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "keylock_wait_duration_seconds",
			Help:        "A histogram of time spent in the queue before taking the lock slot.",
			Buckets:     buckets,
			ConstLabels: constLabels,
		},
		makeLabelNames(),
	)

	activeSlots := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "keylock_active_slots",
			Help:        "Number of identifiers whose lock slot is currently held.",
			ConstLabels: constLabels,
		},
		makeLabelNames(),
	)

	queuedWaiters := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "keylock_queued_waiters",
			Help:        "Number of Run calls waiting for the lock slot.",
			ConstLabels: constLabels,
		},
		makeLabelNames(),
	)

	idleEntriesAmount := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "keylock_idle_entries_amount",
			Help:        "Number of idle identifiers whose last state is remembered.",
			ConstLabels: constLabels,
		},
		makeLabelNames(),
	)

	idleEvictionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "keylock_idle_evictions_total",
			Help:        "Number of idle identifiers evicted from the history.",
			ConstLabels: constLabels,
		},
		makeLabelNames(),
	)

	abandonedCompletionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "keylock_abandoned_completions_total",
			Help:        "Number of callbacks completed after their lock slot expired.",
			ConstLabels: constLabels,
		},
		makeLabelNames(),
	)

	return &PrometheusMetrics{
		RunsTotal:                 runsTotal,
		WaitDuration:              waitDuration,
		ActiveSlots:               activeSlots,
		QueuedWaiters:             queuedWaiters,
		IdleEntriesAmount:         idleEntriesAmount,
		IdleEvictionsTotal:        idleEvictionsTotal,
		AbandonedCompletionsTotal: abandonedCompletionsTotal,
	}
}

// MustCurryWith curries the metrics collector with the provided labels.
func (pm *PrometheusMetrics) MustCurryWith(labels prometheus.Labels) *PrometheusMetrics {
	return &PrometheusMetrics{
		RunsTotal:                 pm.RunsTotal.MustCurryWith(labels),
		WaitDuration:              pm.WaitDuration.MustCurryWith(labels).(*prometheus.HistogramVec),
		ActiveSlots:               pm.ActiveSlots.MustCurryWith(labels),
		QueuedWaiters:             pm.QueuedWaiters.MustCurryWith(labels),
		IdleEntriesAmount:         pm.IdleEntriesAmount.MustCurryWith(labels),
		IdleEvictionsTotal:        pm.IdleEvictionsTotal.MustCurryWith(labels),
		AbandonedCompletionsTotal: pm.AbandonedCompletionsTotal.MustCurryWith(labels),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(
		pm.RunsTotal,
		pm.WaitDuration,
		pm.ActiveSlots,
		pm.QueuedWaiters,
		pm.IdleEntriesAmount,
		pm.IdleEvictionsTotal,
		pm.AbandonedCompletionsTotal,
	)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.RunsTotal)
	prometheus.Unregister(pm.WaitDuration)
	prometheus.Unregister(pm.ActiveSlots)
	prometheus.Unregister(pm.QueuedWaiters)
	prometheus.Unregister(pm.IdleEntriesAmount)
	prometheus.Unregister(pm.IdleEvictionsTotal)
	prometheus.Unregister(pm.AbandonedCompletionsTotal)
}

// IncRuns increments the number of finished Run calls with the given resulting state.
func (pm *PrometheusMetrics) IncRuns(state LockState) {
	pm.RunsTotal.With(prometheus.Labels{metricsLabelLockState: state.String()}).Inc()
}

// ObserveWaitDuration observes how long a Run call waited in the queue before taking the slot.
func (pm *PrometheusMetrics) ObserveWaitDuration(d time.Duration) {
	pm.WaitDuration.With(nil).Observe(d.Seconds())
}

// SetActiveSlots sets the number of identifiers whose slot is held by a callback.
func (pm *PrometheusMetrics) SetActiveSlots(n int) {
	pm.ActiveSlots.With(nil).Set(float64(n))
}

// SetQueuedWaiters sets the total number of queued Run calls.
func (pm *PrometheusMetrics) SetQueuedWaiters(n int) {
	pm.QueuedWaiters.With(nil).Set(float64(n))
}

// SetIdleEntries sets the number of identifiers kept in the idle history.
func (pm *PrometheusMetrics) SetIdleEntries(n int) {
	pm.IdleEntriesAmount.With(nil).Set(float64(n))
}

// AddIdleEvictions increments the number of identifiers evicted from the idle history.
func (pm *PrometheusMetrics) AddIdleEvictions(n int) {
	pm.IdleEvictionsTotal.With(nil).Add(float64(n))
}

// IncAbandonedCompletions increments the number of callbacks completed after their slot expired.
func (pm *PrometheusMetrics) IncAbandonedCompletions() {
	pm.AbandonedCompletionsTotal.With(nil).Inc()
}

type disabledMetrics struct{}

func (disabledMetrics) IncRuns(LockState)                 {}
func (disabledMetrics) ObserveWaitDuration(time.Duration) {}
func (disabledMetrics) SetActiveSlots(int)                {}
func (disabledMetrics) SetQueuedWaiters(int)              {}
func (disabledMetrics) SetIdleEntries(int)                {}
func (disabledMetrics) AddIdleEvictions(int)              {}
func (disabledMetrics) IncAbandonedCompletions()          {}

// idleMetrics adapts MetricsCollector to the idle history cache.
type idleMetrics struct {
	mc MetricsCollector
}

func (m idleMetrics) SetAmount(n int)    { m.mc.SetIdleEntries(n) }
func (m idleMetrics) AddEvictions(n int) { m.mc.AddIdleEvictions(n) }
