package taskpool

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsPolicy defines hooks used by the pool to report admission and
// settlement activity.
//
// Implementations must be safe for concurrent use.
// All methods are expected to be lightweight and non-blocking.
type MetricsPolicy interface {

	// IncSubmitted increments the submitted tasks counter.
	IncSubmitted()

	// IncRetried increments the retried attempts counter.
	IncRetried()

	// IncSucceeded increments the succeeded tasks counter.
	IncSucceeded()

	// IncAbandoned increments the abandoned tasks counter.
	IncAbandoned()

	// SetQueued records the current admission queue length.
	SetQueued(n int)

	// SetRunning records the current number of in-flight tasks.
	SetRunning(n int)
}

// AtomicMetrics is a lock-free metrics implementation backed by atomics.
//
// Writes are optimized for hot paths.
// Reads are intended for cold-path observation.
type AtomicMetrics struct {
	submitted atomic.Uint64
	retried   atomic.Uint64
	succeeded atomic.Uint64
	abandoned atomic.Uint64

	_ [32]byte // padding to avoid false sharing with the gauges

	queued  atomic.Int64
	running atomic.Int64
}

// Submitted returns the total number of submitted tasks.
func (m *AtomicMetrics) Submitted() uint64 { return m.submitted.Load() }

// Retried returns the total number of retried attempts.
func (m *AtomicMetrics) Retried() uint64 { return m.retried.Load() }

// Succeeded returns the total number of succeeded tasks.
func (m *AtomicMetrics) Succeeded() uint64 { return m.succeeded.Load() }

// Abandoned returns the total number of abandoned tasks.
func (m *AtomicMetrics) Abandoned() uint64 { return m.abandoned.Load() }

// Queued returns the last reported admission queue length.
func (m *AtomicMetrics) Queued() int64 { return m.queued.Load() }

// Running returns the last reported in-flight count.
func (m *AtomicMetrics) Running() int64 { return m.running.Load() }

func (m *AtomicMetrics) IncSubmitted() { m.submitted.Add(1) }
func (m *AtomicMetrics) IncRetried()   { m.retried.Add(1) }
func (m *AtomicMetrics) IncSucceeded() { m.succeeded.Add(1) }
func (m *AtomicMetrics) IncAbandoned() { m.abandoned.Add(1) }
func (m *AtomicMetrics) SetQueued(n int)  { m.queued.Store(int64(n)) }
func (m *AtomicMetrics) SetRunning(n int) { m.running.Store(int64(n)) }

//------------- NoopMetrics ----------------------------------

// NoopMetrics is a MetricsPolicy implementation that discards
// all metric updates.
//
// It can be used when metrics collection is disabled and
// zero overhead is desired.
type NoopMetrics struct{}

func (m *NoopMetrics) IncSubmitted()   {}
func (m *NoopMetrics) IncRetried()     {}
func (m *NoopMetrics) IncSucceeded()   {}
func (m *NoopMetrics) IncAbandoned()   {}
func (m *NoopMetrics) SetQueued(n int)  {}
func (m *NoopMetrics) SetRunning(n int) {}

//------------- PromMetrics ----------------------------------

// PromMetrics exports pool activity through a Prometheus registry.
type PromMetrics struct {
	submitted prometheus.Counter
	retried   prometheus.Counter
	succeeded prometheus.Counter
	abandoned prometheus.Counter
	queued    prometheus.Gauge
	running   prometheus.Gauge
}

// NewPromMetrics builds and registers the pool collectors. namespace
// prefixes every metric name; registration errors (typically duplicate
// registration) are returned as-is.
func NewPromMetrics(reg prometheus.Registerer, namespace string) (*PromMetrics, error) {
	m := &PromMetrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks submitted to the pool.",
		}),
		retried: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_retries_total",
			Help:      "Total number of retried task attempts.",
		}),
		succeeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_succeeded_total",
			Help:      "Total number of tasks that finished successfully.",
		}),
		abandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_abandoned_total",
			Help:      "Total number of tasks abandoned after exhausting retries.",
		}),
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_queued",
			Help:      "Current admission queue length.",
		}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_running",
			Help:      "Current number of in-flight tasks.",
		}),
	}
	for _, c := range []prometheus.Collector{
		m.submitted, m.retried, m.succeeded, m.abandoned, m.queued, m.running,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PromMetrics) IncSubmitted()   { m.submitted.Inc() }
func (m *PromMetrics) IncRetried()     { m.retried.Inc() }
func (m *PromMetrics) IncSucceeded()   { m.succeeded.Inc() }
func (m *PromMetrics) IncAbandoned()   { m.abandoned.Inc() }
func (m *PromMetrics) SetQueued(n int)  { m.queued.Set(float64(n)) }
func (m *PromMetrics) SetRunning(n int) { m.running.Set(float64(n)) }
