package scalefield

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instrumentation of an index. Pass the
// constructed value in Options; a nil *Metrics disables instrumentation.
type Metrics struct {
	EmitTotal   *prometheus.CounterVec
	PutsTotal   *prometheus.CounterVec
	PutDuration prometheus.Histogram
	RangesTotal prometheus.Counter
	StatsTotal  prometheus.Counter
}

// NewMetrics creates the metric set, registered with reg. A nil registerer
// yields working but unregistered metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	m.EmitTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scalefield_emit_total",
			Help: "Field values run through the emission pipeline, by terminal state",
		},
		[]string{"field", "outcome"},
	)

	m.PutsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scalefield_puts_total",
			Help: "Document put operations, by status",
		},
		[]string{"status"},
	)

	m.PutDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scalefield_put_duration_seconds",
			Help:    "Duration of document put operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	m.RangesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "scalefield_range_queries_total",
			Help: "Range queries executed against point data",
		},
	)

	m.StatsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "scalefield_stats_queries_total",
			Help: "Stats aggregations executed against doc values",
		},
	)

	return m
}

// RecordEmit records one emission outcome for a field.
func (m *Metrics) RecordEmit(field string, outcome EmitOutcome) {
	if m == nil {
		return
	}
	m.EmitTotal.WithLabelValues(field, string(outcome)).Inc()
}

// RecordPut records a document put with its status.
func (m *Metrics) RecordPut(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.PutsTotal.WithLabelValues(status).Inc()
	m.PutDuration.Observe(duration.Seconds())
}

func (m *Metrics) RecordRange() {
	if m == nil {
		return
	}
	m.RangesTotal.Inc()
}

func (m *Metrics) RecordStats() {
	if m == nil {
		return
	}
	m.StatsTotal.Inc()
}
