// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// It implements graph.Recorder and hierarchy.GateRecorder.
type Metrics struct {
	// Graph metrics
	EvaluationDuration prometheus.Histogram
	EvaluationsTotal   prometheus.Counter
	EvaluatedPoints    prometheus.Counter
	GraphNodes         prometheus.Gauge
	OperatorFailures   *prometheus.CounterVec
	CacheLookups       *prometheus.CounterVec

	// Gating metrics
	GateDecisions *prometheus.CounterVec

	// Feed metrics
	FeedPointsReceived prometheus.Counter
	FeedPointsDropped  prometheus.Gauge
	LastPointTimestamp prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered on reg.
// A nil reg registers on the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "hiera_tf"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		EvaluationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of full signal graph evaluations",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		}),
		EvaluationsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "evaluations_total",
			Help:      "Total number of signal graph evaluations",
		}),
		EvaluatedPoints: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "evaluated_points_total",
			Help:      "Total number of points passed through signal graph evaluations",
		}),
		GraphNodes: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "last_evaluation_nodes",
			Help:      "Number of nodes in the most recently evaluated graph",
		}),
		OperatorFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "operator_failures_total",
			Help:      "Total number of operator failures by signal type",
		}, []string{"type"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "graph",
			Name:      "cache_lookups_total",
			Help:      "Total number of evaluation cache lookups by result",
		}, []string{"result"}),

		GateDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hierarchy",
			Name:      "gate_decisions_total",
			Help:      "Total number of per-step gate decisions by view",
		}, []string{"view", "allowed"}),

		FeedPointsReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "points_received_total",
			Help:      "Total number of live points pushed through the framework",
		}),
		FeedPointsDropped: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "points_dropped",
			Help:      "Number of malformed feed messages dropped since connect",
		}),
		LastPointTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "last_point_timestamp_ms",
			Help:      "Timestamp of the last live point in milliseconds",
		}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns an HTTP handler serving metrics from g.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ObserveEvaluation records one full graph evaluation.
func (m *Metrics) ObserveEvaluation(nodes, points int, elapsed time.Duration) {
	m.EvaluationsTotal.Inc()
	m.EvaluatedPoints.Add(float64(points))
	m.GraphNodes.Set(float64(nodes))
	m.EvaluationDuration.Observe(elapsed.Seconds())
}

// OperatorFailed records an operator failure for the signal type.
func (m *Metrics) OperatorFailed(typ string) {
	m.OperatorFailures.WithLabelValues(typ).Inc()
}

// CacheHit records an evaluation cache hit.
func (m *Metrics) CacheHit() {
	m.CacheLookups.WithLabelValues("hit").Inc()
}

// CacheMiss records an evaluation cache miss.
func (m *Metrics) CacheMiss() {
	m.CacheLookups.WithLabelValues("miss").Inc()
}

// GateDecision records whether view was allowed to fire on a step.
func (m *Metrics) GateDecision(view string, allowed bool) {
	m.GateDecisions.WithLabelValues(view, strconv.FormatBool(allowed)).Inc()
}

// RecordFeedPoint records a live point with timestamp ts and the client's drop count.
func (m *Metrics) RecordFeedPoint(ts int64, dropped uint64) {
	m.FeedPointsReceived.Inc()
	m.LastPointTimestamp.Set(float64(ts))
	m.FeedPointsDropped.Set(float64(dropped))
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, elapsed time.Duration, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(elapsed.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
