package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "thrust"

// Registry owns the thrust collectors. It embeds the prometheus registry so
// it can be handed to promhttp as a Gatherer.
type Registry struct {
	*prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	inFlight prometheus.Gauge

	backtests         *prometheus.CounterVec
	backtestDuration  prometheus.Histogram
	trades            *prometheus.CounterVec
	collectorRequests *prometheus.CounterVec
	jobsActive        *prometheus.GaugeVec
}

// NewRegistry creates a registry with the process and Go runtime collectors
// plus every thrust metric.
func NewRegistry() *Registry {
	r := &Registry{
		Registry: prometheus.NewRegistry(),

		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status class.",
		}, []string{"method", "route", "status"}),

		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "HTTP requests being served.",
		}),

		backtests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backtests_total",
			Help:      "Backtests by outcome.",
		}, []string{"status"}),

		backtestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backtest_duration_seconds",
			Help:      "Backtest wall time including the candle download.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),

		trades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backtest_trades_total",
			Help:      "Closed trades produced by backtests.",
		}, []string{"side"}),

		collectorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collector_requests_total",
			Help:      "Upstream market data requests by endpoint and outcome.",
		}, []string{"endpoint", "status"}),

		jobsActive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "jobs_active",
			Help:      "Jobs that have not finished yet.",
		}, []string{"type"}),
	}

	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.requests,
		r.latency,
		r.inFlight,
		r.backtests,
		r.backtestDuration,
		r.trades,
		r.collectorRequests,
		r.jobsActive,
	)
	return r
}

// RecordRequest records one served request. route should be the matched
// pattern, not the raw path, to keep cardinality bounded.
func (r *Registry) RecordRequest(method, route string, status int, seconds float64) {
	r.requests.WithLabelValues(method, route, statusClass(status)).Inc()
	r.latency.WithLabelValues(method, route).Observe(seconds)
}

func (r *Registry) InFlightInc() { r.inFlight.Inc() }

func (r *Registry) InFlightDec() { r.inFlight.Dec() }

// RecordBacktest records a finished backtest run.
func (r *Registry) RecordBacktest(status string, seconds float64) {
	r.backtests.WithLabelValues(status).Inc()
	r.backtestDuration.Observe(seconds)
}

// RecordTrades adds count closed trades on the given side.
func (r *Registry) RecordTrades(side string, count int) {
	if count <= 0 {
		return
	}
	r.trades.WithLabelValues(side).Add(float64(count))
}

func (r *Registry) RecordCollectorRequest(endpoint, status string) {
	r.collectorRequests.WithLabelValues(endpoint, status).Inc()
}

func (r *Registry) SetJobsActive(jobType string, count int) {
	r.jobsActive.WithLabelValues(jobType).Set(float64(count))
}

// statusClass maps 404 to "4xx"
func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
