// Package metrics exposes Prometheus collectors for scoring, HTTP traffic,
// reference data and stored reports on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/ev-risk/internal/model"
)

const namespace = "evrisk"

// Metrics holds every collector the service exports.
type Metrics struct {
	registry *prometheus.Registry

	scoresTotal  *prometheus.CounterVec
	scoreValue   prometheus.Histogram
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	refdataRows  *prometheus.GaugeVec
	reports      *prometheus.GaugeVec
	feedbackAvg  prometheus.Gauge
}

// New builds the collectors and registers them, plus the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scoresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scores_total",
			Help:      "Buy Confidence evaluations by rating.",
		}, []string{"rating"}),
		scoreValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score_value",
			Help:      "Distribution of overall Buy Confidence scores.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		refdataRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refdata_rows",
			Help:      "Rows loaded per reference table.",
		}, []string{"table"}),
		reports: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reports",
			Help:      "Stored reports in the lookback window by status.",
		}, []string{"status"}),
		feedbackAvg: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feedback_avg_rating",
			Help:      "Average feedback rating in the lookback window.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: namespace}),
		m.scoresTotal,
		m.scoreValue,
		m.httpRequests,
		m.httpDuration,
		m.refdataRows,
		m.reports,
		m.feedbackAvg,
	)
	return m
}

// Registry returns the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveScore records one engine result. It satisfies scoring.Observer.
func (m *Metrics) ObserveScore(c model.BuyConfidence) {
	m.scoresTotal.WithLabelValues(string(c.Rating)).Inc()
	m.scoreValue.Observe(float64(c.OverallScore))
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// SetRefdataRows publishes per-table row counts.
func (m *Metrics) SetRefdataRows(counts map[string]int) {
	for table, n := range counts {
		m.refdataRows.WithLabelValues(table).Set(float64(n))
	}
}

// SetReportStats publishes a store analytics snapshot.
func (m *Metrics) SetReportStats(a *model.Analytics) {
	m.reports.WithLabelValues(string(model.ReportStatusDraft)).Set(float64(a.DraftReports))
	m.reports.WithLabelValues(string(model.ReportStatusPaid)).Set(float64(a.PaidReports))
	m.reports.WithLabelValues(string(model.ReportStatusFree)).Set(float64(a.FreeReports))
	m.feedbackAvg.Set(a.AvgRating)
}
