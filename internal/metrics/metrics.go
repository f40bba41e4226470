package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	ChecksTotal            *prometheus.CounterVec
	AnalysesTotal          *prometheus.CounterVec
	OracleDuration         prometheus.Histogram
	CategoryMismatchTotal  prometheus.Counter
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPRequestsInProgress prometheus.Gauge
}

// New creates and registers all metrics on reg. Pass prometheus.NewRegistry()
// in tests to avoid duplicate registration on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ChecksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_checks_total",
			Help: "Compliance checks by outcome (ok, catalog_error, template_error, cancelled)",
		}, []string{"outcome"}),
		AnalysesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "compliance_analyses_total",
			Help: "Requirement analyses by resulting status",
		}, []string{"status"}),
		OracleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "compliance_oracle_duration_seconds",
			Help:    "Latency of single oracle invocations",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		CategoryMismatchTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "compliance_category_mismatch_total",
			Help: "Requirements whose id prefix disagrees with the document category",
		}),
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method and status code",
		}, []string{"method", "code"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		HTTPRequestsInProgress: f.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_progress",
			Help: "HTTP requests currently being served",
		}),
	}
}

// IncCheck records the outcome of one compliance check.
func (m *Metrics) IncCheck(outcome string) {
	m.ChecksTotal.WithLabelValues(outcome).Inc()
}

// IncAnalysis records one requirement analysis.
func (m *Metrics) IncAnalysis(status string) {
	m.AnalysesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveOracle(d time.Duration) {
	m.OracleDuration.Observe(d.Seconds())
}

func (m *Metrics) IncCategoryMismatch() {
	m.CategoryMismatchTotal.Inc()
}
