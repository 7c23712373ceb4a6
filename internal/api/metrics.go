package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run outcomes for the runs counter.
const (
	outcomeOK        = "ok"
	outcomeMalformed = "malformed"
	outcomeError     = "error"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	Runs            *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	VendorsScored   prometheus.Gauge
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vendor_kpi_runs_total",
			Help: "Scoring runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "vendor_kpi_run_duration_seconds",
			Help:    "Duration of scoring runs in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "vendor_kpi_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vendor_kpi_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		VendorsScored: f.NewGauge(prometheus.GaugeOpts{
			Name: "vendor_kpi_vendors_scored",
			Help: "Vendors in the most recent successful run.",
		}),
	}
}
