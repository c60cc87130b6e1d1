package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bpi_http_requests_total",
		Help: "Total number of HTTP requests by method, route, and status code.",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bpi_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ReadingsClassifiedTotal counts accepted readings by the category they were classified into.
	ReadingsClassifiedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bpi_readings_classified_total",
		Help: "Total number of stored readings by classification category.",
	}, []string{"category"})

	ReadingsImportedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bpi_readings_imported_total",
		Help: "Total number of readings accepted by imports.",
	})

	ReadingsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bpi_readings_rejected_total",
		Help: "Total number of readings rejected by validation or import filtering.",
	}, []string{"source"})

	// StoredReadings tracks the size of the reading collection after the last mutation.
	StoredReadings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bpi_stored_readings",
		Help: "Current number of readings in the store.",
	})

	ReportsGeneratedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bpi_reports_generated_total",
		Help: "Total number of generated reports by format.",
	}, []string{"format"})
)
