package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by method, endpoint and status
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration measures HTTP request latency
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// ReadingsIngested counts readings accepted from external sources
	ReadingsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "readings_ingested_total",
			Help: "Total number of health readings ingested",
		},
		[]string{"source"},
	)

	// ReadingsGenerated counts synthetic readings produced by the simulator
	ReadingsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "readings_generated_total",
			Help: "Total number of synthetic health readings generated",
		},
	)

	// AnomaliesDetected counts threshold rule hits seen during report
	// computation
	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anomalies_detected_total",
			Help: "Total number of anomalies detected per rule",
		},
		[]string{"rule"},
	)

	// ReportCacheHits counts report cache lookups
	ReportCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_cache_lookups_total",
			Help: "Total number of report cache lookups",
		},
		[]string{"result"},
	)

	// ConnectedClients tracks websocket clients
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connected_clients",
			Help: "Number of currently connected websocket clients",
		},
	)
)
