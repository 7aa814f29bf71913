// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic311_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civic311_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// RateLimited counts rejected calls per limited route.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic311_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// RateLimiterErrors counts store failures that let a call through.
	RateLimiterErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "civic311_rate_limiter_errors_total",
			Help: "Rate limiter store errors (request allowed)",
		},
	)

	// Domain

	RequestsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic311_service_requests_created_total",
			Help: "Service requests created",
		},
		[]string{"category"},
	)

	StatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic311_status_changes_total",
			Help: "Status changes applied to service requests",
		},
		[]string{"status"},
	)

	// GeofenceDecisions is labelled admit, reject or fail_open.
	GeofenceDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic311_geofence_decisions_total",
			Help: "Geofence checks by outcome",
		},
		[]string{"outcome"},
	)

	AttachmentScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civic311_attachment_scans_total",
			Help: "Attachment scan verdicts",
		},
		[]string{"state"},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "civic311_attachment_scan_duration_seconds",
			Help:    "Time spent scanning one attachment",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	TriageQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "civic311_triage_queue_depth",
			Help: "Requests waiting for background triage",
		},
	)

	TriageDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "civic311_triage_dropped_total",
			Help: "Triage jobs dropped because the queue was full",
		},
	)
)
