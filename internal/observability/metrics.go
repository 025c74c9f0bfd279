package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "landmark",
		Name:      "uploads_total",
		Help:      "Total number of image uploads by outcome",
	}, []string{"outcome"})

	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "landmark",
		Name:      "updates_total",
		Help:      "Total number of record updates by outcome",
	}, []string{"outcome"})

	GeocodeRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "landmark",
		Name:      "geocode_requests_total",
		Help:      "Total number of geocoding API calls",
	})

	GeocodeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "landmark",
		Name:      "geocode_failures_total",
		Help:      "Total number of failed geocoding API calls",
	})

	GeocodeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "landmark",
		Name:      "geocode_duration_seconds",
		Help:      "Duration of geocoding API calls",
		Buckets:   prometheus.DefBuckets,
	})

	DetectRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "landmark",
		Name:      "detect_requests_total",
		Help:      "Total number of landmark detection API calls",
	})

	DetectFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "landmark",
		Name:      "detect_failures_total",
		Help:      "Total number of failed landmark detection API calls",
	})

	DetectDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "landmark",
		Name:      "detect_duration_seconds",
		Help:      "Duration of landmark detection API calls",
		Buckets:   prometheus.DefBuckets,
	})

	RecordsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "landmark",
		Name:      "records_deleted_total",
		Help:      "Total number of records deleted",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "landmark",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "landmark",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)
