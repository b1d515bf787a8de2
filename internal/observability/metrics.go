package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequestsTotal  *prometheus.CounterVec
	httpLatencySeconds *prometheus.HistogramVec
	httpErrorsTotal    *prometheus.CounterVec

	boardOperationsTotal    *prometheus.CounterVec
	notificationsEmitted    *prometheus.CounterVec
	notificationSubscribers prometheus.Gauge
	persistFailuresTotal    *prometheus.CounterVec
	hydrationFallbacksTotal *prometheus.CounterVec
	imageRejectionsTotal    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the board.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_http_requests_total",
			Help: "Total number of board API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "board_http_latency_seconds",
			Help:    "Latency distribution for board API requests.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_http_errors_total",
			Help: "Total number of error responses returned by board endpoints.",
		}, []string{"method", "route", "status"})

		boardOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_operations_total",
			Help: "Board operations by name and outcome.",
		}, []string{"operation", "outcome"})

		notificationsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_notifications_emitted_total",
			Help: "Notifications derived by the engagement store.",
		}, []string{"type"})

		notificationSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "board_notification_subscribers",
			Help: "Live notification streams currently attached.",
		})

		persistFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_persist_failures_total",
			Help: "Blob writes that failed after an in-memory change.",
		}, []string{"key", "reason"})

		hydrationFallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_hydration_fallbacks_total",
			Help: "Saved blobs replaced by defaults during hydration.",
		}, []string{"key", "reason"})

		imageRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "board_image_rejections_total",
			Help: "Inline images rejected on idea create or edit.",
		}, []string{"reason"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			boardOperationsTotal,
			notificationsEmitted,
			notificationSubscribers,
			persistFailuresTotal,
			hydrationFallbacksTotal,
			imageRejectionsTotal,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// HTTPErrors exposes the counter for API error responses.
func HTTPErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// BoardOperations exposes the per-operation outcome counter.
func BoardOperations() *prometheus.CounterVec {
	RegisterMetrics()
	return boardOperationsTotal
}

// NotificationsEmitted exposes the derived notification counter.
func NotificationsEmitted() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsEmitted
}

// NotificationSubscribers exposes the live stream gauge.
func NotificationSubscribers() prometheus.Gauge {
	RegisterMetrics()
	return notificationSubscribers
}

// PersistFailures exposes the failed blob write counter.
func PersistFailures() *prometheus.CounterVec {
	RegisterMetrics()
	return persistFailuresTotal
}

// HydrationFallbacks exposes the hydration fallback counter.
func HydrationFallbacks() *prometheus.CounterVec {
	RegisterMetrics()
	return hydrationFallbacksTotal
}

// ImageRejections exposes the rejected image counter.
func ImageRejections() *prometheus.CounterVec {
	RegisterMetrics()
	return imageRejectionsTotal
}
