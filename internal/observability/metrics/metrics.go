package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendordash_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vendordash_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	authAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendordash_auth_attempts_total",
		Help: "Count of authorization guard outcomes",
	}, []string{"result"})

	postOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendordash_post_operations_total",
		Help: "Count of post lifecycle operations by result",
	}, []string{"operation", "result"})

	uploadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vendordash_image_upload_duration_seconds",
		Help:    "Duration of forwarded image uploads",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	activePosts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vendordash_active_posts",
		Help: "Number of verified, unexpired posts",
	})

	imageStoreState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vendordash_image_store_circuit_open",
		Help: "1 when the image store circuit breaker is open",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveAuth records an authorization guard outcome.
func ObserveAuth(result string) {
	authAttempts.WithLabelValues(result).Inc()
}

// ObservePostOperation records a post lifecycle operation outcome.
func ObservePostOperation(operation, result string) {
	postOperations.WithLabelValues(operation, result).Inc()
}

// ObserveUpload records the duration of one forwarded upload.
func ObserveUpload(result string, duration time.Duration) {
	uploadDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// SetActivePosts sets the active post gauge.
func SetActivePosts(count int64) {
	if count < 0 {
		count = 0
	}
	activePosts.Set(float64(count))
}

// SetImageStoreCircuitOpen flips the circuit breaker gauge.
func SetImageStoreCircuitOpen(open bool) {
	if open {
		imageStoreState.Set(1)
	} else {
		imageStoreState.Set(0)
	}
}
