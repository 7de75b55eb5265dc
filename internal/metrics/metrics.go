package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiprobe_requests_total",
			Help: "Outbound API requests by method and outcome kind",
		},
		[]string{"method", "outcome"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "apiprobe_request_duration_seconds",
			Help:    "Duration of outbound API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	listenerRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "apiprobe_listener_running",
		Help: "1 while the local callback listener is bound",
	})

	listenerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiprobe_listener_transitions_total",
			Help: "Listener start/stop calls by result",
		},
		[]string{"result"},
	)

	callbacksReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "apiprobe_callbacks_received_total",
			Help: "Inbound callbacks accepted by the listener",
		},
		[]string{"path"},
	)

	shutdownDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "apiprobe_shutdown_duration_seconds",
		Help:    "Time taken to run shutdown hooks",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	})
)

// ObserveRequest records one outbound request.
func ObserveRequest(method, outcome string, elapsed time.Duration) {
	requestsTotal.WithLabelValues(method, outcome).Inc()
	requestDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// SetListenerRunning flips the listener gauge.
func SetListenerRunning(running bool) {
	if running {
		listenerRunning.Set(1)
		return
	}
	listenerRunning.Set(0)
}

// ObserveListenerTransition counts a start/stop result.
func ObserveListenerTransition(result string) {
	listenerTransitions.WithLabelValues(result).Inc()
}

// ObserveCallback counts an accepted inbound callback.
func ObserveCallback(path string) {
	callbacksReceived.WithLabelValues(path).Inc()
}

// ObserveShutdown records how long shutdown hooks took.
func ObserveShutdown(elapsed time.Duration) {
	shutdownDuration.Observe(elapsed.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
