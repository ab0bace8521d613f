package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collab_events",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of API requests broken down by route, method and status class.",
	}, []string{"route", "method", "result"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "collab_events",
		Subsystem: "http",
		Name:      "latency_seconds",
		Help:      "Latency distribution for API requests.",
		Buckets: []float64{
			0.001, 0.002, 0.005,
			0.01, 0.02, 0.05,
			0.1, 0.2, 0.5,
			1, 2, 5, 10,
		},
	}, []string{"route", "method", "result"})

	eventMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collab_events",
		Subsystem: "events",
		Name:      "mutations_total",
		Help:      "Versioned event writes broken down by action and outcome.",
	}, []string{"action", "result"})

	versionConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "collab_events",
		Subsystem: "events",
		Name:      "version_conflicts_total",
		Help:      "Version-number conflicts seen by versioned writes, including ones resolved by retry.",
	}, []string{"action"})
)

// StatusClass buckets an HTTP status into 2xx/3xx/4xx/5xx.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	result := StatusClass(status)
	httpRequests.WithLabelValues(route, method, result).Inc()
	httpLatency.WithLabelValues(route, method, result).Observe(elapsed.Seconds())
}

// RecordMutation counts one finished versioned write; err decides the result label.
func RecordMutation(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	eventMutations.WithLabelValues(action, result).Inc()
}

func RecordConflict(action string) {
	versionConflicts.WithLabelValues(action).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
