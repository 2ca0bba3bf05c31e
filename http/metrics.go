package http

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of the directory API.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimited     prometheus.Counter
	NotModified     prometheus.Counter
}

// NewMetrics creates the API metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "citydir_http_requests_total",
			Help: "Total number of API requests by method, route and status code",
		}, []string{"method", "route", "code"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "citydir_http_request_duration_seconds",
			Help:    "API request latency by method and route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		RateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "citydir_http_rate_limited_total",
			Help: "Total number of mutations rejected by the rate limiter",
		}),
		NotModified: f.NewCounter(prometheus.CounterOpts{
			Name: "citydir_http_not_modified_total",
			Help: "Total number of listing requests answered with 304 Not Modified",
		}),
	}
}

// ObserveRequest records a completed request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncrementRateLimited increments the rate-limited mutations counter by 1.
func (m *Metrics) IncrementRateLimited() {
	m.RateLimited.Inc()
}

// IncrementNotModified increments the not-modified listings counter by 1.
func (m *Metrics) IncrementNotModified() {
	m.NotModified.Inc()
}
