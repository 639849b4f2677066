// Package metrics exposes prometheus collectors for HTTP traffic and domain activity.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const service = "elearning"

var (
	// HTTP request metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elearning_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "route"},
	)

	// Domain metrics
	RecordsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_records_created_total",
			Help: "Total number of records created per resource",
		},
		[]string{"service", "resource"},
	)

	AuthEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_auth_events_total",
			Help: "Authentication flow outcomes",
		},
		[]string{"service", "event", "status"},
	)

	EventsHandled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_events_handled_total",
			Help: "Total number of domain events consumed",
		},
		[]string{"service", "topic", "status"},
	)

	EmailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_emails_sent_total",
			Help: "Total number of emails handed to the mail provider",
		},
		[]string{"service", "kind", "status"},
	)

	RequestsThrottled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elearning_requests_throttled_total",
			Help: "Total number of requests rejected by a rate limit",
		},
		[]string{"service", "scope"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		RecordsCreated,
		AuthEvents,
		EventsHandled,
		EmailsSent,
		RequestsThrottled,
	)
}

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records one finished request
func RecordRequest(method, route string, status int, duration time.Duration) {
	RequestsTotal.WithLabelValues(service, method, route, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(service, method, route).Observe(duration.Seconds())
}

func RecordCreated(resource string) {
	RecordsCreated.WithLabelValues(service, resource).Inc()
}

func RecordAuth(event string, ok bool) {
	AuthEvents.WithLabelValues(service, event, outcome(ok)).Inc()
}

func RecordEvent(topic string, ok bool) {
	EventsHandled.WithLabelValues(service, topic, outcome(ok)).Inc()
}

func RecordEmail(kind string, ok bool) {
	EmailsSent.WithLabelValues(service, kind, outcome(ok)).Inc()
}

func RecordThrottled(scope string) {
	RequestsThrottled.WithLabelValues(service, scope).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// Middleware records request count and latency keyed by the matched route
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RecordRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
