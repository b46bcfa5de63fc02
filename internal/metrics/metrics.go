package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status", "service"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	relationshipTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relationship_transitions_total",
			Help: "Applied friendship and follow transitions",
		},
		[]string{"graph", "op"},
	)
)

// Graph labels.
const (
	GraphFriendship = "friendship"
	GraphFollow     = "follow"
)

func PrometheusMiddleware(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status, serviceName).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, serviceName).Observe(duration)
	}
}

// RecordTransition counts a successfully applied relationship change.
func RecordTransition(graph, op string) {
	relationshipTransitions.WithLabelValues(graph, op).Inc()
}
