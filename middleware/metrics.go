package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	chargesCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pix_charges_created_total",
			Help: "Total number of PIX charges created per provider",
		},
		[]string{"provider", "status"},
	)

	webhooksProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pix_webhooks_processed_total",
			Help: "Total number of provider webhooks processed",
		},
		[]string{"provider", "status"},
	)
)

func init() {
	prometheus.MustRegister(httpRequestsTotal)
	prometheus.MustRegister(httpRequestDuration)
	prometheus.MustRegister(chargesCreatedTotal)
	prometheus.MustRegister(webhooksProcessedTotal)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordChargeCreated(provider, status string) {
	chargesCreatedTotal.WithLabelValues(provider, status).Inc()
}

func RecordWebhookProcessed(provider, status string) {
	webhooksProcessedTotal.WithLabelValues(provider, status).Inc()
}
