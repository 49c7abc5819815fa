package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// QuotaChecks result: allowed / quota_exceeded / no_subscription / subscription_expired
	QuotaChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_quota_checks_total",
			Help: "Read-only prompt quota checks by outcome",
		},
		[]string{"result"},
	)

	PromptsTracked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prompt_tracked_total",
			Help: "Prompt increments by outcome",
		},
		[]string{"result"},
	)

	DifficultyAdjustment = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "difficulty_adjustment",
			Help:    "Per-result difficulty adjustment after clamping",
			Buckets: []float64{-0.5, -0.3, -0.1, 0, 0.1, 0.3, 0.5},
		},
	)
)

var registerOnce sync.Once

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter, RequestDuration, QuotaChecks, PromptsTracked, DifficultyAdjustment)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
