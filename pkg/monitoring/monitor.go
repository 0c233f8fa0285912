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
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 审核结果计数，bulk 区分单条与批量
	ReviewCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_reviews_total",
			Help: "Number of submissions reviewed",
		},
		[]string{"status", "bulk"},
	)

	StoreDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_call_duration_seconds",
			Help:    "Duration of submission store calls",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"op"},
	)

	StoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_call_errors_total",
			Help: "Number of failed submission store calls",
		},
		[]string{"op"},
	)

	registerOnce sync.Once
)

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(ReviewCounter)
		prometheus.MustRegister(StoreDuration)
		prometheus.MustRegister(StoreErrors)
	})
}

func ObserveStoreCall(op string, d time.Duration, err error) {
	StoreDuration.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		StoreErrors.WithLabelValues(op).Inc()
	}
}

func ObserveReviews(status string, bulk bool, n int64) {
	if n <= 0 {
		return
	}
	ReviewCounter.WithLabelValues(status, strconv.FormatBool(bulk)).Add(float64(n))
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		// 按路由模板统计，未匹配的路径归为一类，避免标签基数失控
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		RequestCounter.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(status)).Inc()
		RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
