// Package metrics registers and records Prometheus metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	ReviewsGenerated  prometheus.Counter
	AIFailures        *prometheus.CounterVec
	QuotaDenials      prometheus.Counter
	UsersRegistered   prometheus.Counter
	SubscriptionsSold *prometheus.CounterVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		ReviewsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "reviews_generated_total",
			Help: "Total number of code reviews generated",
		}),
		AIFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_failures_total",
				Help: "Total number of failed AI review generations",
			},
			[]string{"kind"}, // malformed, json_not_found, parse_failed, empty_result
		),
		QuotaDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "quota_denials_total",
			Help: "Total number of reviews denied by the plan limit",
		}),
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of users registered",
		}),
		SubscriptionsSold: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "subscriptions_sold_total",
				Help: "Total number of subscriptions sold",
			},
			[]string{"plan"}, // pro, team
		),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		}),
	}
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // route pattern, not the raw URL

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)

			return err
		}
	}
}

// RecordReviewGenerated increments the generated reviews counter
func (m *Metrics) RecordReviewGenerated() {
	m.ReviewsGenerated.Inc()
}

// RecordAIFailure increments the AI failure counter for a failure kind
func (m *Metrics) RecordAIFailure(kind string) {
	m.AIFailures.WithLabelValues(kind).Inc()
}

// RecordQuotaDenial increments the quota denial counter
func (m *Metrics) RecordQuotaDenial() {
	m.QuotaDenials.Inc()
}

// RecordUserRegistered increments the registered users counter
func (m *Metrics) RecordUserRegistered() {
	m.UsersRegistered.Inc()
}

// RecordSubscriptionSold increments the subscriptions sold counter
func (m *Metrics) RecordSubscriptionSold(plan string) {
	m.SubscriptionsSold.WithLabelValues(plan).Inc()
}

// RecordCacheHit increments the cache hit counter
func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

// RecordCacheMiss increments the cache miss counter
func (m *Metrics) RecordCacheMiss() {
	m.CacheMisses.Inc()
}
