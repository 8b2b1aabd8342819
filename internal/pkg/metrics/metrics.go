package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "walkroute",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "walkroute",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	httpResponseSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "walkroute",
		Subsystem: "http",
		Name:      "response_size_bytes",
		Help:      "HTTP response size in bytes",
		Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
	}, []string{"method", "path"})

	// Collaborator call metrics
	CollaboratorRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "walkroute",
		Subsystem: "collaborator",
		Name:      "requests_total",
		Help:      "Total outbound collaborator requests by outcome",
	}, []string{"collaborator", "outcome"})

	CollaboratorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "walkroute",
		Subsystem: "collaborator",
		Name:      "request_duration_seconds",
		Help:      "Outbound collaborator request latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"collaborator"})

	// Geocode cache metrics
	GeocodeCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "walkroute",
		Subsystem: "cache",
		Name:      "geocode_hits_total",
		Help:      "Total geocode cache hits",
	})

	GeocodeCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "walkroute",
		Subsystem: "cache",
		Name:      "geocode_misses_total",
		Help:      "Total geocode cache misses",
	})

	// Session metrics
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "walkroute",
		Subsystem: "session",
		Name:      "active",
		Help:      "Current number of live planning sessions",
	})

	ActiveWebSockets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "walkroute",
		Subsystem: "ws",
		Name:      "active_connections",
		Help:      "Current number of active WebSocket connections",
	})

	// Hazard upload metrics
	HazardUploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "walkroute",
		Subsystem: "hazard",
		Name:      "upload_size_bytes",
		Help:      "Size of submitted hazard images in bytes",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
	})
)

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())
		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(duration)
		httpResponseSize.WithLabelValues(method, path).Observe(float64(len(c.Response().Body())))

		return err
	}
}

// Handler returns a Fiber handler serving Prometheus /metrics endpoint.
func Handler() fiber.Handler {
	handler := promhttp.Handler()
	return func(c *fiber.Ctx) error {
		fasthttpadaptor.NewFastHTTPHandler(handler)(c.Context())
		return nil
	}
}
