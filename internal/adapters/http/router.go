package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/groundtruth/walkroute/internal/pkg/metrics"
)

// SetupRoutes registers all REST and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error":   "rate limit exceeded",
				"message": "too many requests, please try again later",
			})
		},
		SkipFailedRequests: false,
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout — fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Session API — 30s per-request timeout; route fetch and geolocation
	// wait on collaborators inside the request.
	const cmdTimeout = 30 * time.Second
	v1 := app.Group("/v1")
	v1.Post("/sessions", CreateSessionHandler(deps))
	v1.Get("/sessions/:id", timeout.NewWithContext(GetStateHandler(deps), cmdTimeout))
	v1.Post("/sessions/:id/map-click", timeout.NewWithContext(MapClickHandler(deps), cmdTimeout))
	v1.Post("/sessions/:id/endpoints/:slot/text", timeout.NewWithContext(TextEntryHandler(deps), cmdTimeout))
	v1.Post("/sessions/:id/endpoints/:slot/search", timeout.NewWithContext(PlaceSearchHandler(deps), cmdTimeout))
	v1.Post("/sessions/:id/route", timeout.NewWithContext(RequestRouteHandler(deps), cmdTimeout))
	v1.Post("/sessions/:id/clear", timeout.NewWithContext(ClearHandler(deps), cmdTimeout))
	v1.Post("/sessions/:id/location/refresh", timeout.NewWithContext(RefreshLocationHandler(deps), cmdTimeout))
	v1.Post("/sessions/:id/location/report", timeout.NewWithContext(ReportPositionHandler(deps), cmdTimeout))
	v1.Post("/sessions/:id/location/report-error", timeout.NewWithContext(ReportPositionErrorHandler(deps), cmdTimeout))
	v1.Post("/sessions/:id/hazard/image", timeout.NewWithContext(SelectImageHandler(deps), cmdTimeout))
	v1.Post("/sessions/:id/hazard/submit", timeout.NewWithContext(SubmitHazardHandler(deps), cmdTimeout))

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("session", c.Query("session"))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
