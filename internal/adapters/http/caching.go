package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control headers based on endpoint. Session
// state is per-user and mutates constantly, so it must never be cached.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		// Don't override if already set
		if existing := c.Get("Cache-Control"); existing != "" {
			return err
		}

		path := c.Path()
		var policy string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			policy = "public, max-age=10"

		case path == "/metrics":
			policy = "no-cache"

		case strings.HasPrefix(path, "/v1/sessions"):
			policy = "no-store"
		}

		if policy != "" {
			c.Set("Cache-Control", policy)
		}

		return err
	}
}
