package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// RouteLogger logs entry at debug and exit at info, through the trace-scoped logger
// Tracing installs. Admin page hits and API calls are told apart by the "surface" field.
func RouteLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lg := zerolog.Ctx(c.UserContext()).With().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("surface", surface(c.Path())).
			Logger()
		start := time.Now()
		lg.Debug().Msg("Entering request")
		err := c.Next()
		lg.Info().
			Int("status", c.Response().StatusCode()).
			Int64("ms", time.Since(start).Milliseconds()).
			Msg("Exiting request")
		return err
	}
}

func surface(path string) string {
	switch {
	case len(path) >= 4 && path[:4] == "/api":
		return "api"
	case len(path) >= 7 && path[:7] == "/health":
		return "health"
	}
	return "admin"
}
