package middleware

import (
	"stock-admin/internal/constants"
	"stock-admin/internal/pkg/entity"
	"stock-admin/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// HasPermission reports whether the session user's role grants p.
func HasPermission(c *fiber.Ctx, p constants.Permission) bool {
	user := GetUser(c)
	if user == nil {
		return false
	}
	return constants.Allowed(user.Role, p)
}

// AuthorizePermission rejects requests whose session user lacks p.
// No session -> 401; permission not granted -> 403.
func AuthorizePermission(p constants.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetUser(c) == nil {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !HasPermission(c, p) {
			log.Info().Str("trace_id", GetTraceID(c)).Str("permission", p.String()).Msg("permission denied")
			return response.Forbidden(c, "User is Forbidden from performing this action")
		}
		return c.Next()
	}
}

// AuthorizeRoute is AuthorizePermission with the entity taken from the request path's
// collection segment ("/api/v1/stocks/:id" -> stock).
func AuthorizeRoute(service, operation string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := constants.Permission{
			Service:   service,
			Entity:    entity.FromPath(c.Path()),
			Operation: operation,
		}
		return AuthorizePermission(p)(c)
	}
}
