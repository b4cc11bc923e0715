package middleware

import (
	"context"
	"errors"
	"strings"

	"insurehub/internal/core/domain"
	"insurehub/internal/core/services"
	"insurehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LocalActor is the locals key AuthMiddleware stores the actor under
const LocalActor = "actor"

// ActorResolver turns an access token into the current actor
type ActorResolver interface {
	ResolveActor(ctx context.Context, accessToken string) (domain.Actor, error)
}

// AuthMiddleware creates authentication middleware. The actor is resolved
// once per request and stored in locals.
func AuthMiddleware(resolver ActorResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		actor, err := resolver.ResolveActor(c.Context(), accessToken)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				return response.Unauthorized(c, "Access token expired")
			case errors.Is(err, services.ErrUnauthenticated):
				return response.Unauthorized(c, "Invalid access token")
			default:
				return response.InternalServerError(c, "Failed to authenticate")
			}
		}

		c.Locals(LocalActor, actor)

		return c.Next()
	}
}

// CurrentActor returns the actor stored by AuthMiddleware
func CurrentActor(c *fiber.Ctx) (domain.Actor, bool) {
	actor, ok := c.Locals(LocalActor).(domain.Actor)
	return actor, ok
}

// RoleMiddleware allows requests whose actor holds any of the roles
func RoleMiddleware(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := CurrentActor(c)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, role := range allowed {
			if actor.Roles.Has(role) {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only the Admin role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// extractToken reads the access token from the cookie, then the Bearer header
func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}
