package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/portal-service/pkg/util"
)

// Role names resolved by the auth service.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleAgent   = "agent"
	RoleClient  = "client"
)

// IsPrivileged reports whether the role list carries a role that bypasses
// ownership and time-window restrictions. Pure function, no global state.
func IsPrivileged(roles []string) bool {
	for _, role := range roles {
		if role == RoleAdmin || role == RoleManager {
			return true
		}
	}
	return false
}

// IsAgent reports whether the role list includes any internal staff role.
func IsAgent(roles []string) bool {
	for _, role := range roles {
		if role == RoleAdmin || role == RoleManager || role == RoleAgent {
			return true
		}
	}
	return false
}

// RequireRole ensures the caller holds one of the allowed roles.
func RequireRole(allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, ok := ContextFrom(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowed) == 0 || rc.HasRole(allowed...) {
			return c.Next()
		}
		return apperrors.NewForbidden("insufficient role")
	}
}

// RequireAuthenticated ensures a RequestContext is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := ContextFrom(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
