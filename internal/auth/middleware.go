package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-service/internal/domain"
	apperrors "github.com/spec-kit/portal-service/pkg/util"
)

const contextKey = "request_context"

// Middleware validates bearer tokens and resolves the RequestContext the
// core uses for tenant scoping and attribution.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	rc := domain.RequestContext{
		UserID:         claims.Subject,
		OrganizationID: claims.OrganizationID,
		Roles:          claims.Roles,
		IPAddress:      c.IP(),
		UserAgent:      c.Get("User-Agent"),
	}
	c.Locals(contextKey, rc)
	return c.Next()
}

// ContextFrom retrieves the resolved RequestContext.
func ContextFrom(c *fiber.Ctx) (domain.RequestContext, bool) {
	val := c.Locals(contextKey)
	if val == nil {
		return domain.RequestContext{}, false
	}
	rc, ok := val.(domain.RequestContext)
	return rc, ok
}
