package middleware

import (
	"context"
	"strings"

	"pulse/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SessionChecker validates a bearer token against the session store and
// resolves it to the authenticated identity.
type SessionChecker interface {
	CheckSession(ctx context.Context, token string) (models.AuthContext, error)
}

// AuthLocalKey is the Fiber locals key holding the request's AuthContext.
const AuthLocalKey = "auth"

// TokenFromRequest extracts the bearer token from the Authorization header,
// falling back to the "token" query parameter for WebSocket handshakes.
func TokenFromRequest(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

// AuthRequired enforces authentication for protected routes. The token is
// checked against the session store on every request, so a revoked session
// fails immediately even if its token has not expired.
func AuthRequired(checker SessionChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization required",
			})
		}

		auth, err := checker.CheckSession(c.UserContext(), token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session",
			})
		}

		c.Locals(AuthLocalKey, auth)
		c.Locals("userID", auth.UserID)
		c.Locals("sessionID", auth.SessionID)
		return c.Next()
	}
}

// Auth returns the AuthContext stored by AuthRequired. The boolean is false
// when the route was reached without authentication.
func Auth(c *fiber.Ctx) (models.AuthContext, bool) {
	auth, ok := c.Locals(AuthLocalKey).(models.AuthContext)
	return auth, ok
}
