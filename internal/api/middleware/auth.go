package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/staffdesk/user-directory/internal/core/ports"
)

// CallerIDKey is the echo context key under which the resolved caller
// identity is stored.
const CallerIDKey = "caller_id"

// Auth resolves the caller identity from the Authorization header, when
// present, and injects it into the request context. It never rejects a
// request itself: the absence of an identity is an endpoint-level concern
// (each handler decides whether an anonymous caller gets a 401), which keeps
// handlers testable without a real identity provider.
func Auth(verifier ports.IdentityVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return next(c)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return next(c)
			}

			callerID, err := verifier.Verify(parts[1])
			if err != nil {
				// Invalid token == no identity; the handler returns the 401.
				return next(c)
			}

			c.Set(CallerIDKey, callerID)
			return next(c)
		}
	}
}
