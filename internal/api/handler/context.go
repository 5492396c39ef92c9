package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/staffdesk/user-directory/internal/api/middleware"
)

// ctxCallerID extracts the caller identity injected by the Auth middleware.
// An empty result means the request is unauthenticated; the handler is
// responsible for the 401, so the endpoint's authentication check stays
// explicit and testable.
func ctxCallerID(c echo.Context) string {
	callerID, _ := c.Get(middleware.CallerIDKey).(string)
	return callerID
}
