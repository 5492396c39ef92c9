package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/staffdesk/user-directory/internal/core/domain"
)

func renderError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/v1/users/staff-1/role", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop())(err, c)
	return rec
}

func TestErrorHandler_DomainErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"invalid role", domain.ErrInvalidRole, http.StatusBadRequest},
		{"not found", domain.ErrUserNotFound, http.StatusNotFound},
		{"echo error", echo.NewHTTPError(http.StatusUnauthorized, "authentication required"), http.StatusUnauthorized},
		{"unexpected", errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := renderError(t, tc.err)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Fatalf("missing error envelope: %s", rec.Body.String())
			}
		})
	}
}

// Wrapped storage errors must never leak internals to the client.
func TestErrorHandler_NoInternalLeak(t *testing.T) {
	rec := renderError(t, errors.New(`ERROR: relation "users" does not exist (SQLSTATE 42P01)`))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "SQLSTATE") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "internal server error") {
		t.Fatalf("expected generic message, got %s", rec.Body.String())
	}
}
