package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/staffdesk/user-directory/internal/api/metrics"
	"github.com/staffdesk/user-directory/internal/core/domain"
	"github.com/staffdesk/user-directory/internal/core/ports"
)

// UserHandler handles HTTP requests for the user directory.
type UserHandler struct {
	service ports.DirectoryService
}

func NewUserHandler(service ports.DirectoryService) *UserHandler {
	return &UserHandler{service: service}
}

// --- Request / Response types ---

type updateRoleRequest struct {
	Role string `json:"role"`
}

type listUsersResponse struct {
	Users []domain.User `json:"users"`
}

// Me returns the caller's own directory record, provisioning it with the
// default Staff role on a first visit.
//
// @Summary      Get (and provision) the caller's directory record
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.User
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /v1/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	callerID := ctxCallerID(c)
	if callerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	user, created, err := h.service.Provision(c.Request().Context(), callerID)
	if err != nil {
		return err
	}

	if created {
		metrics.UsersProvisionedTotal.WithLabelValues("created").Inc()
	} else {
		metrics.UsersProvisionedTotal.WithLabelValues("existing").Inc()
	}

	return c.JSON(http.StatusOK, user)
}

// List returns every directory record. Admin only.
//
// @Summary      List all directory users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  listUsersResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	callerID := ctxCallerID(c)
	if callerID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	users, err := h.service.ListUsers(c.Request().Context(), callerID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listUsersResponse{Users: users})
}

// UpdateRole handles PUT /v1/users/:clerk_id/role.
//
// The checks run in strict order: authentication, then the caller's Admin
// role, then request validity, then target existence. The bind is deliberately
// lenient — a malformed body leaves the role empty and is reported only after
// the authorization check, so a non-admin probing with garbage still sees 403,
// never 400.
//
// @Summary      Change a user's role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        clerk_id  path      string             true  "Target user's identity"
// @Param        body      body      updateRoleRequest  true  "New role (Staff or Admin)"
// @Success      200       {object}  domain.User
// @Failure      400       {object}  map[string]string
// @Failure      401       {object}  map[string]string
// @Failure      403       {object}  map[string]string
// @Failure      404       {object}  map[string]string
// @Failure      500       {object}  map[string]string
// @Router       /v1/users/{clerk_id}/role [put]
func (h *UserHandler) UpdateRole(c echo.Context) error {
	callerID := ctxCallerID(c)
	if callerID == "" {
		metrics.RoleUpdatesTotal.WithLabelValues("unauthenticated").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	var req updateRoleRequest
	_ = c.Bind(&req)

	updated, err := h.service.UpdateRole(c.Request().Context(), ports.UpdateRoleInput{
		CallerID:      callerID,
		TargetClerkID: c.Param("clerk_id"),
		Role:          domain.Role(req.Role),
	})
	if err != nil {
		metrics.RoleUpdatesTotal.WithLabelValues(updateOutcome(err)).Inc()
		return err
	}

	metrics.RoleUpdatesTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, updated)
}

func updateOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidRole):
		return "invalid"
	case errors.Is(err, domain.ErrUserNotFound):
		return "not_found"
	default:
		return "error"
	}
}
