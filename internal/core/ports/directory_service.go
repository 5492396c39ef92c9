package ports

import (
	"context"

	"github.com/staffdesk/user-directory/internal/core/domain"
)

// DirectoryService exposes the user directory operations consumed by the API.
type DirectoryService interface {
	// Authorize checks that callerID's stored role equals required.
	// A caller without a directory record, or with a different role,
	// yields domain.ErrForbidden.
	Authorize(ctx context.Context, callerID string, required domain.Role) error
	// UpdateRole performs the admin-gated role mutation flow.
	UpdateRole(ctx context.Context, input UpdateRoleInput) (*domain.User, error)
	// Provision ensures a directory record exists for clerkID, creating it
	// with the default Staff role on a first visit. The bool reports whether
	// this call created the record.
	Provision(ctx context.Context, clerkID string) (*domain.User, bool, error)
	// ListUsers returns all records; callerID must hold the Admin role.
	ListUsers(ctx context.Context, callerID string) ([]domain.User, error)
}

// UpdateRoleInput carries a role mutation request through the service.
type UpdateRoleInput struct {
	// CallerID is the authenticated actor requesting the change.
	CallerID string
	// TargetClerkID identifies the record to mutate.
	TargetClerkID string
	// Role is the requested new role, already string-typed but not yet
	// validated against the enum.
	Role domain.Role
}
