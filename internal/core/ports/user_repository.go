package ports

import (
	"context"

	"github.com/staffdesk/user-directory/internal/core/domain"
)

// UserRepository defines the interface for user directory persistence.
type UserRepository interface {
	// FindByClerkID returns the record for clerkID, or domain.ErrUserNotFound.
	FindByClerkID(ctx context.Context, clerkID string) (*domain.User, error)
	// ListAll returns every record in insertion order.
	ListAll(ctx context.Context) ([]domain.User, error)
	// Insert creates a record; a duplicate clerkID yields domain.ErrUserExists.
	Insert(ctx context.Context, clerkID string, role domain.Role) (*domain.User, error)
	// UpdateRole sets the role on the matching record, or returns
	// domain.ErrUserNotFound when no row matches clerkID.
	UpdateRole(ctx context.Context, clerkID string, role domain.Role) (*domain.User, error)
}
