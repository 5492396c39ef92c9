package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/staffdesk/user-directory/internal/core/domain"
	"github.com/staffdesk/user-directory/internal/core/ports"
)

// DirectoryService implements the role authorization, role mutation,
// provisioning and listing flows over a single user repository.
type DirectoryService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
}

func NewDirectoryService(repo ports.UserRepository, logger zerolog.Logger) *DirectoryService {
	return &DirectoryService{repo: repo, logger: logger}
}

// Authorize checks that the caller's stored role equals required. The denial
// reason is logged but never returned to the caller beyond ErrForbidden; the
// check is a plain role-equality predicate so a hierarchy could replace it
// without touching call sites.
func (s *DirectoryService) Authorize(ctx context.Context, callerID string, required domain.Role) error {
	caller, err := s.repo.FindByClerkID(ctx, callerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Warn().Str("caller_id", callerID).Msg("denied: caller has no directory record")
			return domain.ErrForbidden
		}
		return fmt.Errorf("authorize caller: %w", err)
	}

	if caller.Role != required {
		s.logger.Warn().
			Str("caller_id", callerID).
			Str("caller_role", string(caller.Role)).
			Str("required_role", string(required)).
			Msg("denied: insufficient role")
		return domain.ErrForbidden
	}

	return nil
}

// UpdateRole performs the role mutation flow in strict order, short-circuiting
// on the first failure: authorize the caller as Admin, validate the request,
// then apply the single-row update. Exactly one row is mutated on success and
// none on any failure path; replaying an identical request succeeds again
// without changing state.
func (s *DirectoryService) UpdateRole(ctx context.Context, input ports.UpdateRoleInput) (*domain.User, error) {
	if err := s.Authorize(ctx, input.CallerID, domain.RoleAdmin); err != nil {
		return nil, err
	}

	if input.TargetClerkID == "" || !input.Role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	updated, err := s.repo.UpdateRole(ctx, input.TargetClerkID, input.Role)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update role: %w", err)
	}

	s.logger.Info().
		Str("caller_id", input.CallerID).
		Str("target_clerk_id", input.TargetClerkID).
		Str("role", string(input.Role)).
		Msg("role updated")

	return updated, nil
}

// Provision ensures a directory record exists for clerkID, creating one with
// the Staff role on a first visit. Two concurrent first visits race on the
// insert; the loser's unique-constraint conflict means the record now exists,
// so it is resolved by re-reading rather than surfaced.
func (s *DirectoryService) Provision(ctx context.Context, clerkID string) (*domain.User, bool, error) {
	existing, err := s.repo.FindByClerkID(ctx, clerkID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, false, fmt.Errorf("provision lookup: %w", err)
	}

	created, err := s.repo.Insert(ctx, clerkID, domain.RoleStaff)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			winner, rerr := s.repo.FindByClerkID(ctx, clerkID)
			if rerr != nil {
				return nil, false, fmt.Errorf("provision re-read: %w", rerr)
			}
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("provision insert: %w", err)
	}

	s.logger.Info().Str("clerk_id", clerkID).Msg("user provisioned")
	return created, true, nil
}

// ListUsers returns every directory record in insertion order. Restricted to
// admins; the full scan is acceptable at this scale and deliberately unpaged.
func (s *DirectoryService) ListUsers(ctx context.Context, callerID string) ([]domain.User, error) {
	if err := s.Authorize(ctx, callerID, domain.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
