package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/staffdesk/user-directory/internal/core/domain"
	"github.com/staffdesk/user-directory/internal/core/ports"
)

// stubUserRepo is an in-memory repository that counts mutating calls so tests
// can assert which store operations a flow actually performed.
type stubUserRepo struct {
	users map[string]*domain.User
	seq   int64

	insertCalls     int
	updateRoleCalls int

	// failInsertWith, when set, is returned by the next Insert call and
	// cleared; used to simulate the concurrent-first-visit conflict.
	failInsertWith error
	// missNextFind makes the next FindByClerkID miss even when the row
	// exists, simulating a row inserted between lookup and insert.
	missNextFind bool
	// failWith, when set, is returned by every call to simulate storage
	// unavailability.
	failWith error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func (r *stubUserRepo) seed(clerkID string, role domain.Role) *domain.User {
	r.seq++
	u := &domain.User{ID: r.seq, ClerkID: clerkID, Role: role, CreatedAt: time.Now().UTC()}
	r.users[clerkID] = u
	return u
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) FindByClerkID(_ context.Context, clerkID string) (*domain.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	if r.missNextFind {
		r.missNextFind = false
		return nil, domain.ErrUserNotFound
	}
	u, ok := r.users[clerkID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]domain.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	out := make([]domain.User, 0, len(r.users))
	for i := int64(1); i <= r.seq; i++ {
		for _, u := range r.users {
			if u.ID == i {
				out = append(out, *u)
			}
		}
	}
	return out, nil
}

func (r *stubUserRepo) Insert(_ context.Context, clerkID string, role domain.Role) (*domain.User, error) {
	r.insertCalls++
	if r.failInsertWith != nil {
		err := r.failInsertWith
		r.failInsertWith = nil
		return nil, err
	}
	if _, exists := r.users[clerkID]; exists {
		return nil, domain.ErrUserExists
	}
	return cloneUser(r.seed(clerkID, role)), nil
}

func (r *stubUserRepo) UpdateRole(_ context.Context, clerkID string, role domain.Role) (*domain.User, error) {
	r.updateRoleCalls++
	if r.failWith != nil {
		return nil, r.failWith
	}
	u, ok := r.users[clerkID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Role = role
	return cloneUser(u), nil
}

func newService(repo *stubUserRepo) *DirectoryService {
	return NewDirectoryService(repo, zerolog.Nop())
}

func TestAuthorize_AdminAllowed(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("admin-1", domain.RoleAdmin)
	svc := newService(repo)

	if err := svc.Authorize(context.Background(), "admin-1", domain.RoleAdmin); err != nil {
		t.Fatalf("expected admin to be allowed, got %v", err)
	}
}

func TestAuthorize_NoDirectoryRecord(t *testing.T) {
	repo := newStubUserRepo()
	svc := newService(repo)

	if err := svc.Authorize(context.Background(), "ghost", domain.RoleAdmin); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestAuthorize_InsufficientRole(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("staff-2", domain.RoleStaff)
	svc := newService(repo)

	if err := svc.Authorize(context.Background(), "staff-2", domain.RoleAdmin); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateRole_AdminPromotesStaff(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("admin-1", domain.RoleAdmin)
	repo.seed("staff-1", domain.RoleStaff)
	svc := newService(repo)

	updated, err := svc.UpdateRole(context.Background(), ports.UpdateRoleInput{
		CallerID:      "admin-1",
		TargetClerkID: "staff-1",
		Role:          domain.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("UpdateRole returned error: %v", err)
	}
	if updated.Role != domain.RoleAdmin {
		t.Fatalf("expected returned role Admin, got %s", updated.Role)
	}
	if repo.users["staff-1"].Role != domain.RoleAdmin {
		t.Fatalf("stored role not updated: %s", repo.users["staff-1"].Role)
	}
}

func TestUpdateRole_NonAdminNeverReachesStore(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("staff-2", domain.RoleStaff)
	repo.seed("staff-1", domain.RoleStaff)
	svc := newService(repo)

	_, err := svc.UpdateRole(context.Background(), ports.UpdateRoleInput{
		CallerID:      "staff-2",
		TargetClerkID: "staff-1",
		Role:          domain.RoleAdmin,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if repo.updateRoleCalls != 0 {
		t.Fatalf("UpdateRole reached the store %d times, want 0", repo.updateRoleCalls)
	}
	if repo.users["staff-1"].Role != domain.RoleStaff {
		t.Fatalf("target role changed: %s", repo.users["staff-1"].Role)
	}
}

func TestUpdateRole_InvalidRole(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("admin-1", domain.RoleAdmin)
	repo.seed("staff-1", domain.RoleStaff)
	svc := newService(repo)

	_, err := svc.UpdateRole(context.Background(), ports.UpdateRoleInput{
		CallerID:      "admin-1",
		TargetClerkID: "staff-1",
		Role:          "SuperAdmin",
	})
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if repo.updateRoleCalls != 0 {
		t.Fatalf("invalid request must not touch the store, got %d calls", repo.updateRoleCalls)
	}
	if repo.users["staff-1"].Role != domain.RoleStaff {
		t.Fatalf("target role changed: %s", repo.users["staff-1"].Role)
	}
}

func TestUpdateRole_EmptyTarget(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("admin-1", domain.RoleAdmin)
	svc := newService(repo)

	_, err := svc.UpdateRole(context.Background(), ports.UpdateRoleInput{
		CallerID: "admin-1",
		Role:     domain.RoleStaff,
	})
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

// Authorization is checked before request validation: a non-admin sending an
// invalid role still sees the forbidden outcome.
func TestUpdateRole_ForbiddenBeatsInvalid(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("staff-2", domain.RoleStaff)
	svc := newService(repo)

	_, err := svc.UpdateRole(context.Background(), ports.UpdateRoleInput{
		CallerID:      "staff-2",
		TargetClerkID: "staff-1",
		Role:          "SuperAdmin",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateRole_TargetNotFound(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("admin-1", domain.RoleAdmin)
	svc := newService(repo)

	_, err := svc.UpdateRole(context.Background(), ports.UpdateRoleInput{
		CallerID:      "admin-1",
		TargetClerkID: "nobody",
		Role:          domain.RoleStaff,
	})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUpdateRole_Idempotent(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("admin-1", domain.RoleAdmin)
	repo.seed("staff-1", domain.RoleStaff)
	svc := newService(repo)

	input := ports.UpdateRoleInput{
		CallerID:      "admin-1",
		TargetClerkID: "staff-1",
		Role:          domain.RoleAdmin,
	}

	for i := 0; i < 2; i++ {
		updated, err := svc.UpdateRole(context.Background(), input)
		if err != nil {
			t.Fatalf("attempt %d returned error: %v", i+1, err)
		}
		if updated.Role != domain.RoleAdmin {
			t.Fatalf("attempt %d returned role %s", i+1, updated.Role)
		}
	}
	if repo.users["staff-1"].Role != domain.RoleAdmin {
		t.Fatalf("final stored role: %s", repo.users["staff-1"].Role)
	}
}

func TestUpdateRole_StorageFailure(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("admin-1", domain.RoleAdmin)
	repo.seed("staff-1", domain.RoleStaff)
	svc := newService(repo)

	boom := errors.New("connection reset")
	repo.failWith = boom

	_, err := svc.UpdateRole(context.Background(), ports.UpdateRoleInput{
		CallerID:      "admin-1",
		TargetClerkID: "staff-1",
		Role:          domain.RoleAdmin,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
}

func TestProvision_FirstVisitCreatesStaff(t *testing.T) {
	repo := newStubUserRepo()
	svc := newService(repo)

	user, created, err := svc.Provision(context.Background(), "user-new")
	if err != nil {
		t.Fatalf("Provision returned error: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true on first visit")
	}
	if user.Role != domain.RoleStaff {
		t.Fatalf("expected default role Staff, got %s", user.Role)
	}
	if user.ClerkID != "user-new" {
		t.Fatalf("unexpected clerk id: %s", user.ClerkID)
	}
}

func TestProvision_ReturningVisit(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("user-back", domain.RoleAdmin)
	svc := newService(repo)

	user, created, err := svc.Provision(context.Background(), "user-back")
	if err != nil {
		t.Fatalf("Provision returned error: %v", err)
	}
	if created {
		t.Fatalf("expected created=false for existing user")
	}
	if user.Role != domain.RoleAdmin {
		t.Fatalf("existing role must be preserved, got %s", user.Role)
	}
	if repo.insertCalls != 0 {
		t.Fatalf("returning visit must not insert, got %d calls", repo.insertCalls)
	}
}

// Two first visits race on the insert; the loser's unique-constraint conflict
// must be resolved by re-reading the winner's row, never surfaced.
func TestProvision_ConflictResolvedByReread(t *testing.T) {
	repo := newStubUserRepo()
	svc := newService(repo)

	repo.seed("user-racy", domain.RoleStaff) // the concurrent winner's row
	repo.missNextFind = true                 // our lookup ran before that insert
	repo.failInsertWith = domain.ErrUserExists

	user, created, err := svc.Provision(context.Background(), "user-racy")
	if err != nil {
		t.Fatalf("conflict must not surface, got %v", err)
	}
	if repo.insertCalls != 1 {
		t.Fatalf("expected one insert attempt, got %d", repo.insertCalls)
	}
	if created {
		t.Fatalf("conflict loser must report created=false")
	}
	if user.ClerkID != "user-racy" || user.Role != domain.RoleStaff {
		t.Fatalf("unexpected user after re-read: %+v", user)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(repo.users))
	}
}

func TestListUsers_AdminSeesAllInInsertionOrder(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("admin-1", domain.RoleAdmin)
	repo.seed("staff-1", domain.RoleStaff)
	repo.seed("staff-2", domain.RoleStaff)
	svc := newService(repo)

	users, err := svc.ListUsers(context.Background(), "admin-1")
	if err != nil {
		t.Fatalf("ListUsers returned error: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	for i, want := range []string{"admin-1", "staff-1", "staff-2"} {
		if users[i].ClerkID != want {
			t.Fatalf("position %d: got %s, want %s", i, users[i].ClerkID, want)
		}
	}
}

func TestListUsers_StaffForbidden(t *testing.T) {
	repo := newStubUserRepo()
	repo.seed("staff-1", domain.RoleStaff)
	svc := newService(repo)

	if _, err := svc.ListUsers(context.Background(), "staff-1"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
