package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/staffdesk/user-directory/internal/core/domain"
)

const uniqueViolation = "23505"

// UserRepository persists directory records in the users table.
type UserRepository struct {
	pool *Pool
}

func NewUserRepository(pool *Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) FindByClerkID(ctx context.Context, clerkID string) (*domain.User, error) {
	var u domain.User
	query := `SELECT id, clerk_id, role, created_at FROM users WHERE clerk_id = $1`

	err := r.pool.QueryRow(ctx, query, clerkID).Scan(&u.ID, &u.ClerkID, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return &u, nil
}

// ListAll returns every record ordered by surrogate id, i.e. insertion order.
func (r *UserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	query := `SELECT id, clerk_id, role, created_at FROM users ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.ClerkID, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}

func (r *UserRepository) Insert(ctx context.Context, clerkID string, role domain.Role) (*domain.User, error) {
	query := `INSERT INTO users (clerk_id, role) VALUES ($1, $2)
			  RETURNING id, clerk_id, role, created_at`

	var u domain.User
	err := r.pool.QueryRow(ctx, query, clerkID, role).Scan(&u.ID, &u.ClerkID, &u.Role, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &u, nil
}

// UpdateRole sets the role on the matching row. The single-row UPDATE is
// atomic, so no transaction is needed; zero affected rows means the target
// identity has no record.
func (r *UserRepository) UpdateRole(ctx context.Context, clerkID string, role domain.Role) (*domain.User, error) {
	query := `UPDATE users SET role = $2 WHERE clerk_id = $1
			  RETURNING id, clerk_id, role, created_at`

	var u domain.User
	err := r.pool.QueryRow(ctx, query, clerkID, role).Scan(&u.ID, &u.ClerkID, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user role: %w", err)
	}

	return &u, nil
}
