package domain

import (
	"errors"
	"time"
)

// Role is the permission level recorded for a directory user.
type Role string

const (
	RoleStaff Role = "Staff"
	RoleAdmin Role = "Admin"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrForbidden = errors.New("access forbidden")
var ErrInvalidRole = errors.New("invalid role")

// Valid reports whether r is one of the defined roles. Only valid roles are
// ever persisted.
func (r Role) Valid() bool {
	return r == RoleStaff || r == RoleAdmin
}

// User is a directory record: one row per externally authenticated identity.
// ClerkID is the opaque identifier issued by the identity provider and never
// changes after insertion; Role is the only mutable field.
type User struct {
	ID        int64     `json:"id"`
	ClerkID   string    `json:"clerk_id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
