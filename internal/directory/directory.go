// Package directory is the authoritative mapping from user identity to role
// and profile attributes. Every privileged decision resolves the role here,
// never from a cached label.
package directory

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Role is a user's authoritative role.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleHOD     Role = "hod"
)

// Valid reports whether r is a supported role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleHOD:
		return true
	default:
		return false
	}
}

// Staff reports whether the role may mark attendance.
func (r Role) Staff() bool {
	return r == RoleTeacher || r == RoleHOD
}

// User is a directory account. Students carry enrollment fields, staff carry
// employee fields; the rest are empty.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	EnrollmentID string `json:"enrollment_id,omitempty"`
	Course       string `json:"course,omitempty"`
	EmployeeID   string `json:"employee_id,omitempty"`
	Department   string `json:"department,omitempty"`
	PasswordHash string `json:"-"`
}

// ErrUserNotFound is returned when an identity does not resolve.
var ErrUserNotFound = errors.New("directory: user not found")

// Directory resolves identities to users and roles.
type Directory interface {
	UserByID(ctx context.Context, id string) (*User, error)
	UserByEmail(ctx context.Context, email string) (*User, error)
	RoleOf(ctx context.Context, userID string) (Role, error)
	Create(ctx context.Context, u User) (*User, error)
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the user's stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}
