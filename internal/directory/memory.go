package directory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryDirectory is a map-backed directory for dev mode and tests.
type MemoryDirectory struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemory creates an empty in-memory directory.
func NewMemory() *MemoryDirectory {
	return &MemoryDirectory{users: make(map[string]User)}
}

// UserByID returns the user with the given id.
func (d *MemoryDirectory) UserByID(_ context.Context, id string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// UserByEmail returns the user with the given email.
func (d *MemoryDirectory) UserByEmail(_ context.Context, email string) (*User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, u := range d.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

// RoleOf returns the authoritative role for a user.
func (d *MemoryDirectory) RoleOf(ctx context.Context, userID string) (Role, error) {
	u, err := d.UserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

// Create inserts a new user.
func (d *MemoryDirectory) Create(_ context.Context, u User) (*User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	d.users[u.ID] = u
	return &u, nil
}
