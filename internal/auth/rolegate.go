package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classroll/internal/directory"
)

// AuthorizationError signals a role mismatch or insufficient role. No session
// exists when it is returned.
type AuthorizationError struct {
	UserID    string
	Requested directory.Role
	Actual    directory.Role
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("role %q not granted for user %s (authoritative role %q)", e.Requested, e.UserID, e.Actual)
}

// Session is an authorized login: the user, the confirmed role, and tokens.
type Session struct {
	UserID string
	Role   directory.Role
	Tokens TokenPair
}

// RoleGate authorizes requested roles against the directory and issues
// sessions. The authoritative role is looked up on every call; a previously
// observed role is never reused.
type RoleGate struct {
	dir        directory.Directory
	issuer     string
	signingKey string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewRoleGate builds a gate over the given directory.
func NewRoleGate(dir directory.Directory, issuer, signingKey string, accessTTL, refreshTTL time.Duration) *RoleGate {
	return &RoleGate{dir: dir, issuer: issuer, signingKey: signingKey, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Authorize confirms that the requested role equals the user's authoritative
// role and issues a session. On mismatch it returns *AuthorizationError and
// no session.
func (g *RoleGate) Authorize(ctx context.Context, userID string, requested directory.Role) (Session, error) {
	if !requested.Valid() {
		return Session{}, &AuthorizationError{UserID: userID, Requested: requested}
	}
	actual, err := g.dir.RoleOf(ctx, userID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return Session{}, &AuthorizationError{UserID: userID, Requested: requested}
		}
		return Session{}, err
	}
	if actual != requested {
		return Session{}, &AuthorizationError{UserID: userID, Requested: requested, Actual: actual}
	}
	tokens, err := Issue(userID, actual, g.issuer, g.signingKey, g.accessTTL, g.refreshTTL)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: userID, Role: actual, Tokens: tokens}, nil
}

// Confirm re-resolves the authoritative role for an already issued session
// claim. Used on every privileged call so a stale or forged role claim never
// grants access by itself.
func (g *RoleGate) Confirm(ctx context.Context, claims Claims) (directory.Role, error) {
	actual, err := g.dir.RoleOf(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return "", &AuthorizationError{UserID: claims.Subject, Requested: claims.Role}
		}
		return "", err
	}
	if actual != claims.Role {
		return "", &AuthorizationError{UserID: claims.Subject, Requested: claims.Role, Actual: actual}
	}
	return actual, nil
}
