package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"classroll/internal/directory"
)

const (
	testIssuer = "classroll-test"
	testKey    = "test-signing-key"
)

func newTestGate(t *testing.T) (*RoleGate, *directory.MemoryDirectory) {
	t.Helper()
	dir := directory.NewMemory()
	ctx := context.Background()
	if _, err := dir.Create(ctx, directory.User{ID: "s1", Email: "s1@school.test", Role: directory.RoleStudent}); err != nil {
		t.Fatalf("create student: %v", err)
	}
	if _, err := dir.Create(ctx, directory.User{ID: "t1", Email: "t1@school.test", Role: directory.RoleTeacher}); err != nil {
		t.Fatalf("create teacher: %v", err)
	}
	return NewRoleGate(dir, testIssuer, testKey, 15*time.Minute, time.Hour), dir
}

func TestAuthorizeRoleMismatch(t *testing.T) {
	gate, _ := newTestGate(t)

	session, err := gate.Authorize(context.Background(), "s1", directory.RoleTeacher)
	var authErr *AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("want AuthorizationError, got %v", err)
	}
	if session.Tokens.AccessToken != "" {
		t.Fatal("mismatch must not establish a session")
	}
}

func TestAuthorizeUnknownUser(t *testing.T) {
	gate, _ := newTestGate(t)

	_, err := gate.Authorize(context.Background(), "ghost", directory.RoleStudent)
	var authErr *AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("want AuthorizationError, got %v", err)
	}
}

func TestAuthorizeIssuesVerifiableSession(t *testing.T) {
	gate, _ := newTestGate(t)

	session, err := gate.Authorize(context.Background(), "t1", directory.RoleTeacher)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if session.Role != directory.RoleTeacher {
		t.Fatalf("want teacher session, got %s", session.Role)
	}

	claims, err := Parse(session.Tokens.AccessToken, testKey, testIssuer)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Subject != "t1" || claims.Role != directory.RoleTeacher {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	gate, _ := newTestGate(t)
	session, err := gate.Authorize(context.Background(), "t1", directory.RoleTeacher)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if _, err := Parse(session.Tokens.AccessToken, "other-key", testIssuer); err == nil {
		t.Fatal("token signed with another key must not parse")
	}
}

func TestConfirmDetectsRoleDrift(t *testing.T) {
	gate, dir := newTestGate(t)
	ctx := context.Background()

	session, err := gate.Authorize(ctx, "t1", directory.RoleTeacher)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	claims, err := Parse(session.Tokens.AccessToken, testKey, testIssuer)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// Demote the user after the token was issued; the cached role claim
	// alone must no longer grant access.
	if _, err := dir.Create(ctx, directory.User{ID: "t1", Email: "t1@school.test", Role: directory.RoleStudent}); err != nil {
		t.Fatalf("demote: %v", err)
	}

	_, err = gate.Confirm(ctx, claims)
	var authErr *AuthorizationError
	if !errors.As(err, &authErr) {
		t.Fatalf("want AuthorizationError after role change, got %v", err)
	}
}
