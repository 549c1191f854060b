package server

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"notesdrive/internal/store"
)

func TestAuthServiceProvisionUser(t *testing.T) {
	p := newTestPlatform(t, Options{})
	svc := p.srv.authService
	now := time.Now().UTC()

	user, err := svc.ProvisionUser(t.Context(), "Alice@Example.com", "password-123", "", now)
	if err != nil {
		t.Fatalf("provision user: %v", err)
	}
	if user.Username != "alice@example.com" {
		t.Fatalf("expected normalized username, got %q", user.Username)
	}
	if user.Role != store.RoleUser {
		t.Fatalf("expected default role %q, got %q", store.RoleUser, user.Role)
	}

	_, err = svc.ProvisionUser(t.Context(), "alice@example.com", "password-456", store.RoleAdmin, now)
	if httpStatusFromError(err) != http.StatusConflict {
		t.Fatalf("expected conflict for duplicate username, got %v", err)
	}

	_, err = svc.ProvisionUser(t.Context(), "bob", "short", store.RoleUser, now)
	if httpStatusFromError(err) != http.StatusBadRequest {
		t.Fatalf("expected bad request for short password, got %v", err)
	}

	_, err = svc.ProvisionUser(t.Context(), "bob", "password-123", "root", now)
	if httpStatusFromError(err) != http.StatusBadRequest {
		t.Fatalf("expected bad request for unknown role, got %v", err)
	}

	users, err := svc.ListUsers(t.Context())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
}

func TestAuthServiceSessionLifetime(t *testing.T) {
	p := newTestPlatform(t, Options{SessionTTL: time.Hour})
	p.provision(t, "alice", "password-123")
	svc := p.srv.authService
	now := time.Now().UTC()

	result, err := svc.SignIn(t.Context(), "alice", "password-123", now)
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if !result.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expected expiry %s, got %s", now.Add(time.Hour), result.ExpiresAt)
	}

	session, err := svc.Authenticate(t.Context(), result.Token, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if session == nil || session.User.Username != "alice" {
		t.Fatalf("expected active session for alice, got %+v", session)
	}

	session, err = svc.Authenticate(t.Context(), result.Token, now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("authenticate expired: %v", err)
	}
	if session != nil {
		t.Fatal("expected expired session to be rejected")
	}

	pruned, err := svc.PruneSessions(t.Context(), now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("prune sessions: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected 1 pruned session, got %d", pruned)
	}
}

func TestAuthServiceSignInInvalidCredentials(t *testing.T) {
	p := newTestPlatform(t, Options{})
	p.provision(t, "alice", "password-123")

	_, err := p.srv.authService.SignIn(t.Context(), "alice", "password-999", time.Now().UTC())
	if !errors.Is(err, errInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	_, err = p.srv.authService.SignIn(t.Context(), "nobody", "password-123", time.Now().UTC())
	if !errors.Is(err, errInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
}

func TestAuthServiceSignOutIgnoresUnknownToken(t *testing.T) {
	p := newTestPlatform(t, Options{})
	if err := p.srv.authService.SignOut(t.Context(), "unknown", time.Now().UTC()); err != nil {
		t.Fatalf("sign out unknown token: %v", err)
	}
}
