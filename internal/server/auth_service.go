package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	internalauth "notesdrive/internal/auth"
	"notesdrive/internal/store"
)

const defaultSessionTTL = 24 * time.Hour

var errInvalidCredentials = errors.New("invalid credentials")

// AuthService encapsulates session auth operations backed by the store.
type AuthService struct {
	store      store.AuthStore
	sessionTTL time.Duration
}

type authSignInResult struct {
	User      *store.AuthUser
	Token     string
	ExpiresAt time.Time
}

// NewAuthService creates an auth service. ttl <= 0 selects a 24h session lifetime.
func NewAuthService(authStore store.AuthStore, ttl time.Duration) *AuthService {
	if authStore == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &AuthService{store: authStore, sessionTTL: ttl}
}

// SignIn verifies credentials and opens a new session.
func (a *AuthService) SignIn(ctx context.Context, username, password string, now time.Time) (*authSignInResult, error) {
	if a == nil || a.store == nil {
		return nil, fmt.Errorf("auth store is required")
	}

	normalized, err := internalauth.NormalizeUsername(username)
	if err != nil {
		return nil, badRequestCode(err, ErrCodeInvalidArgument)
	}
	if strings.TrimSpace(password) == "" {
		return nil, badRequestCode(fmt.Errorf("password is required"), ErrCodeMissingRequired)
	}

	user, err := a.store.GetUserByUsername(ctx, normalized)
	if err != nil {
		return nil, storeFailure(err)
	}
	hash := ""
	if user != nil && !user.Disabled {
		hash = user.PasswordHash
	}
	if !internalauth.VerifyPassword(hash, password) {
		return nil, errInvalidCredentials
	}

	token, tokenHash, err := internalauth.NewSessionToken()
	if err != nil {
		return nil, internalError(err)
	}
	expiresAt := now.Add(a.sessionTTL)
	if err := a.store.CreateSession(ctx, user.ID, tokenHash, expiresAt, now); err != nil {
		return nil, storeFailure(err)
	}

	return &authSignInResult{
		User:      user,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Authenticate resolves an active session for a bearer token, or nil.
func (a *AuthService) Authenticate(ctx context.Context, token string, now time.Time) (*store.AuthSession, error) {
	if a == nil || a.store == nil {
		return nil, nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil
	}
	return a.store.GetSessionByTokenHash(ctx, internalauth.HashSessionToken(token), now)
}

// SignOut revokes a session token. Unknown tokens are ignored.
func (a *AuthService) SignOut(ctx context.Context, token string, now time.Time) error {
	if a == nil || a.store == nil {
		return nil
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return a.store.RevokeSessionByTokenHash(ctx, internalauth.HashSessionToken(token), now)
}

// ProvisionUser validates credentials and creates a user.
func (a *AuthService) ProvisionUser(ctx context.Context, username, password, role string, now time.Time) (*store.AuthUser, error) {
	if a == nil || a.store == nil {
		return nil, fmt.Errorf("auth store is required")
	}
	normalized, err := internalauth.NormalizeUsername(username)
	if err != nil {
		return nil, badRequestCode(err, ErrCodeInvalidArgument)
	}
	switch role {
	case "":
		role = store.RoleUser
	case store.RoleUser, store.RoleAdmin:
	default:
		return nil, badRequestCode(fmt.Errorf("invalid role %q", role), ErrCodeInvalidArgument)
	}
	hash, err := internalauth.HashPassword(password)
	if err != nil {
		return nil, badRequestCode(err, ErrCodeInvalidArgument)
	}
	user, err := a.store.CreateUser(ctx, normalized, hash, role, now)
	if err != nil {
		if isUniqueConstraint(err) {
			return nil, makeAPIError(http.StatusConflict, "conflict", ErrCodeConflict, fmt.Errorf("username %q already exists", normalized))
		}
		return nil, storeFailure(err)
	}
	return user, nil
}

// ListUsers returns all provisioned users.
func (a *AuthService) ListUsers(ctx context.Context) ([]store.AuthUser, error) {
	if a == nil || a.store == nil {
		return nil, fmt.Errorf("auth store is required")
	}
	return a.store.ListUsers(ctx)
}

// PruneSessions removes expired and revoked sessions.
func (a *AuthService) PruneSessions(ctx context.Context, now time.Time) (int64, error) {
	if a == nil || a.store == nil {
		return 0, nil
	}
	return a.store.PruneSessions(ctx, now)
}
