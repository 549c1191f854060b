package store

import (
	"context"
	"time"

	"notesdrive/internal/models"
)

// NoteStore abstracts owner-scoped note persistence.
type NoteStore interface {
	CreateNote(ctx context.Context, note *models.Note) error
	GetNote(ctx context.Context, owner, id string) (*models.Note, error)
	ListNotes(ctx context.Context, owner string) ([]models.Note, error)
	UpdateNote(ctx context.Context, owner, id string, in models.NoteInput, now time.Time) (*models.Note, error)
	DeleteNote(ctx context.Context, owner, id string) (*models.Note, error)
	ImageInUseByOthers(ctx context.Context, owner, key string) (bool, error)
}

// AuthStore abstracts user and session persistence.
type AuthStore interface {
	CountEnabledUsers(ctx context.Context) (int, error)
	CreateUser(ctx context.Context, username, passwordHash, role string, now time.Time) (*AuthUser, error)
	GetUserByUsername(ctx context.Context, username string) (*AuthUser, error)
	ListUsers(ctx context.Context) ([]AuthUser, error)
	SetUserDisabled(ctx context.Context, username string, disabled bool, now time.Time) (*AuthUser, error)
	DeleteUser(ctx context.Context, username string) (bool, error)
	CreateSession(ctx context.Context, userID, tokenHash string, expiresAt, createdAt time.Time) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*AuthSession, error)
	RevokeSessionByTokenHash(ctx context.Context, tokenHash string, revokedAt time.Time) error
	PruneSessions(ctx context.Context, now time.Time) (int64, error)
}

var (
	_ NoteStore = (*Store)(nil)
	_ AuthStore = (*Store)(nil)
)
