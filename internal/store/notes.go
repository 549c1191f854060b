package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"notesdrive/internal/models"
)

const noteColumns = "id, owner, name, description, image, created_at, updated_at"

// CreateNote inserts a note. ID, Owner and timestamps must be set by the caller.
func (s *Store) CreateNote(ctx context.Context, note *models.Note) error {
	if note == nil {
		return fmt.Errorf("note is required")
	}
	if strings.TrimSpace(note.ID) == "" || strings.TrimSpace(note.Owner) == "" {
		return fmt.Errorf("note id and owner are required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, note.ID, note.Owner, note.Name, note.Description, nullString(note.Image),
		dbFormatTime(note.CreatedAt), dbFormatTime(note.UpdatedAt))
	return err
}

// GetNote returns one note owned by owner, or nil when absent.
func (s *Store) GetNote(ctx context.Context, owner, id string) (*models.Note, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE owner = ? AND id = ?
		LIMIT 1
	`, owner, id)
	return scanNote(row)
}

// ListNotes returns all notes owned by owner, oldest first.
func (s *Store) ListNotes(ctx context.Context, owner string) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE owner = ?
		ORDER BY created_at ASC, id ASC
	`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]models.Note, 0)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		if note != nil {
			notes = append(notes, *note)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notes, nil
}

// UpdateNote replaces name, description and image of one owned note.
// It returns nil when no such note exists.
func (s *Store) UpdateNote(ctx context.Context, owner, id string, in models.NoteInput, now time.Time) (*models.Note, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notes
		SET name = ?, description = ?, image = ?, updated_at = ?
		WHERE owner = ? AND id = ?
	`, in.Name, in.Description, nullString(in.ImageKey()), dbFormatTime(now), owner, id)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetNote(ctx, owner, id)
}

// DeleteNote removes one owned note and returns it, or nil when absent.
func (s *Store) DeleteNote(ctx context.Context, owner, id string) (*models.Note, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	note, err := scanNote(tx.QueryRowContext(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE owner = ? AND id = ?
		LIMIT 1
	`, owner, id))
	if err != nil || note == nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM notes WHERE owner = ? AND id = ?", owner, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return note, nil
}

// ImageInUseByOthers reports whether a note not owned by owner references the storage key.
func (s *Store) ImageInUseByOthers(ctx context.Context, owner, key string) (bool, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM notes WHERE image = ? AND owner <> ? LIMIT 1", key, owner).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanNote(scanner interface {
	Scan(dest ...any) error
}) (*models.Note, error) {
	var note models.Note
	var image sql.NullString
	var createdAt, updatedAt string
	if err := scanner.Scan(&note.ID, &note.Owner, &note.Name, &note.Description, &image, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	note.Image = image.String
	var err error
	if note.CreatedAt, err = dbParseTime(createdAt); err != nil {
		return nil, err
	}
	if note.UpdatedAt, err = dbParseTime(updatedAt); err != nil {
		return nil, err
	}
	return &note, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
