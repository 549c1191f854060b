package notes

import (
	"io"
	"time"

	"notesdrive/internal/models"
)

// File is a pending upload attached to the draft.
type File struct {
	Name string
	Body io.Reader
}

// Draft is the transient form state that exists until the next successful save.
type Draft struct {
	Name        string
	Description string
	File        *File
	Editing     *models.Note
}

// IsEditing reports whether a save will update an existing note.
func (d Draft) IsEditing() bool {
	return d.Editing != nil
}

// complete is the presence check applied before any request is issued.
func (d Draft) complete() bool {
	return d.Name != "" && d.Description != ""
}

// ResolvedNote is a note plus the temporary URL of its image, if any.
type ResolvedNote struct {
	models.Note
	ImageURL       string    `json:"imageUrl,omitempty" yaml:"image_url,omitempty"`
	ImageExpiresAt time.Time `json:"imageExpiresAt,omitzero" yaml:"image_expires_at,omitempty"`
}
