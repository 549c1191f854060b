package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	NameMaxLength        = 200
	DescriptionMaxLength = 10000
	ImageKeyMaxLength    = 1024
)

// ParseNoteID validates and canonicalizes a platform-assigned note id.
func ParseNoteID(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("note id is required")
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid note id: %s", value)
	}
	return id.String(), nil
}

// NewNoteID returns a fresh random note id.
func NewNoteID() string {
	return uuid.NewString()
}

// ValidateNoteInput checks the record-level constraints the platform enforces.
func ValidateNoteInput(in NoteInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(in.Name) > NameMaxLength {
		return fmt.Errorf("name must be at most %d bytes", NameMaxLength)
	}
	if len(in.Description) > DescriptionMaxLength {
		return fmt.Errorf("description must be at most %d bytes", DescriptionMaxLength)
	}
	if len(in.ImageKey()) > ImageKeyMaxLength {
		return fmt.Errorf("image must be at most %d bytes", ImageKeyMaxLength)
	}
	return nil
}
