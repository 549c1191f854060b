package models

import "time"

// Note is one persisted note record as reported by the platform.
type Note struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Image       string    `json:"image,omitempty" yaml:"image,omitempty"`
	Owner       string    `json:"owner,omitempty" yaml:"owner,omitempty"`
	CreatedAt   time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"updated_at"`
}

// HasImage reports whether the note references a stored blob.
func (n Note) HasImage() bool {
	return n.Image != ""
}

// NoteInput carries the full record written by create and update mutations.
// A nil Image is sent as null.
type NoteInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

// ImageKey returns the input image key or "" when unset.
func (in NoteInput) ImageKey() string {
	if in.Image == nil {
		return ""
	}
	return *in.Image
}

// StringPtr returns a pointer to value, or nil for an empty value.
func StringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
