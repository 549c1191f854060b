package api

import (
	"encoding/json"
	"time"

	"notesdrive/internal/models"
)

// ErrorResponse is a generic JSON error wrapper.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// SignInRequest carries credentials for POST /auth/sign-in.
type SignInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse is returned by a successful sign-in.
type SessionResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MeResponse describes the signed-in principal.
type MeResponse struct {
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// GraphQLRequest is the POST /graphql envelope.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// GraphQLResponse is the POST /graphql reply envelope.
type GraphQLResponse struct {
	Data   json.RawMessage    `json:"data,omitempty"`
	Errors []GraphQLErrorItem `json:"errors,omitempty"`
}

// GraphQLErrorItem is one entry of a GraphQL errors array.
type GraphQLErrorItem struct {
	Message    string         `json:"message"`
	Path       []string       `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// NoteConnection is the list shape returned by listNotes.
type NoteConnection struct {
	Items []models.Note `json:"items"`
}

// UpdateNoteInput is the updateNote mutation input.
type UpdateNoteInput struct {
	ID string `json:"id"`
	models.NoteInput
}

// DeleteNoteInput is the deleteNote mutation input.
type DeleteNoteInput struct {
	ID string `json:"id"`
}

// UploadResponse is returned by PUT /storage/{path}.
type UploadResponse struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// StorageURLRequest asks for a temporary read URL.
type StorageURLRequest struct {
	Path string `json:"path"`
}

// StorageURLResponse carries a signed read URL. URL may be relative to the platform base.
type StorageURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
