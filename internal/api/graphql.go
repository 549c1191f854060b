package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"notesdrive/internal/models"
)

// Operation names understood by the platform GraphQL endpoint.
const (
	OpListNotes  = "ListNotes"
	OpCreateNote = "CreateNote"
	OpUpdateNote = "UpdateNote"
	OpDeleteNote = "DeleteNote"
)

const noteFields = `id name description image owner createdAt updatedAt`

// GraphQL documents for the note operations.
const (
	ListNotesQuery = `query ListNotes {
  listNotes {
    items { ` + noteFields + ` }
  }
}`

	CreateNoteMutation = `mutation CreateNote($input: CreateNoteInput!) {
  createNote(input: $input) { ` + noteFields + ` }
}`

	UpdateNoteMutation = `mutation UpdateNote($input: UpdateNoteInput!) {
  updateNote(input: $input) { ` + noteFields + ` }
}`

	DeleteNoteMutation = `mutation DeleteNote($input: DeleteNoteInput!) {
  deleteNote(input: $input) { id }
}`
)

// ListNotes returns every note visible to the signed-in user.
func (c *Client) ListNotes(ctx context.Context) ([]models.Note, error) {
	var data struct {
		ListNotes NoteConnection `json:"listNotes"`
	}
	if err := c.graphql(ctx, OpListNotes, ListNotesQuery, nil, &data); err != nil {
		return nil, err
	}
	return data.ListNotes.Items, nil
}

// CreateNote creates a note and returns it with its assigned id.
func (c *Client) CreateNote(ctx context.Context, in models.NoteInput) (models.Note, error) {
	var data struct {
		CreateNote models.Note `json:"createNote"`
	}
	vars := map[string]any{"input": in}
	if err := c.graphql(ctx, OpCreateNote, CreateNoteMutation, vars, &data); err != nil {
		return models.Note{}, err
	}
	return data.CreateNote, nil
}

// UpdateNote replaces a note's name, description and image.
func (c *Client) UpdateNote(ctx context.Context, id string, in models.NoteInput) (models.Note, error) {
	var data struct {
		UpdateNote models.Note `json:"updateNote"`
	}
	vars := map[string]any{"input": UpdateNoteInput{ID: id, NoteInput: in}}
	if err := c.graphql(ctx, OpUpdateNote, UpdateNoteMutation, vars, &data); err != nil {
		return models.Note{}, err
	}
	return data.UpdateNote, nil
}

// DeleteNote removes a note record. The referenced blob is not touched.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	var data struct {
		DeleteNote struct {
			ID string `json:"id"`
		} `json:"deleteNote"`
	}
	vars := map[string]any{"input": DeleteNoteInput{ID: id}}
	return c.graphql(ctx, OpDeleteNote, DeleteNoteMutation, vars, &data)
}

func (c *Client) graphql(ctx context.Context, operation, query string, vars map[string]any, out any) error {
	req := GraphQLRequest{Query: query, OperationName: operation, Variables: vars}
	var resp GraphQLResponse
	if err := c.do(ctx, http.MethodPost, "/graphql", nil, req, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return &GraphQLError{Operation: operation, Errors: resp.Errors}
	}
	if out == nil {
		return nil
	}
	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return fmt.Errorf("graphql %s: empty data", operation)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("graphql %s: decode data: %w", operation, err)
	}
	return nil
}
