package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"notesdrive/internal/api"
	"notesdrive/internal/models"
)

type graphQLOperation string

const (
	gqlListNotes  graphQLOperation = "listNotes"
	gqlCreateNote graphQLOperation = "createNote"
	gqlUpdateNote graphQLOperation = "updateNote"
	gqlDeleteNote graphQLOperation = "deleteNote"
)

var (
	graphQLOperations = []graphQLOperation{gqlListNotes, gqlCreateNote, gqlUpdateNote, gqlDeleteNote}
	rootFieldPattern  = regexp.MustCompile(`\{\s*(listNotes|createNote|updateNote|deleteNote)\b`)
)

// graphQLNoteInput accepts the create/update/delete input object.
type graphQLNoteInput struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
}

func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var req api.GraphQLRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	op, err := resolveGraphQLOperation(req)
	if err != nil {
		s.writeGraphQLError(w, r, "", err)
		return
	}

	principal, _ := authPrincipalFromContext(r.Context())
	owner := principal.Username

	var data any
	switch op {
	case gqlListNotes:
		notes, err := s.noteService.List(r.Context(), owner)
		if err != nil {
			s.writeGraphQLError(w, r, op, err)
			return
		}
		data = map[string]any{string(op): api.NoteConnection{Items: notes}}
	case gqlCreateNote, gqlUpdateNote, gqlDeleteNote:
		input, err := decodeGraphQLInput(req.Variables)
		if err != nil {
			s.writeGraphQLError(w, r, op, err)
			return
		}
		in := models.NoteInput{Name: input.Name, Description: input.Description, Image: input.Image}
		var note models.Note
		switch op {
		case gqlCreateNote:
			note, err = s.noteService.Create(r.Context(), owner, in)
		case gqlUpdateNote:
			note, err = s.noteService.Update(r.Context(), owner, input.ID, in)
		default:
			note, err = s.noteService.Delete(r.Context(), owner, input.ID)
		}
		if err != nil {
			s.writeGraphQLError(w, r, op, err)
			return
		}
		s.log().Debug("note mutation", "operation", op, "id", note.ID, "owner", owner)
		data = map[string]any{string(op): note}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		s.writeErrorReq(w, r, http.StatusInternalServerError, internalError(err))
		return
	}
	s.writeJSON(w, http.StatusOK, api.GraphQLResponse{Data: raw})
}

// resolveGraphQLOperation picks the root field from operationName, falling
// back to the first root field selected in the document.
func resolveGraphQLOperation(req api.GraphQLRequest) (graphQLOperation, error) {
	if name := strings.TrimSpace(req.OperationName); name != "" {
		for _, op := range graphQLOperations {
			if strings.EqualFold(name, string(op)) {
				return op, nil
			}
		}
		return "", badRequestCode(fmt.Errorf("unknown operation %q", name), ErrCodeInvalidOperation)
	}
	if match := rootFieldPattern.FindStringSubmatch(req.Query); match != nil {
		return graphQLOperation(match[1]), nil
	}
	if strings.TrimSpace(req.Query) == "" {
		return "", badRequestCode(fmt.Errorf("query is required"), ErrCodeMissingRequired)
	}
	return "", badRequestCode(fmt.Errorf("query selects no supported field"), ErrCodeInvalidOperation)
}

func decodeGraphQLInput(vars map[string]any) (graphQLNoteInput, error) {
	var input graphQLNoteInput
	rawInput, ok := vars["input"]
	if !ok || rawInput == nil {
		return input, badRequestCode(fmt.Errorf("variable $input is required"), ErrCodeMissingRequired)
	}
	payload, err := json.Marshal(rawInput)
	if err != nil {
		return input, badRequestCode(err, ErrCodeInvalidJSON)
	}
	if err := json.Unmarshal(payload, &input); err != nil {
		return input, badRequestCode(fmt.Errorf("invalid $input: %w", err), ErrCodeInvalidJSON)
	}
	return input, nil
}

// writeGraphQLError reports a resolver failure in the errors array with HTTP 200.
// Internal failures are logged and masked.
func (s *Server) writeGraphQLError(w http.ResponseWriter, r *http.Request, op graphQLOperation, err error) {
	status := httpStatusFromError(err)
	message := err.Error()
	fields := []any{"operation", op, "status", status, "error", err, "path", r.URL.Path}
	if status >= 500 {
		s.log().Error("graphql resolver error", fields...)
		message = "internal error"
	} else {
		s.log().Debug("graphql request rejected", fields...)
	}

	item := api.GraphQLErrorItem{
		Message: message,
		Extensions: map[string]any{
			"code":       graphQLErrorCode(status),
			"error_code": errorNumericCode(status, err),
		},
	}
	if op != "" {
		item.Path = []string{string(op)}
	}
	s.writeJSON(w, http.StatusOK, api.GraphQLResponse{Errors: []api.GraphQLErrorItem{item}})
}

func graphQLErrorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_USER_INPUT"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	default:
		return "INTERNAL_SERVER_ERROR"
	}
}
