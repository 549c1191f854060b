package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	"notesdrive/internal/blobstore"
	"notesdrive/internal/models"
	"notesdrive/internal/store"
)

// NoteService applies owner scoping and record validation to note mutations.
type NoteService struct {
	store  store.NoteStore
	policy *blobstore.Policy
	now    func() time.Time
}

// NewNoteService creates a note service.
func NewNoteService(noteStore store.NoteStore, policy *blobstore.Policy) *NoteService {
	return &NoteService{store: noteStore, policy: policy, now: time.Now}
}

// List returns every note owned by owner.
func (n *NoteService) List(ctx context.Context, owner string) ([]models.Note, error) {
	notes, err := n.store.ListNotes(ctx, owner)
	if err != nil {
		return nil, storeFailure(err)
	}
	return notes, nil
}

// Create validates input and stores a new note with a fresh id.
func (n *NoteService) Create(ctx context.Context, owner string, in models.NoteInput) (models.Note, error) {
	in = normalizeNoteInput(in)
	if err := n.validate(ctx, owner, in); err != nil {
		return models.Note{}, err
	}

	now := n.now().UTC()
	note := models.Note{
		ID:          models.NewNoteID(),
		Owner:       owner,
		Name:        in.Name,
		Description: in.Description,
		Image:       in.ImageKey(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := n.store.CreateNote(ctx, &note); err != nil {
		return models.Note{}, storeFailure(err)
	}
	return note, nil
}

// Update replaces name, description and image of an owned note.
func (n *NoteService) Update(ctx context.Context, owner, rawID string, in models.NoteInput) (models.Note, error) {
	id, err := models.ParseNoteID(rawID)
	if err != nil {
		return models.Note{}, badRequestCode(err, ErrCodeInvalidID)
	}
	in = normalizeNoteInput(in)
	if err := n.validate(ctx, owner, in); err != nil {
		return models.Note{}, err
	}

	note, err := n.store.UpdateNote(ctx, owner, id, in, n.now().UTC())
	if err != nil {
		return models.Note{}, storeFailure(err)
	}
	if note == nil {
		return models.Note{}, notFoundCode(fmt.Errorf("note not found"), ErrCodeNoteNotFound)
	}
	return *note, nil
}

// Delete removes an owned note and returns it. The image blob is left alone.
func (n *NoteService) Delete(ctx context.Context, owner, rawID string) (models.Note, error) {
	id, err := models.ParseNoteID(rawID)
	if err != nil {
		return models.Note{}, badRequestCode(err, ErrCodeInvalidID)
	}
	note, err := n.store.DeleteNote(ctx, owner, id)
	if err != nil {
		return models.Note{}, storeFailure(err)
	}
	if note == nil {
		return models.Note{}, notFoundCode(fmt.Errorf("note not found"), ErrCodeNoteNotFound)
	}
	return *note, nil
}

func (n *NoteService) validate(ctx context.Context, owner string, in models.NoteInput) error {
	if err := models.ValidateNoteInput(in); err != nil {
		if strings.TrimSpace(in.Name) == "" {
			return badRequestCode(err, ErrCodeMissingRequired)
		}
		return badRequestCode(err, ErrCodeInvalidArgument)
	}
	key := in.ImageKey()
	if key == "" {
		return nil
	}
	if n.policy != nil && !n.policy.Allows(key) {
		return badRequestCode(fmt.Errorf("image %q is outside the allowed storage paths", key), ErrCodeInvalidPath)
	}
	taken, err := n.store.ImageInUseByOthers(ctx, owner, key)
	if err != nil {
		return storeFailure(err)
	}
	if taken {
		return forbiddenCode(fmt.Errorf("image %q belongs to another user", key), ErrCodeForbidden)
	}
	return nil
}

func normalizeNoteInput(in models.NoteInput) models.NoteInput {
	in.Name = strings.TrimSpace(in.Name)
	if in.Image != nil && strings.TrimSpace(*in.Image) == "" {
		in.Image = nil
	}
	return in
}
