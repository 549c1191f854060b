package notes

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"notesdrive/internal/models"
)

// NoteAPI is the platform's query and mutation surface for notes.
type NoteAPI interface {
	ListNotes(ctx context.Context) ([]models.Note, error)
	CreateNote(ctx context.Context, in models.NoteInput) (models.Note, error)
	UpdateNote(ctx context.Context, id string, in models.NoteInput) (models.Note, error)
	DeleteNote(ctx context.Context, id string) error
}

// TemporaryURL is a time-limited read link for one stored blob.
type TemporaryURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Storage is the platform's blob storage surface.
type Storage interface {
	Upload(ctx context.Context, path string, r io.Reader) (string, error)
	GetURL(ctx context.Context, path string) (TemporaryURL, error)
	Remove(ctx context.Context, path string) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source used for upload paths.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Controller mediates between form input, the note API, and blob storage.
type Controller struct {
	api     NoteAPI
	storage Storage
	now     func() time.Time
	logger  *slog.Logger

	draft Draft
	notes []ResolvedNote
}

// NewController creates a controller with an empty draft and no notes loaded.
func NewController(api NoteAPI, storage Storage, opts ...Option) *Controller {
	c := &Controller{
		api:     api,
		storage: storage,
		now:     time.Now,
		logger:  slog.Default().With("component", "notes"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Notes returns the render state from the last successful refresh.
func (c *Controller) Notes() []ResolvedNote {
	out := make([]ResolvedNote, len(c.notes))
	copy(out, c.notes)
	return out
}

// Draft returns the current form state.
func (c *Controller) Draft() Draft {
	return c.draft
}

// SetName updates the draft name.
func (c *Controller) SetName(name string) {
	c.draft.Name = name
}

// SetDescription updates the draft description.
func (c *Controller) SetDescription(description string) {
	c.draft.Description = description
}

// AttachFile sets the file uploaded by the next save. A nil file detaches.
func (c *Controller) AttachFile(file *File) {
	c.draft.File = file
}

// Edit loads a note's text into the draft and targets it for update.
// The stored image is not loaded; saving without a new file keeps it.
func (c *Controller) Edit(note models.Note) {
	target := note
	c.draft = Draft{
		Name:        note.Name,
		Description: note.Description,
		Editing:     &target,
	}
}

// CancelEdit resets the draft to an empty create form.
func (c *Controller) CancelEdit() {
	c.draft = Draft{}
}

// Lookup finds a note in the current render state by id.
func (c *Controller) Lookup(id string) (models.Note, bool) {
	for _, n := range c.notes {
		if n.ID == id {
			return n.Note, true
		}
	}
	return models.Note{}, false
}

// Refresh lists all notes and resolves a temporary URL for each image.
// Any failure leaves the previous render state untouched.
func (c *Controller) Refresh(ctx context.Context) error {
	items, err := c.api.ListNotes(ctx)
	if err != nil {
		return wrapErr("list", KindAPI, err)
	}

	resolved := make([]ResolvedNote, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		resolved[i] = ResolvedNote{Note: item}
		if !item.HasImage() {
			continue
		}
		g.Go(func() error {
			u, err := c.storage.GetURL(gctx, item.Image)
			if err != nil {
				return err
			}
			resolved[i].ImageURL = u.URL
			resolved[i].ImageExpiresAt = u.ExpiresAt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return wrapErr("list", KindStorage, err)
	}

	c.notes = resolved
	c.logger.Debug("notes refreshed", "count", len(resolved))
	return nil
}

// Save creates or updates a note from the draft, then refreshes the list.
// A draft with an empty name or description is ignored without any request.
func (c *Controller) Save(ctx context.Context) error {
	d := c.draft
	if !d.complete() {
		c.logger.Debug("ignoring incomplete draft")
		return nil
	}

	var image *string
	if d.Editing != nil {
		image = models.StringPtr(d.Editing.Image)
	}
	if d.File != nil {
		key := UploadPath(c.now(), d.File.Name)
		stored, err := c.storage.Upload(ctx, key, d.File.Body)
		if err != nil {
			return wrapErr("upload", KindStorage, err)
		}
		image = &stored
	}

	in := models.NoteInput{Name: d.Name, Description: d.Description, Image: image}
	if d.Editing != nil {
		note, err := c.api.UpdateNote(ctx, d.Editing.ID, in)
		if err != nil {
			return wrapErr("update", KindAPI, err)
		}
		c.logger.Info("note updated", "id", note.ID)
	} else {
		note, err := c.api.CreateNote(ctx, in)
		if err != nil {
			return wrapErr("create", KindAPI, err)
		}
		c.logger.Info("note created", "id", note.ID)
	}

	c.draft = Draft{}
	return c.Refresh(ctx)
}

// Delete removes the note's blob, then the note record, then refreshes.
// There is no rollback when the second step fails.
func (c *Controller) Delete(ctx context.Context, note models.Note) error {
	if note.HasImage() {
		if err := c.storage.Remove(ctx, note.Image); err != nil {
			return wrapErr("remove", KindStorage, err)
		}
	}
	if err := c.api.DeleteNote(ctx, note.ID); err != nil {
		return wrapErr("delete", KindAPI, err)
	}
	c.logger.Info("note deleted", "id", note.ID)

	if c.draft.Editing != nil && c.draft.Editing.ID == note.ID {
		c.draft.Editing = nil
	}
	return c.Refresh(ctx)
}
