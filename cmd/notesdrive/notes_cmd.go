package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"notesdrive/internal/config"
	"notesdrive/internal/notes"
)

func newListCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your notes with temporary image links",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd.Context(), cfg, func(ctrl *notes.Controller) error {
				return writeNoteList(ctrl.Notes())
			})
		},
	}
}

func newAddCmd(cfg *config.Config) *cobra.Command {
	var name, description, image string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a note, optionally uploading an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || description == "" {
				return fmt.Errorf("--name and --description are required")
			}
			return withController(cmd.Context(), cfg, func(ctrl *notes.Controller) error {
				ctrl.SetName(name)
				ctrl.SetDescription(description)
				return saveWithImage(cmd, ctrl, image)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "note name")
	cmd.Flags().StringVar(&description, "description", "", "note description")
	cmd.Flags().StringVar(&image, "image", "", "path of an image file to upload")
	return cmd
}

func newEditCmd(cfg *config.Config) *cobra.Command {
	var name, description, image string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update a note, keeping fields that are not given",
		Args:  requireOneArg("note id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd.Context(), cfg, func(ctrl *notes.Controller) error {
				note, ok := ctrl.Lookup(args[0])
				if !ok {
					return fmt.Errorf("note %s not found", args[0])
				}
				ctrl.Edit(note)
				if cmd.Flags().Changed("name") {
					ctrl.SetName(name)
				}
				if cmd.Flags().Changed("description") {
					ctrl.SetDescription(description)
				}
				return saveWithImage(cmd, ctrl, image)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new note name")
	cmd.Flags().StringVar(&description, "description", "", "new note description")
	cmd.Flags().StringVar(&image, "image", "", "path of a replacement image file")
	return cmd
}

func newRmCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a note and its image",
		Args:    requireOneArg("note id"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withController(cmd.Context(), cfg, func(ctrl *notes.Controller) error {
				note, ok := ctrl.Lookup(args[0])
				if !ok {
					return fmt.Errorf("note %s not found", args[0])
				}
				if err := ctrl.Delete(cmd.Context(), note); err != nil {
					return err
				}
				if structuredOutput() {
					return writeOutput(map[string]any{"id": note.ID, "deleted": true})
				}
				return writePlain("deleted note %s\n", note.ID)
			})
		},
	}
}

// saveWithImage attaches the file at path, when given, and saves the draft.
func saveWithImage(cmd *cobra.Command, ctrl *notes.Controller, path string) error {
	draft := ctrl.Draft()
	if draft.Name == "" || draft.Description == "" {
		return fmt.Errorf("name and description must not be empty")
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		ctrl.AttachFile(&notes.File{Name: filepath.Base(path), Body: f})
	}

	if err := ctrl.Save(cmd.Context()); err != nil {
		return err
	}
	if structuredOutput() {
		return writeOutput(map[string]any{"count": len(ctrl.Notes()), "notes": ctrl.Notes()})
	}
	if draft.IsEditing() {
		return writePlain("updated note %s\n", draft.Editing.ID)
	}
	return writePlain("created note %q\n", draft.Name)
}
