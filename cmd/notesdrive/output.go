package main

import (
	"fmt"
	"os"
	"time"

	"notesdrive/internal/format"
	"notesdrive/internal/notes"
	"notesdrive/internal/store"
)

// outputFormatter is nil for plain text output.
var outputFormatter format.Formatter

func structuredOutput() bool {
	return outputFormatter != nil
}

func writeOutput(payload any) error {
	return outputFormatter.Write(os.Stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(os.Stdout, format, args...)
	return err
}

func writeNoteList(list []notes.ResolvedNote) error {
	if structuredOutput() {
		return writeOutput(map[string]any{"count": len(list), "notes": list})
	}
	if len(list) == 0 {
		return writePlain("no notes\n")
	}
	for _, note := range list {
		if err := writePlain("%s\n", formatNoteLine(note)); err != nil {
			return err
		}
	}
	return nil
}

func formatNoteLine(note notes.ResolvedNote) string {
	line := fmt.Sprintf("%s  %s - %s", note.ID, note.Name, note.Description)
	if note.ImageURL != "" {
		line += "\n    image: " + note.ImageURL
	} else if note.HasImage() {
		line += "\n    image: " + note.Image + " (unavailable)"
	}
	return line
}

func writeUserList(users []store.AuthUser) error {
	if structuredOutput() {
		return writeOutput(map[string]any{"count": len(users), "users": users})
	}
	if len(users) == 0 {
		return writePlain("no users configured\n")
	}
	if err := writePlain("USERNAME\tROLE\tSTATUS\tID\n"); err != nil {
		return err
	}
	for _, user := range users {
		status := "enabled"
		if user.Disabled {
			status = "disabled"
		}
		if err := writePlain("%s\t%s\t%s\t%s\n", user.Username, user.Role, status, user.ID); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
