package main

import (
	"context"
	"errors"
	"net"

	"notesdrive/internal/api"
	"notesdrive/internal/notes"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	if errors.Is(err, errNotSignedIn) {
		lines = append(lines, "hint: sign in first with: notesdrive signin <username>")
		return uniqueLines(lines)
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "unauthorized":
			lines = append(lines, "hint: your session may have expired; run: notesdrive signin <username>")
		case "forbidden":
			lines = append(lines, "hint: storage paths must match storage.allowed_patterns and belong to you.")
		case "resource_exhausted":
			lines = append(lines, "hint: too many attempts; retry shortly.")
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify NOTESDRIVE_API_URL points to a notes platform.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: platform returned an internal error; check platform logs for details.")
		}
		return uniqueLines(lines)
	}

	var gqlErr *api.GraphQLError
	if errors.As(err, &gqlErr) && gqlErr.Code() == "NOT_FOUND" {
		lines = append(lines, "hint: the note may have been deleted; run: notesdrive list")
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check platform health or increase NOTESDRIVE_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a notes platform is running at NOTESDRIVE_API_URL.",
			"hint: start a local platform manually with: notesdrive platform",
			"hint: you can increase NOTESDRIVE_HTTP_TIMEOUT for slower environments.",
		)
		return uniqueLines(lines)
	}

	if notes.KindOf(err) == notes.KindStorage {
		lines = append(lines, "hint: check storage.root permissions and storage.max_upload_bytes.")
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
