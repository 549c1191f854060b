package notes

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"notesdrive/internal/models"
)

func TestResolvedNoteJSONOmitsImageFieldsWithoutImage(t *testing.T) {
	plain := ResolvedNote{Note: models.Note{ID: "n1", Name: "a", Description: "b"}}
	data, err := json.Marshal(plain)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, field := range []string{"imageUrl", "imageExpiresAt", "0001-01-01"} {
		if strings.Contains(string(data), field) {
			t.Fatalf("expected %s to be omitted, got %s", field, data)
		}
	}

	expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	withImage := ResolvedNote{
		Note:           models.Note{ID: "n2", Image: "media/1-a.png"},
		ImageURL:       "/storage/media/1-a.png?expires=1&signature=x",
		ImageExpiresAt: expires,
	}
	data, err = json.Marshal(withImage)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"imageExpiresAt":"2026-01-02T03:04:05Z"`) {
		t.Fatalf("expected expiry in output, got %s", data)
	}
}
