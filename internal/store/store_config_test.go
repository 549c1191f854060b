package store

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestPoolSettingsFromEnv(t *testing.T) {
	cases := []struct {
		value    string
		wantInt  int
		wantTime time.Duration
	}{
		{value: "", wantInt: 1, wantTime: defaultConnMaxLifetime},
		{value: "4", wantInt: 4, wantTime: 4 * time.Second},
		{value: "90s", wantInt: 1, wantTime: 90 * time.Second},
		{value: "0", wantInt: 1, wantTime: defaultConnMaxLifetime},
		{value: "-2", wantInt: 1, wantTime: defaultConnMaxLifetime},
		{value: " 3 ", wantInt: 3, wantTime: 3 * time.Second},
		{value: "soon", wantInt: 1, wantTime: defaultConnMaxLifetime},
	}
	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv(maxOpenConnsEnvKey, tc.value)
			t.Setenv(connMaxLifetimeEnvKey, tc.value)
			if got := intFromEnv(maxOpenConnsEnvKey, defaultMaxOpenConns); got != tc.wantInt {
				t.Fatalf("max open conns: expected %d, got %d", tc.wantInt, got)
			}
			if got := durationFromEnv(connMaxLifetimeEnvKey, defaultConnMaxLifetime); got != tc.wantTime {
				t.Fatalf("conn lifetime: expected %v, got %v", tc.wantTime, got)
			}
		})
	}
}

func TestOpenConfiguresNotesDatabase(t *testing.T) {
	t.Setenv(maxOpenConnsEnvKey, "2")
	st, err := Open(filepath.Join(t.TempDir(), "notes.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	if got := st.db.Stats().MaxOpenConnections; got != 2 {
		t.Fatalf("expected 2 open connections allowed, got %d", got)
	}

	var journal string
	if err := st.db.QueryRow("PRAGMA journal_mode").Scan(&journal); err != nil {
		t.Fatalf("journal mode: %v", err)
	}
	if !strings.EqualFold(journal, "wal") {
		t.Fatalf("expected WAL journal, got %q", journal)
	}

	status, err := st.MigrationStatus()
	if err != nil {
		t.Fatalf("migration status: %v", err)
	}
	if status.CurrentVersion != status.AvailableVersion || len(status.Pending) != 0 {
		t.Fatalf("expected notes schema fully applied, got %+v", status)
	}

	var indexes int
	if err := st.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND tbl_name = 'notes'
		AND name IN ('idx_notes_owner_created', 'idx_notes_image')`).Scan(&indexes); err != nil {
		t.Fatalf("count note indexes: %v", err)
	}
	if indexes != 2 {
		t.Fatalf("expected both note indexes, got %d", indexes)
	}
}

func TestNotesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")
	at := time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)

	st, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	note := newTestNote("alice", "kept", "media/1-kept.png", at)
	if err := st.CreateNote(t.Context(), note); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()

	got, err := st.GetNote(t.Context(), "alice", note.ID)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got.Name != "kept" || got.Image != "media/1-kept.png" || !got.CreatedAt.Equal(at) {
		t.Fatalf("unexpected note after reopen %+v", got)
	}
	taken, err := st.ImageInUseByOthers(t.Context(), "bob", "media/1-kept.png")
	if err != nil {
		t.Fatalf("image in use: %v", err)
	}
	if !taken {
		t.Fatal("expected alice's image to be reported in use for bob")
	}
}

func TestDBTimeOrdersAsText(t *testing.T) {
	early := time.Date(2024, 1, 1, 0, 0, 0, 5, time.UTC)
	late := early.Add(time.Second)
	if dbFormatTime(early) >= dbFormatTime(late) {
		t.Fatalf("expected %q < %q", dbFormatTime(early), dbFormatTime(late))
	}

	local := time.FixedZone("x", 2*3600)
	parsed, err := dbParseTime(dbFormatTime(early.In(local)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(early) || parsed.Location() != time.UTC {
		t.Fatalf("expected %v in UTC, got %v", early, parsed)
	}

	if _, err := dbParseTime("yesterday"); err == nil {
		t.Fatal("expected parse error")
	}
}
