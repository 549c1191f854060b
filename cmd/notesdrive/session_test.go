package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	want := cachedSession{
		APIURL:    "http://127.0.0.1:7480",
		Username:  "alice",
		Token:     "tok",
		ExpiresAt: time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if err := saveSession(path, want); err != nil {
		t.Fatalf("save session: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat session: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", info.Mode().Perm())
	}

	got, err := loadSession(path)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if got.Token != want.Token || got.Username != want.Username || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Fatalf("unexpected session: %+v", got)
	}

	if err := clearSession(path); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	if err := clearSession(path); err != nil {
		t.Fatalf("clear missing session: %v", err)
	}
	if _, err := loadSession(path); !errors.Is(err, errNotSignedIn) {
		t.Fatalf("expected errNotSignedIn, got %v", err)
	}
}

func TestSessionUsable(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	base := cachedSession{APIURL: "http://127.0.0.1:7480/", Token: "tok", ExpiresAt: now.Add(time.Hour)}

	tests := []struct {
		name   string
		mutate func(*cachedSession)
		apiURL string
		want   bool
	}{
		{name: "active", apiURL: "http://127.0.0.1:7480", want: true},
		{name: "no expiry", mutate: func(s *cachedSession) { s.ExpiresAt = time.Time{} }, apiURL: "http://127.0.0.1:7480", want: true},
		{name: "expired", mutate: func(s *cachedSession) { s.ExpiresAt = now.Add(-time.Second) }, apiURL: "http://127.0.0.1:7480"},
		{name: "blank token", mutate: func(s *cachedSession) { s.Token = " " }, apiURL: "http://127.0.0.1:7480"},
		{name: "other platform", apiURL: "http://127.0.0.1:9999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base
			if tt.mutate != nil {
				tt.mutate(&s)
			}
			if got := s.usable(tt.apiURL, now); got != tt.want {
				t.Fatalf("usable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadPassword(t *testing.T) {
	got, err := readPassword(strings.NewReader("secret-pass\r\n"), true)
	if err != nil || got != "secret-pass" {
		t.Fatalf("expected trimmed password, got %q err=%v", got, err)
	}
	if _, err := readPassword(strings.NewReader("\n"), true); err == nil {
		t.Fatal("expected error for empty password")
	}
}
