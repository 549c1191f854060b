package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"notesdrive/internal/config"
)

var errNotSignedIn = errors.New("not signed in")

// cachedSession is the CLI's persisted bearer token.
type cachedSession struct {
	APIURL    string    `json:"api_url"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s cachedSession) usable(apiURL string, now time.Time) bool {
	if strings.TrimSpace(s.Token) == "" {
		return false
	}
	if s.APIURL != "" && strings.TrimRight(s.APIURL, "/") != strings.TrimRight(apiURL, "/") {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

func loadSession(path string) (cachedSession, error) {
	var s cachedSession
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, errNotSignedIn
	}
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("read session %s: %w", path, err)
	}
	return s, nil
}

func saveSession(path string, s cachedSession) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func clearSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// activeToken returns the cached token for cfg.APIURL, or errNotSignedIn.
func activeToken(cfg *config.Config, now time.Time) (cachedSession, error) {
	path, err := config.SessionPath()
	if err != nil {
		return cachedSession{}, err
	}
	s, err := loadSession(path)
	if err != nil {
		return s, err
	}
	if !s.usable(cfg.APIURL, now) {
		return s, errNotSignedIn
	}
	return s, nil
}
