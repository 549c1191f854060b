package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRunRejectsBadPositionalArgs(t *testing.T) {
	t.Setenv("NOTESDRIVE_CONFIG_DIR", t.TempDir())
	t.Setenv(logLevelEnvKey, "error")

	cases := []struct {
		args []string
		want string
	}{
		{args: []string{"rm"}, want: "note id is required"},
		{args: []string{"edit", "n1", "n2"}, want: "expected one note id, got 2"},
		{args: []string{"signin", " "}, want: "username must not be blank"},
		{args: []string{"user", "disable"}, want: "username is required"},
	}
	for _, tc := range cases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			var stderr bytes.Buffer
			if code := run(tc.args, &stderr); code != 1 {
				t.Fatalf("expected exit 1, got %d (%s)", code, stderr.String())
			}
			if !strings.Contains(stderr.String(), tc.want) {
				t.Fatalf("expected %q on stderr, got %q", tc.want, stderr.String())
			}
		})
	}
}

func TestRunConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NOTESDRIVE_CONFIG_DIR", dir)
	t.Setenv(logLevelEnvKey, "error")

	var stderr bytes.Buffer
	if code := run([]string{"config", "path"}, &stderr); code != 0 {
		t.Fatalf("expected exit 0, got %d (%s)", code, stderr.String())
	}
}
