package auth

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	// bcrypt ignores input beyond 72 bytes.
	maxPasswordLength = 72
	maxUsernameLength = 64
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9._@-]*[a-z0-9])?$`)

// dummyHash is compared against when a user does not exist so sign-in
// timing does not reveal which usernames are provisioned.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("notesdrive-dummy-password"), bcrypt.DefaultCost)

// NormalizeUsername returns canonical lowercase username and validates allowed characters.
// Email-style usernames are accepted.
func NormalizeUsername(raw string) (string, error) {
	username := strings.TrimSpace(strings.ToLower(raw))
	if username == "" {
		return "", fmt.Errorf("username is required")
	}
	if len(username) > maxUsernameLength {
		return "", fmt.Errorf("username must be at most %d characters", maxUsernameLength)
	}
	if !usernamePattern.MatchString(username) {
		return "", fmt.Errorf("invalid username %q", username)
	}
	return username, nil
}

// ValidatePassword checks length bounds.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordLength {
		return fmt.Errorf("password must be at most %d bytes", maxPasswordLength)
	}
	return nil
}

// HashPassword hashes one plaintext password for persistent storage.
func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword verifies plaintext password against a bcrypt hash.
// An empty hash is checked against a dummy hash and always fails.
func VerifyPassword(passwordHash, candidate string) bool {
	if strings.TrimSpace(passwordHash) == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(candidate))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(candidate)) == nil
}
