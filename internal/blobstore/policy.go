package blobstore

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns grants signed-in users access to the media namespace only.
var DefaultPatterns = []string{"media/*"}

// Policy restricts which keys the storage endpoints accept.
type Policy struct {
	patterns []string
}

// NewPolicy compiles doublestar patterns. An empty list selects DefaultPatterns.
func NewPolicy(patterns []string) (*Policy, error) {
	cleaned := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid storage pattern %q", p)
		}
		cleaned = append(cleaned, p)
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultPatterns...)
	}
	return &Policy{patterns: cleaned}, nil
}

// Patterns returns the configured patterns.
func (p *Policy) Patterns() []string {
	out := make([]string, len(p.patterns))
	copy(out, p.patterns)
	return out
}

// Allows reports whether key is a valid key matching at least one pattern.
func (p *Policy) Allows(key string) bool {
	if ValidateKey(key) != nil {
		return false
	}
	for _, pattern := range p.patterns {
		if ok, _ := doublestar.Match(pattern, key); ok {
			return true
		}
	}
	return false
}
