package blobstore

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultURLTTL is the lifetime of a signed read URL.
const DefaultURLTTL = 15 * time.Minute

var (
	ErrURLExpired       = errors.New("signed url expired")
	ErrInvalidSignature = errors.New("invalid url signature")
)

// SignedURL is a time-limited read link relative to the platform root.
type SignedURL struct {
	Path      string
	ExpiresAt time.Time
}

// Signer issues and verifies HMAC-SHA256 signed read URLs.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner creates a signer. ttl <= 0 selects DefaultURLTTL.
func NewSigner(secret []byte, ttl time.Duration) (*Signer, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("signing secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}
	return &Signer{secret: append([]byte(nil), secret...), ttl: ttl, now: time.Now}, nil
}

// TTL returns the lifetime of issued URLs.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Sign returns a signed GET link for key.
func (s *Signer) Sign(key string) SignedURL {
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	expires := strconv.FormatInt(expiresAt.Unix(), 10)

	q := url.Values{}
	q.Set("expires", expires)
	q.Set("signature", s.mac(key, expires))
	return SignedURL{
		Path:      EscapeKeyPath(key) + "?" + q.Encode(),
		ExpiresAt: expiresAt,
	}
}

// Verify checks a signature and expiry produced by Sign.
func (s *Signer) Verify(key, expires, signature string) error {
	unix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	want := s.mac(key, expires)
	if !hmac.Equal([]byte(want), []byte(strings.ToLower(signature))) {
		return ErrInvalidSignature
	}
	if !s.now().Before(time.Unix(unix, 0)) {
		return ErrURLExpired
	}
	return nil
}

func (s *Signer) mac(key, expires string) string {
	m := hmac.New(sha256.New, s.secret)
	m.Write([]byte("GET\n" + key + "\n" + expires))
	return hex.EncodeToString(m.Sum(nil))
}

// EscapeKeyPath returns the /storage/ URL path for key with each segment escaped.
func EscapeKeyPath(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "/storage/" + strings.Join(segments, "/")
}
