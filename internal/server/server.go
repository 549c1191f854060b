package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"notesdrive/internal/blobstore"
	"notesdrive/internal/store"
)

const (
	allowRemoteEnvKey = "NOTESDRIVE_ALLOW_REMOTE"
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 60 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second

	defaultSignInRate  = rate.Limit(1.0 / 12.0)
	defaultSignInBurst = 5
)

// Store is the persistence the platform server needs.
type Store interface {
	store.NoteStore
	store.AuthStore
}

// Options tunes the platform server. Zero values select defaults.
type Options struct {
	Signer         *blobstore.Signer
	Policy         *blobstore.Policy
	SessionTTL     time.Duration
	MaxUploadBytes int64
	SignInRate     rate.Limit
	SignInBurst    int
}

// Server wraps HTTP handlers for the local notes platform.
type Server struct {
	addr           string
	authService    *AuthService
	noteService    *NoteService
	storageService *StorageService
	signInLimiter  *signInLimiter
	logger         *slog.Logger
}

// New creates a new server instance.
func New(addr string, st Store, blobs blobstore.Store, opts Options, logger *slog.Logger) (*Server, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	policy := opts.Policy
	if policy == nil {
		var err error
		if policy, err = blobstore.NewPolicy(nil); err != nil {
			return nil, err
		}
	}
	signer := opts.Signer
	if signer == nil {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate signing secret: %w", err)
		}
		var err error
		if signer, err = blobstore.NewSigner(secret, 0); err != nil {
			return nil, err
		}
		logger.Warn("no signing secret configured; storage urls will not survive a restart")
	}
	limit, burst := opts.SignInRate, opts.SignInBurst
	if limit <= 0 {
		limit = defaultSignInRate
	}
	if burst <= 0 {
		burst = defaultSignInBurst
	}

	return &Server{
		addr:           addr,
		authService:    NewAuthService(st, opts.SessionTTL),
		noteService:    NewNoteService(st, policy),
		storageService: NewStorageService(blobs, st, policy, signer, opts.MaxUploadBytes),
		signInLimiter:  newSignInLimiter(limit, burst),
		logger:         logger,
	}, nil
}

// Handler returns the full HTTP handler including request logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestLogging(s.routes())
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.log().Info("starting server", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ListenAddr converts a base URL into a listen address.
func ListenAddr(baseURL string) (string, error) {
	if baseURL == "" {
		return "", fmt.Errorf("url is required")
	}
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		host := u.Hostname()
		if !isAllowedListenHost(host) {
			return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
		}
		return u.Host, nil
	}

	host, _, err := net.SplitHostPort(baseURL)
	if err == nil && !isAllowedListenHost(host) {
		return "", fmt.Errorf("remote listen host %q requires %s=true", host, allowRemoteEnvKey)
	}

	return baseURL, nil
}

func isAllowedListenHost(host string) bool {
	if host == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(allowRemoteEnvKey)), "true") {
		return true
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Server) log() *slog.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
