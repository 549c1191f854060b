package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"notesdrive/internal/api"
	internalauth "notesdrive/internal/auth"
	"notesdrive/internal/notes"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	sessionCookieName = "notesdrive_session"
	sessionIDKey      = "sid"
	defaultMaxForm    = 10 << 20
	multipartMemory   = 8 << 20
	sessionIdleTTL    = 24 * time.Hour

	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Backend is the platform surface one signed-in browser session drives.
type Backend interface {
	notes.NoteAPI
	notes.Storage
	SignOut(ctx context.Context) error
}

// Connector signs a user in to the platform.
type Connector interface {
	Connect(ctx context.Context, username, password string) (Backend, error)
}

// ClientConnector connects through the platform HTTP API.
type ClientConnector struct {
	BaseURL string
}

// Connect signs in with a fresh client so sessions never share a token.
func (c ClientConnector) Connect(ctx context.Context, username, password string) (Backend, error) {
	client := api.NewClient(c.BaseURL)
	client.SetToken("")
	if _, err := client.SignIn(ctx, username, password); err != nil {
		return nil, err
	}
	return client, nil
}

// session is one browser's controller. Its mutex serializes every action so
// the controller sees one operation at a time.
type session struct {
	mu         sync.Mutex
	username   string
	backend    Backend
	controller *notes.Controller
	lastSeen   time.Time
}

// Options tunes the web UI. Zero values select defaults.
// An empty CookieSecret generates a random one, so cookies end with the process.
type Options struct {
	MaxFormBytes int64
	SecureCookie bool
	CookieSecret []byte
}

// Server renders the note list and forwards form actions to per-session controllers.
type Server struct {
	addr      string
	connector Connector
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
	cookies   sessions.Store

	mu       sync.Mutex
	sessions map[string]*session
}

// New creates a web UI server.
func New(addr string, connector Connector, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxFormBytes <= 0 {
		opts.MaxFormBytes = defaultMaxForm
	}
	secret := opts.CookieSecret
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionIdleTTL / time.Second),
		HttpOnly: true,
		Secure:   opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(store.Options.MaxAge)

	return &Server{
		addr:      addr,
		connector: connector,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
		cookies:   store,
		sessions:  make(map[string]*session),
	}
}

// Handler returns the web UI routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sign-in", s.handleSignInPage)
	mux.HandleFunc("POST /sign-in", s.handleSignIn)
	mux.HandleFunc("POST /sign-out", s.withSession(s.handleSignOut))

	mux.HandleFunc("GET /{$}", s.withSession(s.handleIndex))
	mux.HandleFunc("POST /notes", s.withSession(s.handleSave))
	mux.HandleFunc("POST /notes/cancel", s.withSession(s.handleCancel))
	mux.HandleFunc("POST /notes/{id}/edit", s.withSession(s.handleEdit))
	mux.HandleFunc("POST /notes/{id}/delete", s.withSession(s.handleDelete))
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.logger.Info("starting web ui", "addr", s.addr)
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
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

	s.logger.Info("shutting down web ui")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session, cookie *sessions.Session)

// withSession resolves the browser session and holds its lock for the request.
func (s *Server) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, cookie := s.lookupSession(r)
		if sess == nil {
			http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
			return
		}
		sess.mu.Lock()
		defer sess.mu.Unlock()
		next(w, r, sess, cookie)
	}
}

// cookieSession decodes the signed session cookie. A missing or invalid cookie yields a new session.
func (s *Server) cookieSession(r *http.Request) *sessions.Session {
	cookie, err := s.cookies.Get(r, sessionCookieName)
	if err != nil {
		s.logger.Debug("discarding session cookie", "error", err)
	}
	return cookie
}

func (s *Server) lookupSession(r *http.Request) (*session, *sessions.Session) {
	cookie := s.cookieSession(r)
	id, _ := cookie.Values[sessionIDKey].(string)
	if id == "" {
		return nil, cookie
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, cookie
	}
	sess.lastSeen = s.now()
	return sess, cookie
}

func (s *Server) addSession(sess *session) (string, error) {
	id, _, err := internalauth.NewSessionToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	sess.lastSeen = now

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, existing := range s.sessions {
		if now.Sub(existing.lastSeen) > sessionIdleTTL {
			delete(s.sessions, key)
		}
	}
	s.sessions[id] = sess
	return id, nil
}

func (s *Server) dropSession(cookie *sessions.Session) {
	id, _ := cookie.Values[sessionIDKey].(string)
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// addFlash queues a one-shot banner for the next page render.
func (s *Server) addFlash(w http.ResponseWriter, r *http.Request, cookie *sessions.Session, msg string) {
	cookie.AddFlash(msg)
	s.saveCookie(w, r, cookie)
}

// takeFlash pops the queued banner, if any.
func (s *Server) takeFlash(w http.ResponseWriter, r *http.Request, cookie *sessions.Session) string {
	flashes := cookie.Flashes()
	if len(flashes) == 0 {
		return ""
	}
	s.saveCookie(w, r, cookie)
	msg, _ := flashes[0].(string)
	return msg
}

func (s *Server) saveCookie(w http.ResponseWriter, r *http.Request, cookie *sessions.Session) {
	if err := cookie.Save(r, w); err != nil {
		s.logger.Error("save session cookie", "error", err)
	}
}

type pageData struct {
	Title    string
	Username string
	Error    string
	Draft    notes.Draft
	Notes    []notes.ResolvedNote
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("render page", "page", name, "error", err)
	}
}
