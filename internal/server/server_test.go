package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"notesdrive/internal/api"
	"notesdrive/internal/blobstore"
	"notesdrive/internal/store"
)

type testPlatform struct {
	srv     *Server
	store   *store.Store
	blobs   *blobstore.LocalStore
	handler http.Handler
}

func newTestPlatform(t *testing.T, opts Options) *testPlatform {
	t.Helper()

	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "platform.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	blobs, err := blobstore.NewLocalStore(filepath.Join(dir, "blobs"), opts.MaxUploadBytes)
	if err != nil {
		t.Fatalf("open blob store: %v", err)
	}
	if opts.Signer == nil {
		signer, err := blobstore.NewSigner([]byte("0123456789abcdef0123456789abcdef"), 0)
		if err != nil {
			t.Fatalf("new signer: %v", err)
		}
		opts.Signer = signer
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New("127.0.0.1:0", st, blobs, opts, logger)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return &testPlatform{srv: srv, store: st, blobs: blobs, handler: srv.Handler()}
}

func (p *testPlatform) provision(t *testing.T, username, password string) {
	t.Helper()
	if _, err := p.srv.authService.ProvisionUser(t.Context(), username, password, store.RoleUser, time.Now().UTC()); err != nil {
		t.Fatalf("provision %s: %v", username, err)
	}
}

func (p *testPlatform) do(t *testing.T, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	p.handler.ServeHTTP(w, req)
	return w
}

func (p *testPlatform) doJSON(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("encode request: %v", err)
	}
	return p.do(t, method, path, token, bytes.NewReader(body))
}

func (p *testPlatform) signIn(t *testing.T, username, password string) string {
	t.Helper()
	w := p.doJSON(t, http.MethodPost, "/auth/sign-in", "", api.SignInRequest{Username: username, Password: password})
	if w.Code != http.StatusOK {
		t.Fatalf("sign in %s: status %d (%s)", username, w.Code, w.Body.String())
	}
	var resp api.SessionResponse
	decodeBody(t, w, &resp)
	if resp.Token == "" {
		t.Fatal("expected session token")
	}
	return resp.Token
}

// session provisions username and returns a signed-in token.
func (p *testPlatform) session(t *testing.T, username string) string {
	t.Helper()
	p.provision(t, username, "password-123")
	return p.signIn(t, username, "password-123")
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func decodeErrorCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var resp api.ErrorResponse
	decodeBody(t, w, &resp)
	return resp.ErrorCode
}

func TestListenAddrRemoteGuard(t *testing.T) {
	t.Run("allows loopback", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		addr, err := ListenAddr("http://127.0.0.1:7333")
		if err != nil {
			t.Fatalf("expected loopback to be allowed, got error: %v", err)
		}
		if addr != "127.0.0.1:7333" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})

	t.Run("blocks non-loopback by default", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		_, err := ListenAddr("http://0.0.0.0:7333")
		if err == nil {
			t.Fatal("expected error for non-loopback listen host")
		}
	})

	t.Run("allows non-loopback when explicitly enabled", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "true")
		addr, err := ListenAddr("http://0.0.0.0:7333")
		if err != nil {
			t.Fatalf("expected allow-remote to permit host, got error: %v", err)
		}
		if addr != "0.0.0.0:7333" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})

	t.Run("requires url", func(t *testing.T) {
		if _, err := ListenAddr(""); err == nil {
			t.Fatal("expected error for empty url")
		}
	})
}

func TestNewRequiresStores(t *testing.T) {
	if _, err := New("127.0.0.1:0", nil, nil, Options{}, nil); err == nil {
		t.Fatal("expected error without store")
	}
}

func TestHealthIsPublic(t *testing.T) {
	p := newTestPlatform(t, Options{})
	w := p.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp api.HealthResponse
	decodeBody(t, w, &resp)
	if resp.Status != "ok" {
		t.Fatalf("unexpected health status %q", resp.Status)
	}
}

func TestAuthed(t *testing.T) {
	p := newTestPlatform(t, Options{})
	token := p.session(t, "alice")

	nextCalled := false
	handler := p.srv.authed(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		principal, ok := authPrincipalFromContext(r.Context())
		if !ok || principal.Username != "alice" {
			t.Errorf("unexpected principal %+v", principal)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + token, want: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + token, want: http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			nextCalled = false
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d (%s)", tc.want, w.Code, w.Body.String())
			}
			if tc.want == http.StatusUnauthorized {
				if code := decodeErrorCode(t, w); code != ErrCodeUnauthorized {
					t.Fatalf("expected error_code %d, got %d", ErrCodeUnauthorized, code)
				}
				if nextCalled {
					t.Fatal("next handler should not be called")
				}
			} else if !nextCalled {
				t.Fatal("expected next handler to be called")
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer   abc  ")
	if got := bearerToken(req); got != "abc" {
		t.Fatalf("bearerToken = %q, want abc", got)
	}
}
