package server

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"notesdrive/internal/api"
)

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req api.SignInRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}

	now := time.Now().UTC()
	limiterKey := signInAttemptKey(req.Username, r)
	if !s.signInLimiter.Allow(limiterKey, now) {
		s.writeServiceError(w, r, resourceExhausted(fmt.Errorf("too many sign-in attempts; retry later")))
		return
	}

	result, err := s.authService.SignIn(r.Context(), req.Username, req.Password, now)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) {
			s.signInLimiter.RegisterFailure(limiterKey, now)
			s.writeServiceError(w, r, unauthorized(errInvalidCredentials))
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	s.signInLimiter.Reset(limiterKey)

	s.log().Info("user signed in", "username", result.User.Username)
	s.writeJSON(w, http.StatusOK, api.SessionResponse{
		Token:     result.Token,
		Username:  result.User.Username,
		ExpiresAt: result.ExpiresAt,
	})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	principal, _ := authPrincipalFromContext(r.Context())
	if err := s.authService.SignOut(r.Context(), principal.Token, time.Now().UTC()); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := authPrincipalFromContext(r.Context())
	if !ok {
		s.writeServiceError(w, r, unauthorized(fmt.Errorf("unauthorized")))
		return
	}
	s.writeJSON(w, http.StatusOK, api.MeResponse{
		Username:  principal.Username,
		ExpiresAt: principal.ExpiresAt,
	})
}

// authed rejects requests without an active session bearer token.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.writeServiceError(w, r, unauthorized(fmt.Errorf("missing bearer token")))
			return
		}
		session, err := s.authService.Authenticate(r.Context(), token, time.Now().UTC())
		if err != nil {
			s.writeStoreError(w, r, err)
			return
		}
		if session == nil {
			s.writeServiceError(w, r, unauthorized(fmt.Errorf("session expired or revoked")))
			return
		}

		annotateRequestUser(r, session.User.Username)
		ctx := contextWithAuthPrincipal(r.Context(), authPrincipal{
			Username:  session.User.Username,
			Role:      session.User.Role,
			Token:     token,
			ExpiresAt: session.ExpiresAt,
		})
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func signInAttemptKey(username string, r *http.Request) string {
	user := strings.ToLower(strings.TrimSpace(username))
	if user == "" {
		user = "<empty>"
	}
	ip := requestClientIP(r)
	if ip == "" {
		ip = "<unknown>"
	}
	return ip + "|" + user
}

func requestClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if remote == "" {
		return ""
	}
	host, _, err := net.SplitHostPort(remote)
	if err == nil {
		return strings.TrimSpace(host)
	}
	return remote
}
