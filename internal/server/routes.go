package server

import (
	"net/http"
)

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Sessions.
	mux.HandleFunc("POST /auth/sign-in", s.handleSignIn)
	mux.HandleFunc("POST /auth/sign-out", s.authed(s.handleSignOut))
	mux.HandleFunc("GET /auth/me", s.authed(s.handleMe))

	// Note data API.
	mux.HandleFunc("POST /graphql", s.authed(s.handleGraphQL))

	// Object storage.
	mux.HandleFunc("POST /storage/url", s.authed(s.handleStorageURL))
	mux.HandleFunc("PUT /storage/{path...}", s.authed(s.handleStorageUpload))
	mux.HandleFunc("DELETE /storage/{path...}", s.authed(s.handleStorageRemove))
	mux.HandleFunc("GET /storage/{path...}", s.handleStorageDownload)

	return mux
}
