package server

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"

	"notesdrive/internal/api"
)

func (s *Server) handleStorageUpload(w http.ResponseWriter, r *http.Request) {
	principal, _ := authPrincipalFromContext(r.Context())
	key := r.PathValue("path")

	body := http.MaxBytesReader(w, r.Body, s.storageService.MaxBytes())
	result, err := s.storageService.Upload(r.Context(), principal.Username, key, body)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.log().Debug("blob stored", "path", result.Key, "size", result.SizeBytes, "sha256", result.SHA256)
	s.writeJSON(w, http.StatusCreated, api.UploadResponse{Path: result.Key, Size: result.SizeBytes})
}

func (s *Server) handleStorageURL(w http.ResponseWriter, r *http.Request) {
	var req api.StorageURLRequest
	if !s.decodeJSONReq(w, r, &req) {
		return
	}
	principal, _ := authPrincipalFromContext(r.Context())

	signed, err := s.storageService.SignURL(r.Context(), principal.Username, req.Path)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.StorageURLResponse{URL: signed.Path, ExpiresAt: signed.ExpiresAt})
}

func (s *Server) handleStorageRemove(w http.ResponseWriter, r *http.Request) {
	principal, _ := authPrincipalFromContext(r.Context())
	if err := s.storageService.Remove(r.Context(), principal.Username, r.PathValue("path")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStorageDownload(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("path")
	q := r.URL.Query()
	expires := q.Get("expires")

	rc, err := s.storageService.OpenSigned(r.Context(), key, expires, q.Get("signature"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer rc.Close()

	if ctype := mime.TypeByExtension(path.Ext(key)); ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if unix, err := strconv.ParseInt(expires, 10, 64); err == nil {
		maxAge := int(time.Until(time.Unix(unix, 0)).Seconds())
		if maxAge > 0 {
			w.Header().Set("Cache-Control", "private, max-age="+strconv.Itoa(maxAge))
		}
	}

	if seeker, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, path.Base(key), time.Time{}, seeker)
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		s.log().Debug("blob download interrupted", "path", key, "error", err)
	}
}
