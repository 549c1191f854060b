package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"

	"notesdrive/internal/notes"
)

func (s *Server) handleSignInPage(w http.ResponseWriter, r *http.Request) {
	if sess, _ := s.lookupSession(r); sess != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "signin.html", pageData{Title: "Sign in"})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.render(w, http.StatusBadRequest, "signin.html", pageData{Title: "Sign in", Error: "Invalid sign-in form."})
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")

	backend, err := s.connector.Connect(r.Context(), username, password)
	if err != nil {
		s.logger.Warn("web sign-in failed", "username", username, "error", err)
		s.render(w, http.StatusUnauthorized, "signin.html", pageData{
			Title:    "Sign in",
			Username: username,
			Error:    signInMessage(err),
		})
		return
	}

	sess := &session{
		username: username,
		backend:  backend,
		controller: notes.NewController(backend, backend,
			notes.WithLogger(s.logger.With("component", "notes", "user", username))),
	}
	id, err := s.addSession(sess)
	if err != nil {
		s.logger.Error("create web session", "error", err)
		s.render(w, http.StatusInternalServerError, "signin.html", pageData{Title: "Sign in", Error: "Could not start a session."})
		return
	}
	cookie := s.cookieSession(r)
	cookie.Values[sessionIDKey] = id
	if err := cookie.Save(r, w); err != nil {
		s.dropSession(cookie)
		s.logger.Error("save session cookie", "error", err)
		s.render(w, http.StatusInternalServerError, "signin.html", pageData{Title: "Sign in", Error: "Could not start a session."})
		return
	}
	s.logger.Info("web session started", "username", username)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request, sess *session, cookie *sessions.Session) {
	if err := sess.backend.SignOut(r.Context()); err != nil {
		s.logger.Warn("platform sign-out failed", "username", sess.username, "error", err)
	}
	s.dropSession(cookie)
	delete(cookie.Values, sessionIDKey)
	cookie.Options.MaxAge = -1
	s.saveCookie(w, r, cookie)
	http.Redirect(w, r, "/sign-in", http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, sess *session, cookie *sessions.Session) {
	data := pageData{Title: "Notes", Username: sess.username, Error: s.takeFlash(w, r, cookie)}

	if err := sess.controller.Refresh(r.Context()); err != nil {
		s.logger.Warn("refresh notes", "username", sess.username, "error", err)
		if data.Error == "" {
			data.Error = errorMessage(err)
		}
	}
	data.Draft = sess.controller.Draft()
	data.Notes = sess.controller.Notes()
	s.render(w, http.StatusOK, "index.html", data)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, sess *session, cookie *sessions.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxFormBytes)
	if msg := s.saveDraft(r, sess); msg != "" {
		s.addFlash(w, r, cookie, msg)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// saveDraft copies the form into the draft and saves it. It returns banner text on failure.
func (s *Server) saveDraft(r *http.Request, sess *session) string {
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return fmt.Sprintf("Could not read the form: %v", err)
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	ctrl := sess.controller
	ctrl.SetName(strings.TrimSpace(r.FormValue("name")))
	ctrl.SetDescription(strings.TrimSpace(r.FormValue("description")))

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		ctrl.AttachFile(&notes.File{Name: header.Filename, Body: file})
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		ctrl.AttachFile(nil)
	default:
		return fmt.Sprintf("Could not read the image: %v", err)
	}
	// The upload body does not outlive this request.
	defer ctrl.AttachFile(nil)

	if err := ctrl.Save(r.Context()); err != nil {
		s.logger.Warn("save note", "username", sess.username, "error", err)
		return errorMessage(err)
	}
	return ""
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, sess *session, _ *sessions.Session) {
	sess.controller.CancelEdit()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request, sess *session, cookie *sessions.Session) {
	note, ok := sess.controller.Lookup(r.PathValue("id"))
	if !ok {
		s.addFlash(w, r, cookie, "That note no longer exists.")
	} else {
		sess.controller.Edit(note)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, sess *session, cookie *sessions.Session) {
	note, ok := sess.controller.Lookup(r.PathValue("id"))
	if !ok {
		s.addFlash(w, r, cookie, "That note no longer exists.")
	} else if err := sess.controller.Delete(r.Context(), note); err != nil {
		s.logger.Warn("delete note", "username", sess.username, "id", note.ID, "error", err)
		s.addFlash(w, r, cookie, errorMessage(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// errorMessage turns a controller failure into banner text.
func errorMessage(err error) string {
	var nerr *notes.Error
	if !errors.As(err, &nerr) {
		return err.Error()
	}
	switch nerr.Kind {
	case notes.KindAuth:
		return "Your session was rejected by the platform. Sign out and sign in again."
	case notes.KindNetwork:
		return fmt.Sprintf("The notes platform is unreachable (%s): %v", nerr.Op, nerr.Err)
	case notes.KindStorage:
		return fmt.Sprintf("File storage failed (%s): %v", nerr.Op, nerr.Err)
	default:
		return fmt.Sprintf("The notes platform rejected the request (%s): %v", nerr.Op, nerr.Err)
	}
}

func signInMessage(err error) string {
	var sc interface{ HTTPStatus() int }
	if errors.As(err, &sc) {
		switch sc.HTTPStatus() {
		case http.StatusUnauthorized:
			return "Wrong username or password."
		case http.StatusTooManyRequests:
			return "Too many sign-in attempts. Try again later."
		}
	}
	return fmt.Sprintf("Sign-in failed: %v", err)
}
