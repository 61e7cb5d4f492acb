package http

import (
	"net/http"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	OK bool `json:"ok"`
}

type sessionResponse struct {
	Authenticated bool `json:"authenticated"`
}

// handleLogin verifies credentials and installs the session cookie. An
// unparseable body and a credential mismatch look identical to the caller.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decodeJSON(r, &body); err != nil {
		writeJSON(w, http.StatusUnauthorized, loginResponse{OK: false})
		return
	}

	session, err := s.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, loginResponse{OK: false})
		return
	}

	http.SetCookie(w, sessionCookie(session.ID, s.auth.SessionTTL()))
	writeJSON(w, http.StatusOK, loginResponse{OK: true})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.auth.CurrentSession(r.Context(), sessionIDFromRequest(r))
	if err != nil {
		s.logger.Error("http.session.lookup_failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: session != nil})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if id := sessionIDFromRequest(r); id != "" {
		if err := s.auth.Logout(r.Context(), id); err != nil {
			s.logger.Error("http.logout.failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error"})
			return
		}
	}
	http.SetCookie(w, clearedSessionCookie())
	writeJSON(w, http.StatusOK, loginResponse{OK: true})
}
