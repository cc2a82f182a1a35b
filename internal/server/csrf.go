package server

import (
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/render"
)

const csrfFailure = "CSRF token missing or incorrect."

func (s *Server) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.csrfToken != "" {
			got := r.Header.Get(s.csrfHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(s.csrfToken)) != 1 {
				s.log.WithField("path", r.URL.Path).Warn("rejected request with bad csrf token")
				writeError(w, r, http.StatusForbidden, csrfFailure)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type csrfResponse struct {
	Token  string `json:"token"`
	Header string `json:"header"`
}

func (s *Server) handleCSRF(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, csrfResponse{Token: s.csrfToken, Header: s.csrfHeader})
}
