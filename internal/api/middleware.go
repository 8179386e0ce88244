package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
)

var (
	errMissingAuth = errors.New("missing authorization header")
	errAuthFormat  = errors.New("invalid authorization format")
	errBadToken    = errors.New("invalid token")
)

// withAuth guards the routes that trigger synthesis or expose notifications.
// An empty BEARER_TOKEN leaves them open.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AuthDisabled() {
			next(w, r)
			return
		}
		if err := s.checkBearer(r.Header.Get("Authorization")); err != nil {
			s.logger.Warn("request rejected", "reason", err, "remote_addr", r.RemoteAddr, "path", r.URL.Path)
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next(w, r)
	}
}

// checkBearer validates an Authorization header value of the form "Bearer <token>".
func (s *Server) checkBearer(header string) error {
	if header == "" {
		return errMissingAuth
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return errAuthFormat
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.BearerToken)) != 1 {
		return errBadToken
	}
	return nil
}
