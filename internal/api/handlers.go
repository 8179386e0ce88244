package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgnsrekt/speakwave/internal/export"
	"github.com/dgnsrekt/speakwave/internal/session"
	"github.com/dgnsrekt/speakwave/internal/ui"
)

// PreviewResponse represents the response body for /v1/preview.
type PreviewResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// SaveResponse represents the response body for /v1/save.
type SaveResponse struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the response body for /v1/healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// VoicesResponse represents the response body for /v1/voices.
type VoicesResponse struct {
	Voices []ui.VoiceOption `json:"voices"`
}

// FormatsResponse represents the response body for /v1/formats.
type FormatsResponse struct {
	Formats []export.Format `json:"formats"`
}

// NotificationsResponse represents the response body for /v1/notifications.
type NotificationsResponse struct {
	Notifications []ui.Notification `json:"notifications"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// handleHealthz handles GET /v1/healthz requests.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// handleVoices handles GET /v1/voices requests.
func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VoicesResponse{Voices: s.controller.Voices()})
}

// handleFormats handles GET /v1/formats requests.
func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FormatsResponse{Formats: s.formats.Formats()})
}

// handleForm handles GET /v1/form requests.
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	snap, err := s.controller.Snapshot(r.Context())
	if err != nil {
		s.writeControllerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleNotifications handles GET /v1/notifications requests.
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NotificationsResponse{Notifications: s.notifications.Drain()})
}

// decodeForm applies the request body to the current form, so clients
// may send only the fields they change.
func (s *Server) decodeForm(w http.ResponseWriter, r *http.Request) (ui.Form, bool) {
	snap, err := s.controller.Snapshot(r.Context())
	if err != nil {
		s.writeControllerError(w, err)
		return ui.Form{}, false
	}

	form := snap.Form
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&form); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("failed to decode form", "error", err)
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return ui.Form{}, false
	}
	return form, true
}

// handlePreview handles POST /v1/preview requests.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	form, ok := s.decodeForm(w, r)
	if !ok {
		return
	}

	jobID, err := s.controller.Preview(r.Context(), form)
	if err != nil {
		switch {
		case errors.Is(err, ui.ErrBusy):
			writeError(w, http.StatusConflict, ui.Message(err))
		case errors.Is(err, session.ErrValidation):
			writeError(w, http.StatusBadRequest, ui.Message(err))
		default:
			s.writeControllerError(w, err)
		}
		return
	}

	s.logger.Info("preview requested",
		"job_id", jobID,
		"text_length", len(form.Text),
		"voice_index", form.VoiceIndex,
		"pitch", form.PitchPercent,
	)

	writeJSON(w, http.StatusAccepted, PreviewResponse{
		JobID:   jobID,
		Message: "preview started",
	})
}

// handleSave handles POST /v1/save requests.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	form, ok := s.decodeForm(w, r)
	if !ok {
		return
	}

	if s.cfg.AuthDisabled() {
		dir, err := confineDir(s.cfg.OutputDir, form.Directory)
		if err != nil {
			s.logger.Warn("save directory rejected", "directory", form.Directory, "remote_addr", r.RemoteAddr)
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		form.Directory = dir
	}

	path, err := s.controller.Save(r.Context(), form)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrValidation):
			writeError(w, http.StatusBadRequest, ui.Message(err))
		case errors.Is(err, export.ErrCapabilityUnavailable), errors.Is(err, export.ErrUnsupportedFormat):
			writeError(w, http.StatusUnprocessableEntity, ui.Message(err))
		default:
			s.writeControllerError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, SaveResponse{
		Path:    path,
		Message: "saved",
	})
}

var errOutsideOutputDir = errors.New("directory must be inside the output directory")

// confineDir resolves dir against root and rejects anything that leaves it,
// following symlinks that already exist. An empty dir means root.
func confineDir(root, dir string) (string, error) {
	if dir == "" {
		return root, nil
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	rootAbs, err := resolvePath(root)
	if err != nil {
		return "", err
	}
	dirAbs, err := resolvePath(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(rootAbs, dirAbs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errOutsideOutputDir
	}
	return dirAbs, nil
}

func resolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}

func (s *Server) writeControllerError(w http.ResponseWriter, err error) {
	if errors.Is(err, ui.ErrStopped) {
		writeError(w, http.StatusServiceUnavailable, "shutting down")
		return
	}
	s.logger.Error("request failed", "error", err)
	writeError(w, http.StatusInternalServerError, ui.Message(err))
}
