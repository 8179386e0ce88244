package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgnsrekt/speakwave/internal/config"
	"github.com/dgnsrekt/speakwave/internal/export"
	"github.com/dgnsrekt/speakwave/internal/logging"
	"github.com/dgnsrekt/speakwave/internal/session"
	"github.com/dgnsrekt/speakwave/internal/tts"
	"github.com/dgnsrekt/speakwave/internal/ui"
)

// fakeController records the forms it receives.
type fakeController struct {
	form       ui.Form
	previewErr error
	saveErr    error
	previewed  []ui.Form
	saved      []ui.Form
}

func (f *fakeController) Preview(ctx context.Context, form ui.Form) (string, error) {
	f.previewed = append(f.previewed, form)
	if f.previewErr != nil {
		return "", f.previewErr
	}
	return "job-123", nil
}

func (f *fakeController) Save(ctx context.Context, form ui.Form) (string, error) {
	f.saved = append(f.saved, form)
	if f.saveErr != nil {
		return "", f.saveErr
	}
	return "/out/" + form.Filename + "." + string(form.Format), nil
}

func (f *fakeController) Snapshot(ctx context.Context) (ui.Snapshot, error) {
	return ui.Snapshot{Form: f.form, PreviewEnabled: true}, nil
}

func (f *fakeController) Voices() []ui.VoiceOption {
	return ui.VoiceOptions([]tts.Voice{{ID: "en", Name: "English"}})
}

type fakeFormats []export.Format

func (f fakeFormats) Formats() []export.Format { return f }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.HTTPPort = 8080
	cfg.BearerToken = "test-token"
	cfg.SynthesisTimeout = 5 * time.Second
	return cfg
}

func testServer(cfg *config.Config) (*Server, *fakeController) {
	logger := logging.New("error", "text") // quiet logger for tests
	ctrl := &fakeController{form: ui.DefaultForm()}
	notes := ui.NewNotificationLog(8, logger)
	notes.Notify(ui.Notification{Level: ui.LevelInfo, Message: "Saved to /out/a.wav"})
	return New(cfg, logger, ctrl, fakeFormats{export.FormatWAV}, notes), ctrl
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	req.Header.Set("Authorization", "Bearer test-token")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", w.Body.String(), err)
	}
	return v
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(testConfig())

	req := httptest.NewRequest("GET", "/v1/healthz", nil)
	w := httptest.NewRecorder()

	srv.handleHealthz(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	resp := decode[HealthResponse](t, w)
	if resp.Status != "ok" {
		t.Errorf("expected status 'ok', got '%s'", resp.Status)
	}
}

func TestVoices(t *testing.T) {
	srv, _ := testServer(testConfig())

	w := do(t, srv, "GET", "/v1/voices", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	resp := decode[VoicesResponse](t, w)
	if len(resp.Voices) != 1 || resp.Voices[0].Label != "0. English" || resp.Voices[0].Voice.ID != "en" {
		t.Errorf("unexpected voices %+v", resp.Voices)
	}
}

func TestFormats(t *testing.T) {
	srv, _ := testServer(testConfig())

	resp := decode[FormatsResponse](t, do(t, srv, "GET", "/v1/formats", ""))
	if len(resp.Formats) != 1 || resp.Formats[0] != export.FormatWAV {
		t.Errorf("unexpected formats %+v", resp.Formats)
	}
}

func TestForm(t *testing.T) {
	srv, _ := testServer(testConfig())

	snap := decode[ui.Snapshot](t, do(t, srv, "GET", "/v1/form", ""))
	if snap.Form != ui.DefaultForm() || !snap.PreviewEnabled {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestNotificationsDrain(t *testing.T) {
	srv, _ := testServer(testConfig())

	first := decode[NotificationsResponse](t, do(t, srv, "GET", "/v1/notifications", ""))
	if len(first.Notifications) != 1 || first.Notifications[0].Message != "Saved to /out/a.wav" {
		t.Errorf("unexpected notifications %+v", first.Notifications)
	}

	second := decode[NotificationsResponse](t, do(t, srv, "GET", "/v1/notifications", ""))
	if len(second.Notifications) != 0 {
		t.Errorf("expected drained list, got %+v", second.Notifications)
	}
}

func TestPreviewAccepted(t *testing.T) {
	srv, ctrl := testServer(testConfig())

	w := do(t, srv, "POST", "/v1/preview", `{"text":"Hello, world!","pitch":150}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected status %d, got %d: %s", http.StatusAccepted, w.Code, w.Body.String())
	}

	resp := decode[PreviewResponse](t, w)
	if resp.JobID != "job-123" {
		t.Errorf("job_id = %q", resp.JobID)
	}

	// Fields not in the body keep their current values.
	got := ctrl.previewed[0]
	if got.Text != "Hello, world!" || got.PitchPercent != 150 || got.Rate != ui.DefaultRate || got.Format != ui.DefaultFormat {
		t.Errorf("unexpected form %+v", got)
	}
}

func TestPreviewStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"busy", ui.ErrBusy, http.StatusConflict, "A preview is already playing."},
		{"validation", fmt.Errorf("%w: %w", session.ErrValidation, tts.ErrEmptyText), http.StatusBadRequest, "Please enter some text to convert."},
		{"stopped", ui.ErrStopped, http.StatusServiceUnavailable, "shutting down"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "Error: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, ctrl := testServer(testConfig())
			ctrl.previewErr = tt.err

			w := do(t, srv, "POST", "/v1/preview", `{"text":"x"}`)
			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := decode[ErrorResponse](t, w); resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestPreviewInvalidJSON(t *testing.T) {
	srv, ctrl := testServer(testConfig())

	for _, body := range []string{`{invalid json}`, `{"txt":"typo"}`} {
		w := do(t, srv, "POST", "/v1/preview", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d", body, http.StatusBadRequest, w.Code)
		}
		if resp := decode[ErrorResponse](t, w); resp.Error != "invalid JSON body" {
			t.Errorf("expected error 'invalid JSON body', got '%s'", resp.Error)
		}
	}
	if len(ctrl.previewed) != 0 {
		t.Error("controller should not be called")
	}
}

func TestSaveSuccess(t *testing.T) {
	srv, _ := testServer(testConfig())

	w := do(t, srv, "POST", "/v1/save", `{"text":"Hello world","filename":"test","format":"wav"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if resp := decode[SaveResponse](t, w); resp.Path != "/out/test.wav" {
		t.Errorf("path = %q", resp.Path)
	}
}

func TestSaveStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"no filename", fmt.Errorf("%w: %w", session.ErrValidation, session.ErrNoFilename), http.StatusBadRequest},
		{"mp3 unavailable", errors.Join(session.ErrExport, export.ErrCapabilityUnavailable), http.StatusUnprocessableEntity},
		{"io", errors.Join(session.ErrExport, export.ErrIO), http.StatusInternalServerError},
		{"synthesis", errors.Join(session.ErrSynthesis, tts.ErrSynthesisFailed), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, ctrl := testServer(testConfig())
			ctrl.saveErr = tt.err

			w := do(t, srv, "POST", "/v1/save", `{"text":"x","filename":"y"}`)
			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := decode[ErrorResponse](t, w); resp.Error != ui.Message(tt.err) {
				t.Errorf("error = %q, want %q", resp.Error, ui.Message(tt.err))
			}
		})
	}
}

func TestSaveDirectoryWithoutAuth(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "clips"), 0o755); err != nil {
		t.Fatal(err)
	}
	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(root, "link")); err != nil {
		t.Fatal(err)
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		directory  string
		wantStatus int
		wantDir    string
	}{
		{"default", "", http.StatusOK, root},
		{"relative subdirectory", "clips", http.StatusOK, filepath.Join(realRoot, "clips")},
		{"absolute inside", filepath.Join(root, "clips"), http.StatusOK, filepath.Join(realRoot, "clips")},
		{"parent escape", "../", http.StatusForbidden, ""},
		{"absolute outside", outside, http.StatusForbidden, ""},
		{"symlink outside", "link", http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.BearerToken = ""
			cfg.OutputDir = root
			srv, ctrl := testServer(cfg)

			body, _ := json.Marshal(map[string]string{"text": "x", "filename": "y", "directory": tt.directory})
			w := do(t, srv, "POST", "/v1/save", string(body))
			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				if len(ctrl.saved) != 0 {
					t.Errorf("rejected directory reached the controller: %+v", ctrl.saved)
				}
				return
			}
			if got := ctrl.saved[0].Directory; got != tt.wantDir {
				t.Errorf("directory = %q, want %q", got, tt.wantDir)
			}
		})
	}
}

func TestSaveDirectoryWithAuthIsUnrestricted(t *testing.T) {
	srv, ctrl := testServer(testConfig())
	outside := t.TempDir()

	body, _ := json.Marshal(map[string]string{"text": "x", "filename": "y", "directory": outside})
	w := do(t, srv, "POST", "/v1/save", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if got := ctrl.saved[0].Directory; got != outside {
		t.Errorf("directory = %q, want %q", got, outside)
	}
}
