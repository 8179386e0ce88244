// Package api exposes the speech form over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgnsrekt/speakwave/internal/config"
	"github.com/dgnsrekt/speakwave/internal/export"
	"github.com/dgnsrekt/speakwave/internal/ui"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// FormController drives the form. *ui.Controller implements it.
type FormController interface {
	Preview(ctx context.Context, form ui.Form) (string, error)
	Save(ctx context.Context, form ui.Form) (string, error)
	Snapshot(ctx context.Context) (ui.Snapshot, error)
	Voices() []ui.VoiceOption
}

// FormatLister reports the export formats available. *session.Session implements it.
type FormatLister interface {
	Formats() []export.Format
}

// NotificationSource hands out pending notifications. *ui.NotificationLog implements it.
type NotificationSource interface {
	Drain() []ui.Notification
}

// Server handles HTTP API requests.
type Server struct {
	cfg           *config.Config
	logger        *slog.Logger
	server        *http.Server
	controller    FormController
	formats       FormatLister
	notifications NotificationSource
}

// New creates a new API server.
func New(cfg *config.Config, logger *slog.Logger, controller FormController, formats FormatLister, notifications NotificationSource) *Server {
	s := &Server{
		cfg:           cfg,
		logger:        logger,
		controller:    controller,
		formats:       formats,
		notifications: notifications,
	}

	s.server = &http.Server{
		Addr:        cfg.ListenAddr(),
		Handler:     s.Handler(),
		ReadTimeout: 10 * time.Second,
		// Save synthesizes and encodes before responding.
		WriteTimeout: cfg.SynthesisTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/healthz", s.handleHealthz)
	mux.HandleFunc("GET /v1/voices", s.handleVoices)
	mux.HandleFunc("GET /v1/formats", s.handleFormats)
	mux.HandleFunc("GET /v1/form", s.handleForm)
	mux.HandleFunc("GET /v1/notifications", s.withAuth(s.handleNotifications))
	mux.HandleFunc("POST /v1/preview", s.withAuth(s.handlePreview))
	mux.HandleFunc("POST /v1/save", s.withAuth(s.handleSave))
	return mux
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
