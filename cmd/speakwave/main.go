package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgnsrekt/speakwave/internal/api"
	"github.com/dgnsrekt/speakwave/internal/app"
	"github.com/dgnsrekt/speakwave/internal/config"
	"github.com/dgnsrekt/speakwave/internal/logging"
	"github.com/dgnsrekt/speakwave/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default $SPEAKWAVE_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Use stderr before logger is initialized
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting speakwave", "version", "0.1.0")

	if cfg.AuthDisabled() {
		logger.Warn("HTTP bearer authentication is disabled (BEARER_TOKEN is empty)")
	}

	// Log loaded configuration (without sensitive values)
	logger.Info("configuration loaded",
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat,
		"http_port", cfg.HTTPPort,
		"tts_engine", cfg.TTSEngine,
		"player", cfg.Player,
		"output_dir", cfg.OutputDir,
		"max_text_length", cfg.MaxTextLength,
		"synthesis_timeout", cfg.SynthesisTimeout,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize speech session", "error", err)
		os.Exit(1)
	}

	notifications := ui.NewNotificationLog(100, logger)
	controller := ui.NewController(a.Session, a.Voices, a.Defaults, notifications, logger)

	loopDone := make(chan struct{})
	go func() {
		controller.Run(ctx)
		close(loopDone)
	}()

	if cfg.WelcomeText != "" {
		go welcome(ctx, a, cfg.WelcomeText, notifications)
	}

	server := api.New(cfg, logger, controller, a.Session, notifications)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}
	<-loopDone

	logger.Info("shutdown complete")
}

// welcome speaks the greeting with the default voice settings.
func welcome(ctx context.Context, a *app.App, text string, n ui.Notifier) {
	p := a.Defaults.Params(a.Voices)
	p.Text = text
	if err := a.Session.Speak(ctx, p); err != nil && !errors.Is(err, context.Canceled) {
		// A host without a player still serves saves.
		n.Notify(ui.Notification{Level: ui.LevelError, Message: ui.Message(err)})
	}
}
