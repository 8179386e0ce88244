// Package app wires configuration into a ready session for the binaries.
package app

import (
	"context"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/dgnsrekt/speakwave/internal/audio"
	"github.com/dgnsrekt/speakwave/internal/config"
	"github.com/dgnsrekt/speakwave/internal/export"
	"github.com/dgnsrekt/speakwave/internal/playback"
	"github.com/dgnsrekt/speakwave/internal/session"
	"github.com/dgnsrekt/speakwave/internal/tts"
	"github.com/dgnsrekt/speakwave/internal/ui"
)

// App holds the components shared by the server and the CLI.
type App struct {
	Session  *session.Session
	Voices   []tts.Voice
	Defaults ui.Form
}

// New detects the engine, codec and player and builds the session.
// A missing codec or player degrades the app; a missing engine is fatal.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	registry, err := tts.Detect(tts.DetectConfig{
		Preferred:  cfg.TTSEngine,
		PiperPath:  cfg.PiperPath,
		PiperModel: cfg.PiperModel,
		EspeakPath: cfg.EspeakPath,
		TempDir:    cfg.TempDir,
	}, logger)
	if err != nil {
		return nil, err
	}
	engine, err := registry.Default()
	if err != nil {
		return nil, err
	}

	var encoder export.Encoder
	conv, err := newConverter(cfg.FFmpegPath, logger)
	if err != nil {
		logger.Warn("ffmpeg not available, mp3 export disabled", "error", err)
	} else {
		encoder = conv
		logger.Info("mp3 encoder ready", "ffmpeg", conv.Path())
	}

	player, err := playback.ByName(cfg.Player, runtime.GOOS, exec.LookPath)
	if err != nil {
		logger.Warn("audio playback unavailable, previews will fail", "error", err)
		player = playback.Unavailable{Err: err}
	}

	sess := session.New(engine, player, export.NewExporter(encoder, logger), session.Options{
		OutputDir:        cfg.OutputDir,
		TempDir:          cfg.TempDir,
		MaxTextLength:    cfg.MaxTextLength,
		SynthesisTimeout: cfg.SynthesisTimeout,
	}, logger)

	voices, err := sess.Voices(ctx)
	if err != nil {
		logger.Warn("failed to list voices, using engine default", "engine", engine.Name(), "error", err)
		voices = nil
	}

	logger.Info("session ready",
		"engine", engine.Name(),
		"engines", registry.List(),
		"player", player.Name(),
		"voices", len(voices),
		"formats", sess.Formats(),
	)

	return &App{
		Session:  sess,
		Voices:   voices,
		Defaults: DefaultForm(cfg, voices),
	}, nil
}

func newConverter(path string, logger *slog.Logger) (*audio.Converter, error) {
	if path == "" {
		return audio.NewConverter(logger)
	}
	if _, err := exec.LookPath(path); err != nil {
		return nil, audio.ErrFFmpegNotFound
	}
	return audio.NewConverterWithPath(path, logger), nil
}

// DefaultForm builds the start-up form from configuration.
func DefaultForm(cfg *config.Config, voices []tts.Voice) ui.Form {
	f := ui.DefaultForm()
	f.VoiceIndex = VoiceIndex(voices, cfg.DefaultVoice)
	f.Rate = cfg.DefaultRate
	f.VolumeTenths = cfg.DefaultVolume
	f.PitchPercent = cfg.DefaultPitch
	if format, err := export.ParseFormat(cfg.DefaultFormat); err == nil {
		f.Format = format
	}
	return f
}

// VoiceIndex finds want among voices by ID, then by name, then as a list
// index. Unknown voices select the first entry.
func VoiceIndex(voices []tts.Voice, want string) int {
	want = strings.TrimSpace(want)
	if want == "" {
		return 0
	}
	for i, v := range voices {
		if v.ID == want {
			return i
		}
	}
	for i, v := range voices {
		if strings.EqualFold(v.Name, want) {
			return i
		}
	}
	if i, err := strconv.Atoi(want); err == nil && i >= 0 && i < len(voices) {
		return i
	}
	return 0
}

// Overrides are form values given on the command line. Zero values, and a
// negative Volume, keep the configured default.
type Overrides struct {
	Text      string
	Voice     string
	Rate      int
	Volume    int
	Pitch     int
	Filename  string
	Format    string
	Directory string
}

// ApplyOverrides fills defaults with the values set in o.
func ApplyOverrides(defaults ui.Form, voices []tts.Voice, o Overrides) ui.Form {
	form := defaults
	form.Text = o.Text
	form.Filename = o.Filename
	form.Directory = o.Directory
	if o.Voice != "" {
		form.VoiceIndex = VoiceIndex(voices, o.Voice)
	}
	if o.Rate != 0 {
		form.Rate = o.Rate
	}
	if o.Volume >= 0 {
		form.VolumeTenths = o.Volume
	}
	if o.Pitch != 0 {
		form.PitchPercent = o.Pitch
	}
	if o.Format != "" {
		form.Format = export.Format(o.Format)
	}
	return form
}
