// Package session owns the synthesis engine and runs the preview, save and
// speak pipelines against it.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dgnsrekt/speakwave/internal/audio"
	"github.com/dgnsrekt/speakwave/internal/export"
	"github.com/dgnsrekt/speakwave/internal/playback"
	"github.com/dgnsrekt/speakwave/internal/tts"
)

// Error categories. Component errors are joined under exactly one of these.
var (
	// ErrValidation is returned for input the user must correct.
	ErrValidation = errors.New("validation failed")
	// ErrSynthesis is returned when the engine or the post-processor fails.
	ErrSynthesis = errors.New("synthesis failed")
	// ErrPlayback is returned when a preview cannot be played.
	ErrPlayback = errors.New("playback failed")
	// ErrExport is returned when the output file cannot be written.
	ErrExport = errors.New("export failed")
)

// Validation causes the form reports with their own message.
var (
	// ErrNoDirectory is returned when no output directory is selected or configured.
	ErrNoDirectory = errors.New("no output directory selected")
	// ErrNoFilename is returned when the filename is empty.
	ErrNoFilename = errors.New("filename is required")
)

// Params are the synthesis parameters gathered from the form.
type Params struct {
	// ID labels the operation in logs and temp file names. Generated when empty.
	ID     string
	Text   string
	Voice  string
	Rate   int
	Volume float64
	// Pitch is the pitch factor; Speak ignores it.
	Pitch float64
}

// SaveParams adds the destination to Params.
type SaveParams struct {
	Params
	// Directory falls back to Options.OutputDir when empty.
	Directory string
	Filename  string
	Format    export.Format
}

// Options tune a Session.
type Options struct {
	// OutputDir is the default save directory.
	OutputDir string
	// TempDir holds preview files. Empty means os.TempDir.
	TempDir string
	// MaxTextLength limits the text in characters. Zero disables the check.
	MaxTextLength int
	// SynthesisTimeout bounds a single engine call. Zero disables it.
	SynthesisTimeout time.Duration
}

// Session serializes access to one engine and runs the pipelines.
// It is safe for concurrent use.
type Session struct {
	// mu guards the engine: engines are not safe for concurrent use.
	mu       sync.Mutex
	engine   tts.Engine
	player   playback.Player
	exporter *export.Exporter
	opts     Options
	logger   *slog.Logger
}

// New creates a session. player may be playback.Unavailable.
func New(engine tts.Engine, player playback.Player, exporter *export.Exporter, opts Options, logger *slog.Logger) *Session {
	return &Session{
		engine:   engine,
		player:   player,
		exporter: exporter,
		opts:     opts,
		logger:   logger,
	}
}

// EngineName returns the name of the engine in use.
func (s *Session) EngineName() string {
	return s.engine.Name()
}

// PlayerName returns the name of the player in use.
func (s *Session) PlayerName() string {
	return s.player.Name()
}

// OutputDir returns the default save directory.
func (s *Session) OutputDir() string {
	return s.opts.OutputDir
}

// Formats returns the export formats currently available.
func (s *Session) Formats() []export.Format {
	return s.exporter.Formats()
}

// Voices lists the engine's voices.
func (s *Session) Voices(ctx context.Context) ([]tts.Voice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	voices, err := s.engine.Voices(ctx)
	if err != nil {
		return nil, errors.Join(ErrSynthesis, err)
	}
	return voices, nil
}

// Preview synthesizes p, applies the pitch shift and plays the result.
// The temporary WAV file is removed on every exit path.
func (s *Session) Preview(ctx context.Context, p Params) error {
	p = s.withID(p)
	if err := s.validate(p, true); err != nil {
		return err
	}

	w, err := s.synthesize(ctx, p, true)
	if err != nil {
		return err
	}
	return s.play(ctx, p.ID, "preview", w)
}

// Speak synthesizes p and plays it without pitch processing.
func (s *Session) Speak(ctx context.Context, p Params) error {
	p = s.withID(p)
	if err := s.validate(p, false); err != nil {
		return err
	}

	w, err := s.synthesize(ctx, p, false)
	if err != nil {
		return err
	}
	return s.play(ctx, p.ID, "speak", w)
}

// Save synthesizes p, applies the pitch shift and writes
// <directory>/<filename>.<format>. It returns the written path.
// Checks run in the order the form reports them: text, directory, filename.
func (s *Session) Save(ctx context.Context, p SaveParams) (string, error) {
	p.Params = s.withID(p.Params)

	if strings.TrimSpace(p.Text) == "" {
		return "", fmt.Errorf("%w: %w", ErrValidation, tts.ErrEmptyText)
	}

	dir := p.Directory
	if dir == "" {
		dir = s.opts.OutputDir
	}
	if dir == "" {
		return "", fmt.Errorf("%w: %w", ErrValidation, ErrNoDirectory)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return "", errors.Join(ErrExport, fmt.Errorf("%w: %v", export.ErrIO, err))
	}
	if !info.IsDir() {
		return "", errors.Join(ErrExport, fmt.Errorf("%w: %s is not a directory", export.ErrIO, dir))
	}

	filename := strings.TrimSpace(p.Filename)
	if filename == "" {
		return "", fmt.Errorf("%w: %w", ErrValidation, ErrNoFilename)
	}
	if strings.ContainsAny(filename, `/\`) || filename == "." || filename == ".." {
		return "", fmt.Errorf("%w: filename %q must not contain a path", ErrValidation, filename)
	}

	format, err := export.ParseFormat(string(p.Format))
	if err != nil {
		return "", errors.Join(ErrValidation, err)
	}

	if err := s.validate(p.Params, true); err != nil {
		return "", err
	}

	w, err := s.synthesize(ctx, p.Params, true)
	if err != nil {
		return "", err
	}

	path := export.DestinationPath(dir, filename, format)
	if err := s.exporter.Export(ctx, export.Request{Format: format, Path: path, Waveform: w}); err != nil {
		s.logger.Error("export failed", "job_id", p.ID, "path", path, "error", err)
		return "", errors.Join(ErrExport, err)
	}

	s.logger.Info("speech saved", "job_id", p.ID, "path", path, "duration", w.Duration())
	return path, nil
}

func (s *Session) withID(p Params) Params {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return p
}

func (s *Session) validate(p Params, pitched bool) error {
	if strings.TrimSpace(p.Text) == "" {
		return fmt.Errorf("%w: %w", ErrValidation, tts.ErrEmptyText)
	}
	if s.opts.MaxTextLength > 0 {
		if n := utf8.RuneCountInString(p.Text); n > s.opts.MaxTextLength {
			return fmt.Errorf("%w: text is %d characters, limit is %d", ErrValidation, n, s.opts.MaxTextLength)
		}
	}
	req := tts.SynthesizeRequest{Text: p.Text, Voice: p.Voice, Rate: p.Rate, Volume: p.Volume}
	if err := req.Validate(); err != nil {
		return errors.Join(ErrValidation, err)
	}
	if pitched && (p.Pitch < audio.MinPitchFactor || p.Pitch > audio.MaxPitchFactor) {
		return fmt.Errorf("%w: pitch %v outside [%v, %v]", ErrValidation, p.Pitch, audio.MinPitchFactor, audio.MaxPitchFactor)
	}
	return nil
}

// synthesize holds the engine lock for the engine call only.
func (s *Session) synthesize(ctx context.Context, p Params, pitched bool) (audio.Waveform, error) {
	w, err := s.callEngine(ctx, p)
	if err != nil {
		return audio.Waveform{}, err
	}
	if !pitched {
		return w, nil
	}

	shifted, err := audio.PitchShift(w, p.Pitch)
	if err != nil {
		return audio.Waveform{}, errors.Join(ErrSynthesis, err)
	}

	s.logger.Debug("pitch applied",
		"job_id", p.ID,
		"pitch", p.Pitch,
		"input_duration", w.Duration(),
		"output_duration", shifted.Duration(),
	)
	return shifted, nil
}

func (s *Session) callEngine(ctx context.Context, p Params) (audio.Waveform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.SynthesisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.SynthesisTimeout)
		defer cancel()
	}

	s.logger.Debug("synthesizing speech",
		"job_id", p.ID,
		"engine", s.engine.Name(),
		"voice", p.Voice,
		"rate", p.Rate,
		"volume", p.Volume,
		"text_length", len(p.Text),
	)

	result, err := s.engine.Synthesize(ctx, tts.SynthesizeRequest{
		Text:   p.Text,
		Voice:  p.Voice,
		Rate:   p.Rate,
		Volume: p.Volume,
	})
	if err != nil {
		s.logger.Error("TTS synthesis failed", "job_id", p.ID, "error", err)
		return audio.Waveform{}, errors.Join(ErrSynthesis, err)
	}

	w := result.Waveform
	s.logger.Debug("synthesis complete",
		"job_id", p.ID,
		"sample_rate", w.SampleRate,
		"channels", w.Channels,
		"bit_depth", w.BitDepth,
		"bytes", len(w.Data),
	)
	return w, nil
}

// play writes w to a private temp directory, plays it and removes the
// directory, including when the player panics.
func (s *Session) play(ctx context.Context, id, kind string, w audio.Waveform) error {
	dir, err := os.MkdirTemp(s.opts.TempDir, "speakwave-"+kind+"-*")
	if err != nil {
		return errors.Join(ErrPlayback, err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			s.logger.Warn("failed to remove temp dir", "job_id", id, "dir", dir, "error", err)
		}
	}()

	path := filepath.Join(dir, id+".wav")
	if err := os.WriteFile(path, w.WAV(), 0o600); err != nil {
		return errors.Join(ErrPlayback, err)
	}

	s.logger.Debug("playing audio", "job_id", id, "player", s.player.Name(), "duration", w.Duration())
	if err := s.player.Play(ctx, path); err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Info("playback interrupted", "job_id", id)
		} else {
			s.logger.Error("playback failed", "job_id", id, "error", err)
		}
		return errors.Join(ErrPlayback, err)
	}

	s.logger.Info("playback complete", "job_id", id, "kind", kind)
	return nil
}
