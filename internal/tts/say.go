package tts

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// sayDataFormat requests 16-bit PCM; say's default WAV payload is float.
const sayDataFormat = "LEI16@22050"

// SayEngine drives the macOS say command.
type SayEngine struct {
	binary  string
	tempDir string
	logger  *slog.Logger
	run     commandRunner
}

// NewSayEngine locates the say binary.
func NewSayEngine(tempDir string, logger *slog.Logger) (*SayEngine, error) {
	path, err := exec.LookPath("say")
	if err != nil {
		return nil, fmt.Errorf("%w: say", ErrEngineUnavailable)
	}
	return &SayEngine{binary: path, tempDir: tempDir, logger: logger, run: runCommand}, nil
}

// Name returns the engine identifier.
func (s *SayEngine) Name() string {
	return "say"
}

// Voices parses `say -v ?`.
func (s *SayEngine) Voices(ctx context.Context) ([]Voice, error) {
	out, err := s.run(ctx, nil, s.binary, "-v", "?")
	if err != nil {
		return nil, err
	}
	return parseSayVoices(out), nil
}

// Synthesize renders text with say. With no message argument say reads
// the text from stdin. Volume is applied as gain afterwards.
func (s *SayEngine) Synthesize(ctx context.Context, req SynthesizeRequest) (*AudioResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.logger.Debug("running say",
		"voice", req.Voice,
		"rate", req.Rate,
		"text_length", len(req.Text),
	)

	w, err := synthesizeToFile(ctx, s.run, s.tempDir, []byte(req.Text), s.binary, func(out string) []string {
		args := []string{"-r", strconv.Itoa(req.Rate), "-o", out, "--data-format=" + sayDataFormat}
		if req.Voice != "" && req.Voice != "default" {
			args = append(args, "-v", req.Voice)
		}
		return args
	})
	if err != nil {
		return nil, err
	}

	w, err = applyVolume(w, req.Volume)
	if err != nil {
		return nil, err
	}
	return NewAudioResult(w), nil
}

// sayVoiceLine matches "Alex                en_US    # Most people recognize me by my voice."
// Voice names may contain spaces and parentheses.
var sayVoiceLine = regexp.MustCompile(`^(.+?)\s+([a-z]{2,3}[_-][A-Za-z0-9]+)\s+#`)

func parseSayVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		m := sayVoiceLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		voices = append(voices, Voice{ID: name, Name: name, Language: m[2]})
	}
	return voices
}
