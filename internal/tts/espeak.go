package tts

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// EspeakEngine drives the espeak-ng (or classic espeak) command line.
type EspeakEngine struct {
	binary  string
	tempDir string
	logger  *slog.Logger
	run     commandRunner
}

// NewEspeakEngine locates binary (default "espeak-ng", then "espeak").
// Output files are written under tempDir.
func NewEspeakEngine(binary, tempDir string, logger *slog.Logger) (*EspeakEngine, error) {
	candidates := []string{binary}
	if binary == "" {
		candidates = []string{"espeak-ng", "espeak"}
	}

	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			return &EspeakEngine{binary: path, tempDir: tempDir, logger: logger, run: runCommand}, nil
		}
	}
	return nil, fmt.Errorf("%w: espeak (%s)", ErrEngineUnavailable, strings.Join(candidates, ", "))
}

// Name returns the engine identifier.
func (e *EspeakEngine) Name() string {
	return "espeak"
}

// Voices parses the table printed by --voices.
func (e *EspeakEngine) Voices(ctx context.Context) ([]Voice, error) {
	out, err := e.run(ctx, nil, e.binary, "--voices")
	if err != nil {
		return nil, err
	}
	return parseEspeakVoices(out), nil
}

// Synthesize converts text to audio. Text goes through stdin so it is never
// parsed as a flag. Amplitude is espeak's 0-200 scale; 100 is its default.
func (e *EspeakEngine) Synthesize(ctx context.Context, req SynthesizeRequest) (*AudioResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	amplitude := int(math.Round(req.Volume * 100))
	e.logger.Debug("running espeak",
		"binary", e.binary,
		"voice", req.Voice,
		"rate", req.Rate,
		"amplitude", amplitude,
		"text_length", len(req.Text),
	)

	w, err := synthesizeToFile(ctx, e.run, e.tempDir, []byte(req.Text), e.binary, func(out string) []string {
		args := []string{"-s", strconv.Itoa(req.Rate), "-a", strconv.Itoa(amplitude), "-w", out}
		if req.Voice != "" && req.Voice != "default" {
			args = append(args, "-v", req.Voice)
		}
		return append(args, "--stdin")
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("espeak synthesis complete", "frames", w.Frames(), "sample_rate", w.SampleRate)
	return NewAudioResult(w), nil
}

// parseEspeakVoices reads lines like
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US            (en 2)
func parseEspeakVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}

		gender := ""
		if _, g, ok := strings.Cut(fields[2], "/"); ok {
			switch g {
			case "M":
				gender = "male"
			case "F":
				gender = "female"
			}
		}

		voices = append(voices, Voice{
			ID:       fields[1],
			Name:     strings.ReplaceAll(fields[3], "_", " "),
			Language: fields[1],
			Gender:   gender,
		})
	}
	return voices
}
