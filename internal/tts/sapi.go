package tts

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strings"
)

// SAPIEngine drives System.Speech through PowerShell on Windows.
type SAPIEngine struct {
	binary  string
	tempDir string
	logger  *slog.Logger
	run     commandRunner
}

// NewSAPIEngine locates powershell.
func NewSAPIEngine(tempDir string, logger *slog.Logger) (*SAPIEngine, error) {
	path, err := exec.LookPath("powershell")
	if err != nil {
		return nil, fmt.Errorf("%w: powershell", ErrEngineUnavailable)
	}
	return &SAPIEngine{binary: path, tempDir: tempDir, logger: logger, run: runCommand}, nil
}

// Name returns the engine identifier.
func (s *SAPIEngine) Name() string {
	return "sapi"
}

const sapiVoicesScript = `Add-Type -AssemblyName System.Speech; ` +
	`$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; ` +
	`foreach ($v in $s.GetInstalledVoices()) { if ($v.Enabled) { $i = $v.VoiceInfo; ` +
	`Write-Output ($i.Name + '|' + $i.Culture.Name + '|' + $i.Gender) } }; ` +
	`$s.Dispose()`

// Voices lists the installed, enabled SAPI voices.
func (s *SAPIEngine) Voices(ctx context.Context) ([]Voice, error) {
	out, err := s.run(ctx, nil, s.binary, "-NoProfile", "-NonInteractive", "-Command", sapiVoicesScript)
	if err != nil {
		return nil, err
	}
	return parseSAPIVoices(out), nil
}

// Synthesize renders text to a WAV file with SetOutputToWaveFile. The
// text is read from stdin so it needs no quoting.
func (s *SAPIEngine) Synthesize(ctx context.Context, req SynthesizeRequest) (*AudioResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.logger.Debug("running sapi",
		"voice", req.Voice,
		"rate", sapiRate(req.Rate),
		"volume", sapiVolume(req.Volume),
		"text_length", len(req.Text),
	)

	w, err := synthesizeToFile(ctx, s.run, s.tempDir, []byte(req.Text), s.binary, func(out string) []string {
		return []string{"-NoProfile", "-NonInteractive", "-Command", sapiSpeakScript(req, out)}
	})
	if err != nil {
		return nil, err
	}
	return NewAudioResult(w), nil
}

func sapiSpeakScript(req SynthesizeRequest, out string) string {
	var b strings.Builder
	b.WriteString(`Add-Type -AssemblyName System.Speech; `)
	b.WriteString(`$t = [Console]::In.ReadToEnd(); `)
	b.WriteString(`$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; `)
	if req.Voice != "" && req.Voice != "default" {
		fmt.Fprintf(&b, `$s.SelectVoice('%s'); `, escapePowerShell(req.Voice))
	}
	fmt.Fprintf(&b, `$s.Rate = %d; `, sapiRate(req.Rate))
	fmt.Fprintf(&b, `$s.Volume = %d; `, sapiVolume(req.Volume))
	fmt.Fprintf(&b, `$s.SetOutputToWaveFile('%s'); `, escapePowerShell(out))
	b.WriteString(`$s.Speak($t); $s.Dispose()`)
	return b.String()
}

// sapiRate maps words per minute onto SAPI's -10..10 scale, 0 at DefaultRate.
func sapiRate(wpm int) int {
	r := int(math.Round(float64(wpm-DefaultRate) / 10))
	return max(-10, min(10, r))
}

func sapiVolume(v float64) int {
	return int(math.Round(v * 100))
}

// escapePowerShell escapes a value for a single-quoted PowerShell string.
func escapePowerShell(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func parseSAPIVoices(out []byte) []Voice {
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		parts := strings.Split(strings.TrimSpace(sc.Text()), "|")
		if len(parts) != 3 || parts[0] == "" {
			continue
		}
		voices = append(voices, Voice{
			ID:       parts[0],
			Name:     parts[0],
			Language: parts[1],
			Gender:   strings.ToLower(parts[2]),
		})
	}
	return voices
}
