package tts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strconv"

	"github.com/dgnsrekt/speakwave/internal/audio"
	"github.com/dgnsrekt/speakwave/internal/wav"
)

var (
	// ErrPiperNotFound is returned when the piper binary is not found.
	ErrPiperNotFound = errors.New("piper binary not found")
	// ErrNoModelSpecified is returned when no model is configured.
	ErrNoModelSpecified = errors.New("no piper model specified")
)

// PiperConfig holds configuration for the Piper TTS engine.
type PiperConfig struct {
	// BinaryPath is the path to the piper executable.
	BinaryPath string
	// ModelPath is the path to the ONNX model file.
	ModelPath string
	// DefaultVoice is the default speaker to use.
	DefaultVoice string
}

// PiperEngine implements the Engine interface using local Piper TTS.
type PiperEngine struct {
	config PiperConfig
	logger *slog.Logger
	run    commandRunner
}

// NewPiperEngine creates a new Piper TTS engine.
func NewPiperEngine(cfg PiperConfig, logger *slog.Logger) (*PiperEngine, error) {
	if cfg.BinaryPath == "" {
		cfg.BinaryPath = "piper"
	}

	if _, err := exec.LookPath(cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPiperNotFound, cfg.BinaryPath)
	}

	if cfg.ModelPath == "" {
		return nil, ErrNoModelSpecified
	}

	return &PiperEngine{
		config: cfg,
		logger: logger,
		run:    runCommand,
	}, nil
}

// Name returns the engine identifier.
func (p *PiperEngine) Name() string {
	return "piper"
}

// piperModelConfig is the subset of <model>.onnx.json we read.
type piperModelConfig struct {
	Language struct {
		Code string `json:"code"`
	} `json:"language"`
	Audio struct {
		SampleRate int `json:"sample_rate"`
	} `json:"audio"`
	Dataset      string         `json:"dataset"`
	SpeakerIDMap map[string]int `json:"speaker_id_map"`
}

// modelConfig reads <model>.json next to the model.
func (p *PiperEngine) modelConfig() (*piperModelConfig, error) {
	data, err := os.ReadFile(p.config.ModelPath + ".json")
	if err != nil {
		return nil, err
	}
	var mc piperModelConfig
	if err := json.Unmarshal(data, &mc); err != nil {
		return nil, err
	}
	return &mc, nil
}

// sampleRate is the rate of --output-raw for the configured model.
func (p *PiperEngine) sampleRate() int {
	mc, err := p.modelConfig()
	if err != nil || mc.Audio.SampleRate <= 0 {
		return wav.PiperSampleRate
	}
	return mc.Audio.SampleRate
}

// Voices lists the speakers in the model's sidecar config. Single-speaker
// models, or models without a readable config, offer one default voice.
func (p *PiperEngine) Voices(ctx context.Context) ([]Voice, error) {
	def := []Voice{{ID: "default", Name: "Default"}}

	mc, err := p.modelConfig()
	if err != nil {
		p.logger.Debug("no usable piper model config", "model", p.config.ModelPath, "error", err)
		return def, nil
	}

	if len(mc.SpeakerIDMap) == 0 {
		name := mc.Dataset
		if name == "" {
			name = "Default"
		}
		return []Voice{{ID: "default", Name: name, Language: mc.Language.Code}}, nil
	}

	voices := make([]Voice, 0, len(mc.SpeakerIDMap))
	for name, id := range mc.SpeakerIDMap {
		voices = append(voices, Voice{ID: strconv.Itoa(id), Name: name, Language: mc.Language.Code})
	}
	sort.Slice(voices, func(i, j int) bool {
		a, _ := strconv.Atoi(voices[i].ID)
		b, _ := strconv.Atoi(voices[j].ID)
		return a < b
	})
	return voices, nil
}

// Synthesize converts text to audio using Piper. Rate maps to
// --length_scale relative to DefaultRate; volume is applied as gain.
func (p *PiperEngine) Synthesize(ctx context.Context, req SynthesizeRequest) (*AudioResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	lengthScale := float64(DefaultRate) / float64(req.Rate)
	args := []string{
		"--model", p.config.ModelPath,
		"--output-raw",
		"--length_scale", strconv.FormatFloat(lengthScale, 'f', 3, 64),
	}

	voice := req.Voice
	if voice == "" || voice == "default" {
		voice = p.config.DefaultVoice
	}
	if voice != "" && voice != "default" {
		args = append(args, "--speaker", voice)
	}

	p.logger.Debug("running piper",
		"binary", p.config.BinaryPath,
		"model", p.config.ModelPath,
		"voice", voice,
		"length_scale", lengthScale,
		"text_length", len(req.Text),
	)

	rawAudio, err := p.run(ctx, []byte(req.Text), p.config.BinaryPath, args...)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("piper failed", "error", err)
		}
		return nil, err
	}
	if len(rawAudio) == 0 {
		return nil, fmt.Errorf("%w: no audio output", ErrSynthesisFailed)
	}

	p.logger.Debug("piper synthesis complete", "output_bytes", len(rawAudio))

	// Raw output is 16-bit mono at the model's rate.
	blockAlign := wav.PiperChannels * wav.PiperBitsPerSample / 8
	w := audio.Waveform{
		SampleRate: p.sampleRate(),
		Channels:   wav.PiperChannels,
		BitDepth:   wav.PiperBitsPerSample,
		Data:       rawAudio[:len(rawAudio)-len(rawAudio)%blockAlign],
	}

	w, err = applyVolume(w, req.Volume)
	if err != nil {
		return nil, err
	}
	return NewAudioResult(w), nil
}
