// Package tts adapts text-to-speech engines to a single synthesis capability.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgnsrekt/speakwave/internal/audio"
)

// Rate and volume bounds accepted by every engine.
const (
	MinRate     = 100
	MaxRate     = 300
	DefaultRate = 200

	MinVolume = 0.0
	MaxVolume = 1.0
)

var (
	// ErrEmptyText is returned when there is nothing to speak.
	ErrEmptyText = errors.New("empty text")
	// ErrInvalidRequest is returned for out-of-range rate or volume.
	ErrInvalidRequest = errors.New("invalid synthesis request")
	// ErrSynthesisFailed is returned when TTS synthesis fails.
	ErrSynthesisFailed = errors.New("TTS synthesis failed")
	// ErrEngineUnavailable is returned when an engine's backend is not installed.
	ErrEngineUnavailable = errors.New("TTS engine unavailable")
)

// SynthesizeRequest contains parameters for TTS synthesis.
type SynthesizeRequest struct {
	Text  string
	Voice string
	// Rate is the speaking rate in words per minute.
	Rate int
	// Volume is linear, 0 (silent) to 1 (full).
	Volume float64
}

// Validate checks the request bounds.
func (r SynthesizeRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrEmptyText
	}
	if r.Rate < MinRate || r.Rate > MaxRate {
		return fmt.Errorf("%w: rate %d outside [%d, %d]", ErrInvalidRequest, r.Rate, MinRate, MaxRate)
	}
	if r.Volume < MinVolume || r.Volume > MaxVolume {
		return fmt.Errorf("%w: volume %v outside [%v, %v]", ErrInvalidRequest, r.Volume, MinVolume, MaxVolume)
	}
	return nil
}

// Voice is a voice offered by an engine.
type Voice struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language,omitempty"`
	Gender   string `json:"gender,omitempty"`
}

// Label renders the voice the way the voice selector lists it.
func (v Voice) Label(index int) string {
	return fmt.Sprintf("%d. %s", index, v.Name)
}

// AudioResult represents synthesized audio output.
type AudioResult struct {
	// Waveform is the decoded PCM.
	Waveform audio.Waveform
	// Data is the same audio as a WAV file.
	Data []byte
}

// NewAudioResult wraps a waveform.
func NewAudioResult(w audio.Waveform) *AudioResult {
	return &AudioResult{Waveform: w, Data: w.WAV()}
}

// Reader returns an io.Reader over the WAV bytes.
func (a *AudioResult) Reader() io.Reader {
	return &audioReader{data: a.Data}
}

type audioReader struct {
	data   []byte
	offset int
}

func (r *audioReader) Read(p []byte) (n int, err error) {
	if r.offset >= len(r.data) {
		return 0, io.EOF
	}
	n = copy(p, r.data[r.offset:])
	r.offset += n
	return n, nil
}

// Engine is the interface for text-to-speech synthesis.
// Implementations are not required to be safe for concurrent use.
type Engine interface {
	// Name returns the engine identifier.
	Name() string
	// Voices lists the voices the engine can speak with.
	Voices(ctx context.Context) ([]Voice, error)
	// Synthesize converts text to audio.
	Synthesize(ctx context.Context, req SynthesizeRequest) (*AudioResult, error)
}
