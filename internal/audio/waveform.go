// Package audio holds the in-memory PCM waveform and the transforms applied
// to synthesized speech before it is played or exported.
package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgnsrekt/speakwave/internal/wav"
)

// StandardSampleRate is the rate every processed waveform is delivered at.
const StandardSampleRate = 44100

// ErrInvalidParameter is returned for non-positive rates, pitch factors
// or malformed waveforms.
var ErrInvalidParameter = errors.New("invalid audio parameter")

// Waveform is a PCM buffer: interleaved little-endian samples.
// 8-bit samples are unsigned, wider ones signed.
type Waveform struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Data       []byte
}

// FromWAV parses a WAV file into a Waveform. The returned Data is a copy.
func FromWAV(data []byte) (Waveform, error) {
	if w, err := decodeWAV(data); err == nil {
		return w, nil
	}
	// Files the decoder rejects, such as a data chunk sized for a stream,
	// go through the chunk walker, which also reports the error.
	h, pcm, err := wav.Parse(data)
	if err != nil {
		return Waveform{}, err
	}
	out := make([]byte, len(pcm))
	copy(out, pcm)
	return Waveform{
		SampleRate: h.SampleRate,
		Channels:   h.Channels,
		BitDepth:   h.BitsPerSample,
		Data:       out,
	}, nil
}

// WAV encodes the waveform as a canonical RIFF/WAVE file.
func (w Waveform) WAV() []byte {
	return wav.WrapRawPCM(w.Data, w.SampleRate, w.Channels, w.BitDepth)
}

// BytesPerSample is the width of one sample of one channel.
func (w Waveform) BytesPerSample() int {
	return w.BitDepth / 8
}

// BlockAlign is the width of one frame (one sample for every channel).
func (w Waveform) BlockAlign() int {
	return w.Channels * w.BytesPerSample()
}

// Frames returns the number of complete frames in Data.
func (w Waveform) Frames() int {
	if w.BlockAlign() <= 0 {
		return 0
	}
	return len(w.Data) / w.BlockAlign()
}

// Duration is Frames / SampleRate.
func (w Waveform) Duration() time.Duration {
	if w.SampleRate <= 0 {
		return 0
	}
	return time.Duration(int64(w.Frames()) * int64(time.Second) / int64(w.SampleRate))
}

// Validate checks the layout invariants: positive rate and channel count,
// a supported bit depth, and data made of whole frames.
func (w Waveform) Validate() error {
	if w.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidParameter, w.SampleRate)
	}
	if w.Channels <= 0 {
		return fmt.Errorf("%w: %d channels", ErrInvalidParameter, w.Channels)
	}
	switch w.BitDepth {
	case 8, 16, 24, 32:
	default:
		return fmt.Errorf("%w: bit depth %d", ErrInvalidParameter, w.BitDepth)
	}
	if len(w.Data)%w.BlockAlign() != 0 {
		return fmt.Errorf("%w: %d data bytes is not a multiple of block align %d",
			ErrInvalidParameter, len(w.Data), w.BlockAlign())
	}
	return nil
}

// Clone returns a deep copy.
func (w Waveform) Clone() Waveform {
	c := w
	c.Data = make([]byte, len(w.Data))
	copy(c.Data, w.Data)
	return c
}
