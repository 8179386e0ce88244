package audio

import (
	"fmt"
	"math"
)

// Pitch factor bounds accepted by the form.
const (
	MinPitchFactor = 0.5
	MaxPitchFactor = 2.0
)

// PitchShift re-pitches w by factor p. The samples are reinterpreted as if
// they had been captured at round(rate*p), then resampled to
// StandardSampleRate. Playback speed changes with pitch: p > 1 shortens the
// audio, p < 1 lengthens it. w is never modified.
func PitchShift(w Waveform, p float64) (Waveform, error) {
	if w.SampleRate <= 0 {
		return Waveform{}, fmt.Errorf("%w: sample rate %d", ErrInvalidParameter, w.SampleRate)
	}
	if p <= 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return Waveform{}, fmt.Errorf("%w: pitch factor %v", ErrInvalidParameter, p)
	}

	virtualRate := int(math.Round(float64(w.SampleRate) * p))
	if virtualRate <= 0 {
		return Waveform{}, fmt.Errorf("%w: pitch factor %v gives rate %d", ErrInvalidParameter, p, virtualRate)
	}

	// Header-only change; Resample copies the data.
	respun := w
	respun.SampleRate = virtualRate

	return Resample(respun, StandardSampleRate)
}

// PercentToFactor maps the form's pitch percentage (50..200) to a factor.
func PercentToFactor(percent int) float64 {
	return float64(percent) / 100.0
}
