// Package ui models the speech form and drives it from a single event loop.
package ui

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/speakwave/internal/audio"
	"github.com/dgnsrekt/speakwave/internal/export"
	"github.com/dgnsrekt/speakwave/internal/session"
	"github.com/dgnsrekt/speakwave/internal/tts"
)

// Slider ranges and defaults.
const (
	MinRate     = tts.MinRate
	MaxRate     = tts.MaxRate
	DefaultRate = tts.DefaultRate

	MinVolume     = 0
	MaxVolume     = 10
	DefaultVolume = 10

	MinPitch     = 50
	MaxPitch     = 200
	DefaultPitch = 100
)

// DefaultFormat is the first option of the format selector.
const DefaultFormat = export.FormatMP3

// Form holds the user's input.
type Form struct {
	VoiceIndex int    `json:"voice_index"`
	Text       string `json:"text"`
	// Rate is in words per minute.
	Rate int `json:"rate"`
	// VolumeTenths is 0..10; 10 is full volume.
	VolumeTenths int `json:"volume"`
	// PitchPercent is 50..200; 100 leaves the pitch unchanged.
	PitchPercent int           `json:"pitch"`
	Filename     string        `json:"filename"`
	Format       export.Format `json:"format"`
	Directory    string        `json:"directory,omitempty"`
}

// DefaultForm returns the form as it appears at start-up.
func DefaultForm() Form {
	return Form{
		VoiceIndex:   0,
		Rate:         DefaultRate,
		VolumeTenths: DefaultVolume,
		PitchPercent: DefaultPitch,
		Format:       DefaultFormat,
	}
}

// Reset restores defaults after a successful save. The chosen directory
// is kept; text and filename are always cleared.
func (f *Form) Reset(defaults Form) {
	dir := f.Directory
	*f = defaults
	f.Text = ""
	f.Filename = ""
	f.Directory = dir
}

// Validate checks the text and the slider and selector ranges. Destination
// fields are checked by the save pipeline, after the text.
func (f Form) Validate(voiceCount int) error {
	if strings.TrimSpace(f.Text) == "" {
		return fmt.Errorf("%w: %w", session.ErrValidation, tts.ErrEmptyText)
	}
	if voiceCount > 0 && (f.VoiceIndex < 0 || f.VoiceIndex >= voiceCount) {
		return fmt.Errorf("%w: voice %d not in 0..%d", session.ErrValidation, f.VoiceIndex, voiceCount-1)
	}
	if f.Rate < MinRate || f.Rate > MaxRate {
		return fmt.Errorf("%w: rate %d not in %d..%d", session.ErrValidation, f.Rate, MinRate, MaxRate)
	}
	if f.VolumeTenths < MinVolume || f.VolumeTenths > MaxVolume {
		return fmt.Errorf("%w: volume %d not in %d..%d", session.ErrValidation, f.VolumeTenths, MinVolume, MaxVolume)
	}
	if f.PitchPercent < MinPitch || f.PitchPercent > MaxPitch {
		return fmt.Errorf("%w: pitch %d not in %d..%d", session.ErrValidation, f.PitchPercent, MinPitch, MaxPitch)
	}
	return nil
}

// Params maps the form onto synthesis parameters: volume tenths to [0,1],
// pitch percent to a factor, and the voice index to the voice ID.
func (f Form) Params(voices []tts.Voice) session.Params {
	voice := ""
	if f.VoiceIndex >= 0 && f.VoiceIndex < len(voices) {
		voice = voices[f.VoiceIndex].ID
	}
	return session.Params{
		Text:   f.Text,
		Voice:  voice,
		Rate:   f.Rate,
		Volume: float64(f.VolumeTenths) / MaxVolume,
		Pitch:  audio.PercentToFactor(f.PitchPercent),
	}
}

// SaveParams maps the form onto save parameters.
func (f Form) SaveParams(voices []tts.Voice) session.SaveParams {
	return session.SaveParams{
		Params:    f.Params(voices),
		Directory: f.Directory,
		Filename:  f.Filename,
		Format:    f.Format,
	}
}

// VoiceOption is one entry of the voice selector.
type VoiceOption struct {
	Index int       `json:"index"`
	Label string    `json:"label"`
	Voice tts.Voice `json:"voice"`
}

// VoiceOptions lists voices the way the selector shows them.
func VoiceOptions(voices []tts.Voice) []VoiceOption {
	opts := make([]VoiceOption, len(voices))
	for i, v := range voices {
		opts[i] = VoiceOption{Index: i, Label: v.Label(i), Voice: v}
	}
	return opts
}
