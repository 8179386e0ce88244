package ui

import (
	"errors"
	"strings"

	"github.com/dgnsrekt/speakwave/internal/export"
	"github.com/dgnsrekt/speakwave/internal/playback"
	"github.com/dgnsrekt/speakwave/internal/session"
	"github.com/dgnsrekt/speakwave/internal/tts"
)

// Message renders err as the single message shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBusy):
		return "A preview is already playing."
	case errors.Is(err, tts.ErrEmptyText):
		return "Please enter some text to convert."
	case errors.Is(err, session.ErrNoDirectory):
		return "Please choose an output directory."
	case errors.Is(err, session.ErrNoFilename):
		return "Please enter a filename."
	case errors.Is(err, session.ErrValidation):
		return "Invalid input: " + detail(err)
	case errors.Is(err, export.ErrCapabilityUnavailable):
		return "MP3 export needs ffmpeg. Choose WAV or install ffmpeg."
	case errors.Is(err, export.ErrIO):
		return "Could not write the file: " + detail(err)
	case errors.Is(err, session.ErrExport):
		return "Export failed: " + detail(err)
	case errors.Is(err, playback.ErrNoPlayerAvailable):
		return "No audio player is available on this system."
	case errors.Is(err, session.ErrPlayback):
		return "Playback failed: " + detail(err)
	case errors.Is(err, session.ErrSynthesis):
		return "Speech synthesis failed: " + detail(err)
	default:
		return "Error: " + detail(err)
	}
}

// detail returns the most specific line of a joined error.
func detail(err error) string {
	msg := strings.TrimSpace(err.Error())
	if i := strings.LastIndexByte(msg, '\n'); i >= 0 {
		msg = msg[i+1:]
	}
	return msg
}
