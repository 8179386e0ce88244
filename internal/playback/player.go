// Package playback plays WAV files on the host's audio output.
package playback

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrNoPlayerAvailable is returned when the host has no way to play audio.
	ErrNoPlayerAvailable = errors.New("no audio player available")
	// ErrPlaybackFailed is returned when a player fails to play a file.
	ErrPlaybackFailed = errors.New("playback failed")
	// ErrUnknownPlayer is returned when a configured player name is not recognised.
	ErrUnknownPlayer = errors.New("unknown player")
)

// Player plays a WAV file to completion.
type Player interface {
	// Name returns the player identifier.
	Name() string
	// Play blocks until the file has been played or ctx is done.
	Play(ctx context.Context, path string) error
}

// LookPathFunc resolves a program name to a path, like exec.LookPath.
type LookPathFunc func(file string) (string, error)

// Detect picks the player for goos once at startup: the native device on
// Windows, afplay on macOS, aplay then paplay elsewhere.
func Detect(goos string, lookPath LookPathFunc) (Player, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	var candidates []string
	switch goos {
	case "windows":
		return NewNativePlayer(), nil
	case "darwin":
		candidates = []string{"afplay"}
	default:
		candidates = []string{"aplay", "paplay"}
	}

	for _, name := range candidates {
		if p, err := NewCommandPlayer(name, lookPath); err == nil {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: looked for %s", ErrNoPlayerAvailable, strings.Join(candidates, ", "))
}

// ByName returns the player called name. "auto" or "" defers to Detect,
// "none" disables playback.
func ByName(name, goos string, lookPath LookPathFunc) (Player, error) {
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	switch name {
	case "", "auto":
		return Detect(goos, lookPath)
	case "none":
		return nil, fmt.Errorf("%w: disabled by configuration", ErrNoPlayerAvailable)
	case "native":
		return NewNativePlayer(), nil
	case "afplay", "aplay", "paplay":
		return NewCommandPlayer(name, lookPath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	}
}

// Unavailable is installed when no player could be found, so previews fail
// with Err instead of the process refusing to start.
type Unavailable struct {
	Err error
}

// Name returns the player identifier.
func (u Unavailable) Name() string {
	return "none"
}

// Play always fails.
func (u Unavailable) Play(ctx context.Context, path string) error {
	if u.Err != nil {
		return u.Err
	}
	return ErrNoPlayerAvailable
}
