package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dgnsrekt/speakwave/internal/audio"
)

// commandRunner runs an external program and returns its stdout.
// Engines hold one so tests can substitute the process.
type commandRunner func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)

// runCommand is the default commandRunner.
func runCommand(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %v: %s", ErrSynthesisFailed, filepath.Base(name), err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

// synthesizeToFile runs a program that writes a WAV file into a private
// directory under tempRoot (os.TempDir when empty), then parses it. The
// directory is removed on return.
func synthesizeToFile(ctx context.Context, run commandRunner, tempRoot string, stdin []byte, name string, args func(out string) []string) (audio.Waveform, error) {
	dir, err := os.MkdirTemp(tempRoot, "speakwave-tts-*")
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "speech.wav")
	if _, err := run(ctx, stdin, name, args(out)...); err != nil {
		return audio.Waveform{}, err
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: no output file: %v", ErrSynthesisFailed, err)
	}

	w, err := audio.FromWAV(data)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	if w.Frames() == 0 {
		return audio.Waveform{}, fmt.Errorf("%w: no audio output", ErrSynthesisFailed)
	}
	return w, nil
}

// applyVolume scales w for engines that have no native volume control.
func applyVolume(w audio.Waveform, volume float64) (audio.Waveform, error) {
	if volume == MaxVolume {
		return w, nil
	}
	out, err := audio.Gain(w, volume)
	if err != nil {
		return audio.Waveform{}, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	return out, nil
}
