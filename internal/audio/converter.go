package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

var (
	// ErrFFmpegNotFound is returned when ffmpeg is not installed.
	ErrFFmpegNotFound = errors.New("ffmpeg not found in PATH")
	// ErrConversionFailed is returned when ffmpeg exits with an error.
	ErrConversionFailed = errors.New("audio conversion failed")
)

// MP3Quality is the LAME VBR quality passed as -q:a (0 best, 9 smallest).
const MP3Quality = 2

// Converter encodes waveforms into lossy containers through ffmpeg.
// It is the optional codec dependency: without it only WAV is available.
type Converter struct {
	ffmpegPath string
	logger     *slog.Logger
}

var quietOnce sync.Once

// quietFFmpeg stops ffmpeg-go printing every command through the standard
// log package; commands are logged through slog instead.
func quietFFmpeg() {
	quietOnce.Do(func() { ffmpeg.LogCompiledCommand = false })
}

// NewConverter locates ffmpeg on PATH.
func NewConverter(logger *slog.Logger) (*Converter, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, ErrFFmpegNotFound
	}
	return NewConverterWithPath(path, logger), nil
}

// NewConverterWithPath creates a converter with a specific ffmpeg path.
func NewConverterWithPath(path string, logger *slog.Logger) *Converter {
	quietFFmpeg()
	return &Converter{ffmpegPath: path, logger: logger}
}

// Path returns the ffmpeg binary in use.
func (c *Converter) Path() string {
	return c.ffmpegPath
}

// EncodeMP3 encodes w as MP3 (libmp3lame) and writes the stream to out.
func (c *Converter) EncodeMP3(ctx context.Context, w Waveform, out io.Writer) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if w.Frames() == 0 {
		return fmt.Errorf("%w: empty waveform", ErrInvalidParameter)
	}

	return c.run(ctx, w.WAV(), out, ffmpeg.KwArgs{
		"f":      "mp3",
		"acodec": "libmp3lame",
		"q:a":    MP3Quality,
	})
}

// run pipes wavData through ffmpeg with the given output arguments.
func (c *Converter) run(ctx context.Context, wavData []byte, out io.Writer, outArgs ffmpeg.KwArgs) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var stderr bytes.Buffer

	stream := ffmpeg.Input("pipe:0", ffmpeg.KwArgs{"f": "wav"}).
		Output("pipe:1", outArgs).
		GlobalArgs("-loglevel", "error", "-nostdin").
		SetFfmpegPath(c.ffmpegPath).
		WithInput(bytes.NewReader(wavData)).
		WithOutput(out).
		WithErrorOutput(&stderr)

	c.logger.Debug("running ffmpeg",
		"binary", c.ffmpegPath,
		"args", strings.Join(stream.GetArgs(), " "),
		"input_bytes", len(wavData),
	)
	cmd := stream.Compile()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", ErrConversionFailed, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %s", ErrConversionFailed, bytes.TrimSpace(stderr.Bytes()))
		}
	}
	return nil
}
