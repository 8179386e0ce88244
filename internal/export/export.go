// Package export writes processed waveforms to disk as WAV or MP3.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgnsrekt/speakwave/internal/audio"
)

// Format is an export container.
type Format string

// Supported formats, in the order the form lists them.
const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

var (
	// ErrUnsupportedFormat is returned for format tags outside the supported set.
	ErrUnsupportedFormat = errors.New("unsupported export format")
	// ErrCapabilityUnavailable is returned when a format needs the codec
	// dependency and it is not installed. MP3 requests are refused rather
	// than written as WAV bytes under an .mp3 name.
	ErrCapabilityUnavailable = errors.New("export capability unavailable")
	// ErrIO is returned when the destination cannot be written.
	ErrIO = errors.New("export I/O error")
	// ErrEncodeFailed is returned when the codec fails to encode.
	ErrEncodeFailed = errors.New("export encoding failed")
)

// AllFormats lists every format the exporter knows.
func AllFormats() []Format {
	return []Format{FormatMP3, FormatWAV}
}

// ParseFormat validates a format tag, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatMP3, FormatWAV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Extension returns the file extension, with dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// DestinationPath joins dir and filename with the format's extension.
func DestinationPath(dir, filename string, f Format) string {
	return filepath.Join(dir, filename+f.Extension())
}

// Request is one export action.
type Request struct {
	Format   Format
	Path     string
	Waveform audio.Waveform
}

// Encoder is the optional lossy codec. *audio.Converter implements it.
type Encoder interface {
	EncodeMP3(ctx context.Context, w audio.Waveform, out io.Writer) error
}

// Exporter writes Requests to disk.
type Exporter struct {
	encoder Encoder
	logger  *slog.Logger
}

// NewExporter creates an exporter. encoder may be nil, in which case only
// WAV is available.
func NewExporter(encoder Encoder, logger *slog.Logger) *Exporter {
	return &Exporter{encoder: encoder, logger: logger}
}

// Formats returns the formats that can be exported right now.
func (e *Exporter) Formats() []Format {
	if e.encoder == nil {
		return []Format{FormatWAV}
	}
	return AllFormats()
}

// Supports reports whether f can be exported right now.
func (e *Exporter) Supports(f Format) bool {
	for _, have := range e.Formats() {
		if have == f {
			return true
		}
	}
	return false
}

// Export encodes req.Waveform and writes exactly one file at req.Path.
// Data goes to a temporary file next to the destination that is renamed
// into place, so a failure never leaves a partial file behind.
func (e *Exporter) Export(ctx context.Context, req Request) error {
	format, err := ParseFormat(string(req.Format))
	if err != nil {
		return err
	}
	if err := req.Waveform.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrEncodeFailed, err)
	}
	if format == FormatMP3 && e.encoder == nil {
		e.logger.Warn("mp3 export refused, no codec available", "path", req.Path)
		return fmt.Errorf("%w: %s requires ffmpeg", ErrCapabilityUnavailable, format)
	}

	var encoded bytes.Buffer
	switch format {
	case FormatWAV:
		encoded.Write(req.Waveform.WAV())
	case FormatMP3:
		if err := e.encoder.EncodeMP3(ctx, req.Waveform, &encoded); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Join(ErrEncodeFailed, err)
		}
	}

	if err := writeAtomic(req.Path, encoded.Bytes()); err != nil {
		return err
	}

	e.logger.Info("audio exported",
		"path", req.Path,
		"format", format,
		"sample_rate", req.Waveform.SampleRate,
		"channels", req.Waveform.Channels,
		"bytes", encoded.Len(),
	)
	return nil
}

// writeAtomic writes data to a temp file in path's directory and renames it
// over path. The temp file is removed on every failure path.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}
