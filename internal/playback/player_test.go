package playback

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/gen2brain/malgo"
)

// fakeLookPath resolves only the listed programs.
func fakeLookPath(available ...string) LookPathFunc {
	return func(file string) (string, error) {
		if slices.Contains(available, file) {
			return "/usr/bin/" + file, nil
		}
		return "", errors.New("not found")
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		goos      string
		available []string
		want      string
		wantErr   error
	}{
		{name: "windows native", goos: "windows", want: "native"},
		{name: "darwin afplay", goos: "darwin", available: []string{"afplay"}, want: "afplay"},
		{name: "darwin without afplay", goos: "darwin", available: []string{"aplay"}, wantErr: ErrNoPlayerAvailable},
		{name: "linux prefers aplay", goos: "linux", available: []string{"aplay", "paplay"}, want: "aplay"},
		{name: "linux falls back to paplay", goos: "linux", available: []string{"paplay"}, want: "paplay"},
		{name: "freebsd aplay", goos: "freebsd", available: []string{"aplay"}, want: "aplay"},
		{name: "linux nothing", goos: "linux", wantErr: ErrNoPlayerAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Detect(tt.goos, fakeLookPath(tt.available...))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("player = %q, want %q", p.Name(), tt.want)
			}
		})
	}
}

func TestByName(t *testing.T) {
	look := fakeLookPath("aplay")

	tests := []struct {
		name    string
		want    string
		wantErr error
	}{
		{name: "", want: "aplay"},
		{name: "auto", want: "aplay"},
		{name: "native", want: "native"},
		{name: "aplay", want: "aplay"},
		{name: "paplay", wantErr: ErrNoPlayerAvailable},
		{name: "none", wantErr: ErrNoPlayerAvailable},
		{name: "vlc", wantErr: ErrUnknownPlayer},
	}

	for _, tt := range tests {
		t.Run("name="+tt.name, func(t *testing.T) {
			p, err := ByName(tt.name, "linux", look)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if p.Name() != tt.want {
				t.Errorf("player = %q, want %q", p.Name(), tt.want)
			}
		})
	}
}

func TestCommandPlayer_Play(t *testing.T) {
	p, err := NewCommandPlayer("aplay", fakeLookPath("aplay"))
	if err != nil {
		t.Fatalf("NewCommandPlayer failed: %v", err)
	}

	var gotName string
	var gotArgs []string
	p.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return nil, nil
	}

	if err := p.Play(context.Background(), "/tmp/preview.wav"); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if gotName != "/usr/bin/aplay" {
		t.Errorf("ran %q, want /usr/bin/aplay", gotName)
	}
	if !slices.Equal(gotArgs, []string{"-q", "/tmp/preview.wav"}) {
		t.Errorf("args = %v", gotArgs)
	}
}

func TestCommandPlayer_PlayFailure(t *testing.T) {
	p, err := NewCommandPlayer("paplay", fakeLookPath("paplay"))
	if err != nil {
		t.Fatalf("NewCommandPlayer failed: %v", err)
	}
	p.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return []byte("Connection refused\n"), errors.New("exit status 1")
	}

	err = p.Play(context.Background(), "/tmp/preview.wav")
	if !errors.Is(err, ErrPlaybackFailed) {
		t.Errorf("expected ErrPlaybackFailed, got %v", err)
	}
}

func TestCommandPlayer_PlayCancelled(t *testing.T) {
	p, err := NewCommandPlayer("afplay", fakeLookPath("afplay"))
	if err != nil {
		t.Fatalf("NewCommandPlayer failed: %v", err)
	}
	p.run = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("signal: killed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Play(ctx, "/tmp/x.wav"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestUnavailable(t *testing.T) {
	var p Player = Unavailable{}
	if err := p.Play(context.Background(), "x.wav"); !errors.Is(err, ErrNoPlayerAvailable) {
		t.Errorf("expected ErrNoPlayerAvailable, got %v", err)
	}

	cause := errors.New("no speakers")
	p = Unavailable{Err: cause}
	if err := p.Play(context.Background(), "x.wav"); !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause, got %v", err)
	}
}

func TestDeviceFormat(t *testing.T) {
	tests := []struct {
		bits int
		want malgo.FormatType
	}{
		{8, malgo.FormatU8},
		{16, malgo.FormatS16},
		{24, malgo.FormatS24},
		{32, malgo.FormatS32},
	}
	for _, tt := range tests {
		got, err := deviceFormat(tt.bits)
		if err != nil || got != tt.want {
			t.Errorf("deviceFormat(%d) = %v, %v", tt.bits, got, err)
		}
	}

	if _, err := deviceFormat(12); !errors.Is(err, ErrPlaybackFailed) {
		t.Errorf("expected ErrPlaybackFailed for 12-bit, got %v", err)
	}
}

func TestFillSilence(t *testing.T) {
	b := []byte{1, 2, 3}
	fillSilence(b, 8)
	if !slices.Equal(b, []byte{0x80, 0x80, 0x80}) {
		t.Errorf("8-bit silence = %v", b)
	}

	fillSilence(b, 16)
	if !slices.Equal(b, []byte{0, 0, 0}) {
		t.Errorf("16-bit silence = %v", b)
	}
}

func TestNativePlayer_MissingFile(t *testing.T) {
	err := NewNativePlayer().Play(context.Background(), "/nonexistent/preview.wav")
	if !errors.Is(err, ErrPlaybackFailed) {
		t.Errorf("expected ErrPlaybackFailed, got %v", err)
	}
}
