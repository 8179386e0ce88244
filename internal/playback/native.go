package playback

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/dgnsrekt/speakwave/internal/audio"
)

// NativePlayer plays through the default output device with miniaudio.
type NativePlayer struct{}

// NewNativePlayer returns a player for the default output device.
// The audio backend is initialised on each Play.
func NewNativePlayer() *NativePlayer {
	return &NativePlayer{}
}

// Name returns the player identifier.
func (n *NativePlayer) Name() string {
	return "native"
}

// Play decodes the WAV file and streams it to the device.
func (n *NativePlayer) Play(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	}
	w, err := audio.FromWAV(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	}
	if w.Frames() == 0 {
		return nil
	}
	return playWaveform(ctx, w)
}

// deviceFormat maps a PCM bit depth onto a miniaudio sample format.
func deviceFormat(bitDepth int) (malgo.FormatType, error) {
	switch bitDepth {
	case 8:
		return malgo.FormatU8, nil
	case 16:
		return malgo.FormatS16, nil
	case 24:
		return malgo.FormatS24, nil
	case 32:
		return malgo.FormatS32, nil
	default:
		return malgo.FormatUnknown, fmt.Errorf("%w: unsupported bit depth %d", ErrPlaybackFailed, bitDepth)
	}
}

func playWaveform(ctx context.Context, w audio.Waveform) error {
	format, err := deviceFormat(w.BitDepth)
	if err != nil {
		return err
	}

	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to initialize malgo context: %v", ErrNoPlayerAvailable, err)
	}
	defer func() {
		_ = mctx.Uninit()
		mctx.Free()
	}()

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = uint32(w.Channels)
	deviceConfig.SampleRate = uint32(w.SampleRate)

	frames := audio.NewFrameReader(w)
	done := make(chan struct{})
	var once sync.Once

	// The callback runs on the device thread; it pads the final period
	// with silence and signals once the reader is drained.
	var callbacks malgo.DeviceCallbacks
	callbacks.Data = func(pOutput, pInput []byte, frameCount uint32) {
		n, err := frames.ReadFrames(pOutput, int(frameCount))
		fillSilence(pOutput[n*w.BlockAlign():], w.BitDepth)
		if err == io.EOF {
			once.Do(func() { close(done) })
		}
	}

	device, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("%w: failed to initialize device: %v", ErrPlaybackFailed, err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("%w: failed to start device: %v", ErrPlaybackFailed, err)
	}

	select {
	case <-done:
	case <-ctx.Done():
	}

	if err := device.Stop(); err != nil {
		return fmt.Errorf("%w: failed to stop device: %v", ErrPlaybackFailed, err)
	}
	return ctx.Err()
}

// fillSilence writes the zero level for bitDepth; unsigned 8-bit silence is 0x80.
func fillSilence(b []byte, bitDepth int) {
	var v byte
	if bitDepth == 8 {
		v = 0x80
	}
	for i := range b {
		b[i] = v
	}
}
