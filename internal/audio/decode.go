package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"

	gowav "github.com/go-audio/wav"

	"github.com/dgnsrekt/speakwave/internal/wav"
)

// decodeWAV reads integer PCM through go-audio/wav and packs the samples
// back into little-endian bytes of the source width.
func decodeWAV(data []byte) (Waveform, error) {
	d := gowav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return Waveform{}, wav.ErrNotWAV
	}
	if d.WavAudioFormat != wav.FormatPCM {
		return Waveform{}, fmt.Errorf("%w: format code %d", wav.ErrUnsupportedEncoding, d.WavAudioFormat)
	}
	bitDepth := int(d.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return Waveform{}, fmt.Errorf("%w: %d bits per sample", wav.ErrUnsupportedEncoding, bitDepth)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return Waveform{}, err
	}

	channels := int(d.NumChans)
	if channels < 1 || d.SampleRate < 1 {
		return Waveform{}, fmt.Errorf("%w: channels=%d sample_rate=%d", wav.ErrUnsupportedEncoding, channels, d.SampleRate)
	}
	samples := buf.Data[:len(buf.Data)-len(buf.Data)%channels]
	width := bitDepth / 8
	out := make([]byte, 0, len(samples)*width)
	var tmp [4]byte
	for _, v := range samples {
		// The low bytes carry the sample for every width; 8-bit stays unsigned.
		binary.LittleEndian.PutUint32(tmp[:], uint32(int32(v)))
		out = append(out, tmp[:width]...)
	}

	return Waveform{
		SampleRate: int(d.SampleRate),
		Channels:   channels,
		BitDepth:   bitDepth,
		Data:       out,
	}, nil
}
