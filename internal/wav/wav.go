// Package wav reads and writes RIFF/WAVE containers holding PCM audio.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// WAV format constants.
const (
	// HeaderSize is the size of a canonical 44-byte WAV header.
	HeaderSize = 44

	// FormatPCM is the audio format code for uncompressed PCM.
	FormatPCM = 1

	// FormatExtensible is WAVE_FORMAT_EXTENSIBLE; the sub-format GUID carries the real code.
	FormatExtensible = 0xFFFE
)

// Piper TTS raw output format.
const (
	PiperSampleRate    = 22050
	PiperChannels      = 1
	PiperBitsPerSample = 16
)

var (
	// ErrNotWAV is returned when the data has no RIFF/WAVE signature.
	ErrNotWAV = errors.New("not a RIFF/WAVE file")
	// ErrUnsupportedEncoding is returned for non-PCM payloads.
	ErrUnsupportedEncoding = errors.New("unsupported WAV encoding")
	// ErrMissingChunk is returned when the fmt or data chunk is absent.
	ErrMissingChunk = errors.New("missing WAV chunk")
)

// Header describes the PCM layout of a WAV file.
type Header struct {
	AudioFormat   uint16
	Channels      int
	SampleRate    int
	ByteRate      int
	BlockAlign    int
	BitsPerSample int
	DataSize      int
}

// WrapRawPCM adds a canonical 44-byte WAV header to raw PCM data.
func WrapRawPCM(pcm []byte, sampleRate, channels, bitsPerSample int) []byte {
	dataSize := len(pcm)
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	header := make([]byte, HeaderSize, HeaderSize+dataSize)

	// RIFF header
	copy(header[0:4], "RIFF")
	PutLE32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")

	// fmt subchunk
	copy(header[12:16], "fmt ")
	PutLE32(header[16:20], 16)
	PutLE16(header[20:22], FormatPCM)
	PutLE16(header[22:24], uint16(channels))
	PutLE32(header[24:28], uint32(sampleRate))
	PutLE32(header[28:32], uint32(byteRate))
	PutLE16(header[32:34], uint16(blockAlign))
	PutLE16(header[34:36], uint16(bitsPerSample))

	// data subchunk
	copy(header[36:40], "data")
	PutLE32(header[40:44], uint32(dataSize))

	return append(header, pcm...)
}

// Parse walks the RIFF chunks of a WAV file and returns its PCM header and
// a slice of data aliasing the sample bytes. Unknown chunks (LIST, fact, ...)
// are skipped. A data chunk whose declared size runs past the end of the
// buffer is truncated to what is present, which is what streaming writers
// such as espeak leave behind.
func Parse(data []byte) (Header, []byte, error) {
	var h Header

	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return h, nil, ErrNotWAV
	}

	var (
		haveFmt bool
		pcm     []byte
		found   bool
	)

	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		end := body + size
		if size < 0 || end > len(data) {
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return h, nil, fmt.Errorf("%w: fmt chunk too short (%d bytes)", ErrNotWAV, end-body)
			}
			chunk := data[body:end]
			h.AudioFormat = binary.LittleEndian.Uint16(chunk[0:2])
			h.Channels = int(binary.LittleEndian.Uint16(chunk[2:4]))
			h.SampleRate = int(binary.LittleEndian.Uint32(chunk[4:8]))
			h.ByteRate = int(binary.LittleEndian.Uint32(chunk[8:12]))
			h.BlockAlign = int(binary.LittleEndian.Uint16(chunk[12:14]))
			h.BitsPerSample = int(binary.LittleEndian.Uint16(chunk[14:16]))

			if h.AudioFormat == FormatExtensible && len(chunk) >= 26 {
				// First two bytes of the sub-format GUID hold the format code.
				h.AudioFormat = binary.LittleEndian.Uint16(chunk[24:26])
			}
			haveFmt = true
		case "data":
			pcm = data[body:end]
			found = true
		}

		if found && haveFmt {
			break
		}

		// Chunks are word aligned.
		next := body + size
		if size%2 == 1 {
			next++
		}
		if next <= offset {
			break
		}
		offset = next
	}

	if !haveFmt {
		return h, nil, fmt.Errorf("%w: fmt", ErrMissingChunk)
	}
	if !found {
		return h, nil, fmt.Errorf("%w: data", ErrMissingChunk)
	}
	if h.AudioFormat != FormatPCM {
		return h, nil, fmt.Errorf("%w: format code %d", ErrUnsupportedEncoding, h.AudioFormat)
	}
	if h.Channels < 1 || h.SampleRate < 1 {
		return h, nil, fmt.Errorf("%w: channels=%d sample_rate=%d", ErrUnsupportedEncoding, h.Channels, h.SampleRate)
	}
	switch h.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return h, nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedEncoding, h.BitsPerSample)
	}

	// Drop a trailing partial frame.
	align := h.Channels * h.BitsPerSample / 8
	pcm = pcm[:len(pcm)-len(pcm)%align]
	h.DataSize = len(pcm)

	return h, pcm, nil
}

// PutLE16 writes a uint16 value in little-endian format to a byte slice.
func PutLE16(b []byte, v uint16) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
}

// PutLE32 writes a uint32 value in little-endian format to a byte slice.
func PutLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// CreateMinimal creates a valid WAV file of silence with the given number of frames.
func CreateMinimal(numSamples, sampleRate, channels, bitsPerSample int) []byte {
	dataSize := numSamples * channels * (bitsPerSample / 8)
	pcm := make([]byte, dataSize)
	if bitsPerSample == 8 {
		// 8-bit PCM is unsigned; silence sits at the midpoint.
		for i := range pcm {
			pcm[i] = 0x80
		}
	}
	return WrapRawPCM(pcm, sampleRate, channels, bitsPerSample)
}

// CreateMinimalPiper creates a silent WAV matching Piper's output format.
func CreateMinimalPiper(numSamples int) []byte {
	return CreateMinimal(numSamples, PiperSampleRate, PiperChannels, PiperBitsPerSample)
}
