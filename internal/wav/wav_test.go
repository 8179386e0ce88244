package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestPutLE(t *testing.T) {
	b16 := make([]byte, 2)
	PutLE16(b16, 0x1234)
	if !bytes.Equal(b16, []byte{0x34, 0x12}) {
		t.Errorf("PutLE16(0x1234) = %v", b16)
	}

	b32 := make([]byte, 4)
	PutLE32(b32, 0x12345678)
	if !bytes.Equal(b32, []byte{0x78, 0x56, 0x34, 0x12}) {
		t.Errorf("PutLE32(0x12345678) = %v", b32)
	}
}

func TestWrapRawPCM_Header(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	data := WrapRawPCM(pcm, 44100, 2, 16)

	if len(data) != HeaderSize+len(pcm) {
		t.Fatalf("length = %d, want %d", len(data), HeaderSize+len(pcm))
	}

	checks := []struct {
		name string
		got  []byte
		want string
	}{
		{"riff", data[0:4], "RIFF"},
		{"wave", data[8:12], "WAVE"},
		{"fmt", data[12:16], "fmt "},
		{"data", data[36:40], "data"},
	}
	for _, c := range checks {
		if string(c.got) != c.want {
			t.Errorf("%s tag = %q, want %q", c.name, c.got, c.want)
		}
	}

	if got := binary.LittleEndian.Uint32(data[4:8]); got != uint32(36+len(pcm)) {
		t.Errorf("riff size = %d, want %d", got, 36+len(pcm))
	}
	if got := binary.LittleEndian.Uint32(data[28:32]); got != 176400 {
		t.Errorf("byte rate = %d, want 176400", got)
	}
	if got := binary.LittleEndian.Uint16(data[32:34]); got != 4 {
		t.Errorf("block align = %d, want 4", got)
	}
	if !bytes.Equal(data[HeaderSize:], pcm) {
		t.Error("PCM payload not preserved")
	}
}

func TestParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		rate     int
		channels int
		bits     int
	}{
		{"piper mono", PiperSampleRate, PiperChannels, PiperBitsPerSample},
		{"cd stereo", 44100, 2, 16},
		{"8-bit", 8000, 1, 8},
		{"24-bit", 48000, 2, 24},
		{"32-bit", 16000, 1, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := CreateMinimal(10, tt.rate, tt.channels, tt.bits)
			h, pcm, err := Parse(data)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if h.SampleRate != tt.rate || h.Channels != tt.channels || h.BitsPerSample != tt.bits {
				t.Errorf("header = %+v", h)
			}
			if want := 10 * tt.channels * tt.bits / 8; len(pcm) != want || h.DataSize != want {
				t.Errorf("data = %d bytes (header %d), want %d", len(pcm), h.DataSize, want)
			}
		})
	}
}

func TestParse_SkipsUnknownChunks(t *testing.T) {
	base := WrapRawPCM([]byte{1, 0, 2, 0}, 22050, 1, 16)

	// Splice an odd-sized LIST chunk (with pad byte) between fmt and data.
	list := []byte("LIST\x03\x00\x00\x00abc\x00")
	var buf bytes.Buffer
	buf.Write(base[:36])
	buf.Write(list)
	buf.Write(base[36:])
	data := buf.Bytes()
	PutLE32(data[4:8], uint32(len(data)-8))

	h, pcm, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if h.SampleRate != 22050 {
		t.Errorf("sample rate = %d", h.SampleRate)
	}
	if !bytes.Equal(pcm, []byte{1, 0, 2, 0}) {
		t.Errorf("pcm = %v", pcm)
	}
}

func TestParse_TruncatedDataChunk(t *testing.T) {
	data := WrapRawPCM([]byte{1, 0, 2, 0, 3, 0}, 22050, 1, 16)
	// Streaming writers leave a placeholder size behind.
	PutLE32(data[40:44], 0x7FFFFFFF)

	_, pcm, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(pcm) != 6 {
		t.Errorf("pcm length = %d, want 6", len(pcm))
	}
}

func TestParse_Errors(t *testing.T) {
	float := WrapRawPCM(make([]byte, 8), 44100, 1, 32)
	PutLE16(float[20:22], 3) // IEEE float

	noData := WrapRawPCM(nil, 44100, 1, 16)[:36]

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrNotWAV},
		{"garbage", []byte("not a wav file at all"), ErrNotWAV},
		{"float", float, ErrUnsupportedEncoding},
		{"no data", noData, ErrMissingChunk},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateMinimal_Silence(t *testing.T) {
	data := CreateMinimal(100, 44100, 2, 16)
	if len(data) != HeaderSize+100*2*2 {
		t.Fatalf("length = %d", len(data))
	}
	for i := HeaderSize; i < len(data); i++ {
		if data[i] != 0 {
			t.Fatalf("non-zero byte at %d", i)
		}
	}

	eight := CreateMinimal(4, 8000, 1, 8)
	for i := HeaderSize; i < len(eight); i++ {
		if eight[i] != 0x80 {
			t.Fatalf("8-bit silence should be 0x80, got %#x at %d", eight[i], i)
		}
	}
}

func TestCreateMinimalPiper(t *testing.T) {
	h, _, err := Parse(CreateMinimalPiper(100))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if h.SampleRate != PiperSampleRate || h.Channels != PiperChannels || h.BitsPerSample != PiperBitsPerSample {
		t.Errorf("header = %+v", h)
	}
}
