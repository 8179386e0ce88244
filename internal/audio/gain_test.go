package audio

import (
	"errors"
	"testing"
)

func TestGain(t *testing.T) {
	in := Waveform{SampleRate: 8000, Channels: 1, BitDepth: 16, Data: make([]byte, 6)}
	writeSample(in.Data[0:], 16, 1000)
	writeSample(in.Data[2:], 16, -2000)
	writeSample(in.Data[4:], 16, 30000)

	half, err := Gain(in, 0.5)
	if err != nil {
		t.Fatalf("Gain(0.5) error = %v", err)
	}
	want := []float64{500, -1000, 15000}
	for i, w := range want {
		if got := readSample(half.Data[i*2:], 16); got != w {
			t.Errorf("Gain(0.5) sample %d = %v, want %v", i, got, w)
		}
	}

	loud, err := Gain(in, 2)
	if err != nil {
		t.Fatalf("Gain(2) error = %v", err)
	}
	if got := readSample(loud.Data[4:], 16); got != 32767 {
		t.Errorf("Gain(2) did not saturate: %v", got)
	}

	if got := readSample(in.Data[0:], 16); got != 1000 {
		t.Errorf("input mutated: %v", got)
	}
}

func TestGain_Silence8Bit(t *testing.T) {
	in := Waveform{SampleRate: 8000, Channels: 1, BitDepth: 8, Data: []byte{0xFF, 0x00, 0x80}}
	out, err := Gain(in, 0)
	if err != nil {
		t.Fatalf("Gain(0) error = %v", err)
	}
	for i, b := range out.Data {
		if b != 0x80 {
			t.Errorf("byte %d = %#x, want 0x80", i, b)
		}
	}
}

func TestGain_Negative(t *testing.T) {
	in := Waveform{SampleRate: 8000, Channels: 1, BitDepth: 16}
	if _, err := Gain(in, -1); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Gain(-1) error = %v, want ErrInvalidParameter", err)
	}
}
