package audio

import (
	"errors"
	"testing"
	"time"
)

func TestResample_FrameCounts(t *testing.T) {
	tests := []struct {
		from, to   int
		inFrames   int
		wantFrames int
	}{
		{22050, 44100, 100, 200},
		{44100, 22050, 100, 50},
		{48000, 44100, 480, 441},
		{11025, 44100, 3, 12},
		{44100, 8000, 1, 1},
	}

	for _, tt := range tests {
		in := Waveform{SampleRate: tt.from, Channels: 1, BitDepth: 16, Data: make([]byte, tt.inFrames*2)}
		out, err := Resample(in, tt.to)
		if err != nil {
			t.Fatalf("Resample(%d->%d) error = %v", tt.from, tt.to, err)
		}
		if out.Frames() != tt.wantFrames {
			t.Errorf("Resample(%d->%d, %d frames) = %d frames, want %d",
				tt.from, tt.to, tt.inFrames, out.Frames(), tt.wantFrames)
		}
	}
}

func TestResample_InterpolatesLinearly(t *testing.T) {
	// Two frames, 0 and 1000, upsampled 2x: midpoint lands at 500.
	in := Waveform{SampleRate: 2, Channels: 1, BitDepth: 16, Data: make([]byte, 4)}
	writeSample(in.Data[2:], 16, 1000)

	out, err := Resample(in, 4)
	if err != nil {
		t.Fatalf("Resample() error = %v", err)
	}

	want := []float64{0, 500, 1000, 1000}
	for i, w := range want {
		if got := readSample(out.Data[i*2:], 16); got != w {
			t.Errorf("frame %d = %v, want %v", i, got, w)
		}
	}
}

func TestResample_StereoChannelsStaySeparate(t *testing.T) {
	in := Waveform{SampleRate: 100, Channels: 2, BitDepth: 16, Data: make([]byte, 10*4)}
	for i := 0; i < 10; i++ {
		writeSample(in.Data[i*4:], 16, 1000)
		writeSample(in.Data[i*4+2:], 16, -1000)
	}

	out, err := Resample(in, 333)
	if err != nil {
		t.Fatalf("Resample() error = %v", err)
	}
	for i := 0; i < out.Frames(); i++ {
		l := readSample(out.Data[i*4:], 16)
		r := readSample(out.Data[i*4+2:], 16)
		if l != 1000 || r != -1000 {
			t.Fatalf("frame %d = (%v, %v), want (1000, -1000)", i, l, r)
		}
	}
}

func TestResample_AllBitDepths(t *testing.T) {
	for _, bits := range []int{8, 16, 24, 32} {
		in := Waveform{SampleRate: 8000, Channels: 1, BitDepth: bits, Data: make([]byte, 80*bits/8)}
		out, err := Resample(in, StandardSampleRate)
		if err != nil {
			t.Fatalf("bits=%d: Resample() error = %v", bits, err)
		}
		if out.BitDepth != bits || out.Frames() != 441 {
			t.Errorf("bits=%d: got %d-bit, %d frames", bits, out.BitDepth, out.Frames())
		}
	}
}

func TestResample_SameRateCopies(t *testing.T) {
	in := sine(44100, 1000, 10*time.Millisecond)
	out, err := Resample(in, 44100)
	if err != nil {
		t.Fatalf("Resample() error = %v", err)
	}
	if string(out.Data) != string(in.Data) {
		t.Error("same-rate resample changed data")
	}
	if &out.Data[0] == &in.Data[0] {
		t.Error("same-rate resample aliases input")
	}
}

func TestResample_InvalidTarget(t *testing.T) {
	in := sine(22050, 440, 10*time.Millisecond)
	if _, err := Resample(in, 0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("Resample(0) error = %v, want ErrInvalidParameter", err)
	}
}
