package audio

import (
	"fmt"
	"math"
)

// Resample converts w to targetRate by linear interpolation between
// neighbouring frames of each channel. Channel count and bit depth are kept.
// A non-empty input always yields at least one frame. w is not modified.
func Resample(w Waveform, targetRate int) (Waveform, error) {
	if err := w.Validate(); err != nil {
		return Waveform{}, err
	}
	if targetRate <= 0 {
		return Waveform{}, fmt.Errorf("%w: target rate %d", ErrInvalidParameter, targetRate)
	}

	out := Waveform{
		SampleRate: targetRate,
		Channels:   w.Channels,
		BitDepth:   w.BitDepth,
	}

	in := w.Frames()
	if in == 0 {
		out.Data = []byte{}
		return out, nil
	}

	if targetRate == w.SampleRate {
		return Waveform{
			SampleRate: targetRate,
			Channels:   w.Channels,
			BitDepth:   w.BitDepth,
			Data:       append([]byte(nil), w.Data...),
		}, nil
	}

	frames := int(math.Round(float64(in) * float64(targetRate) / float64(w.SampleRate)))
	if frames < 1 {
		frames = 1
	}

	align := w.BlockAlign()
	width := w.BytesPerSample()
	step := float64(w.SampleRate) / float64(targetRate)
	out.Data = make([]byte, frames*align)

	for i := 0; i < frames; i++ {
		pos := float64(i) * step
		j := int(pos)
		frac := pos - float64(j)
		if j >= in-1 {
			j = in - 1
			frac = 0
		}

		src := w.Data[j*align:]
		dst := out.Data[i*align:]
		for ch := 0; ch < w.Channels; ch++ {
			off := ch * width
			a := readSample(src[off:], w.BitDepth)
			v := a
			if frac > 0 {
				b := readSample(src[align+off:], w.BitDepth)
				v = a + (b-a)*frac
			}
			writeSample(dst[off:], w.BitDepth, v)
		}
	}

	return out, nil
}
