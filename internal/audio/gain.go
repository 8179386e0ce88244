package audio

import "fmt"

// Gain scales every sample by factor, saturating at the sample range.
// Engines without a native volume control use it to apply the requested volume.
func Gain(w Waveform, factor float64) (Waveform, error) {
	if err := w.Validate(); err != nil {
		return Waveform{}, err
	}
	if factor < 0 {
		return Waveform{}, fmt.Errorf("%w: gain %v", ErrInvalidParameter, factor)
	}

	out := w.Clone()
	if factor == 1 {
		return out, nil
	}

	width := w.BytesPerSample()
	for off := 0; off+width <= len(out.Data); off += width {
		writeSample(out.Data[off:], w.BitDepth, readSample(out.Data[off:], w.BitDepth)*factor)
	}
	return out, nil
}
