package audio

import "math"

// sampleRange returns the inclusive integer range of a sample of the given depth.
func sampleRange(bits int) (lo, hi float64) {
	switch bits {
	case 8:
		return -128, 127
	case 16:
		return math.MinInt16, math.MaxInt16
	case 24:
		return -(1 << 23), 1<<23 - 1
	default:
		return math.MinInt32, math.MaxInt32
	}
}

// readSample decodes one little-endian sample as a signed value.
func readSample(b []byte, bits int) float64 {
	switch bits {
	case 8:
		return float64(int(b[0]) - 128)
	case 16:
		return float64(int16(uint16(b[0]) | uint16(b[1])<<8))
	case 24:
		v := int32(uint32(b[0])<<8|uint32(b[1])<<16|uint32(b[2])<<24) >> 8
		return float64(v)
	default:
		return float64(int32(uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24))
	}
}

// writeSample rounds and saturates v into the sample at b.
func writeSample(b []byte, bits int, v float64) {
	lo, hi := sampleRange(bits)
	v = math.Round(v)
	if v > hi {
		v = hi
	} else if v < lo {
		v = lo
	}

	switch bits {
	case 8:
		b[0] = byte(int(v) + 128)
	case 16:
		u := uint16(int16(v))
		b[0] = byte(u)
		b[1] = byte(u >> 8)
	case 24:
		u := uint32(int32(v))
		b[0] = byte(u)
		b[1] = byte(u >> 8)
		b[2] = byte(u >> 16)
	default:
		u := uint32(int32(v))
		b[0] = byte(u)
		b[1] = byte(u >> 8)
		b[2] = byte(u >> 16)
		b[3] = byte(u >> 24)
	}
}
