package audio

import "io"

// FrameReader hands out PCM in whole frames, as audio device callbacks
// request it. The tail that does not fill a request is returned as-is.
type FrameReader struct {
	data       []byte
	blockAlign int
	offset     int
}

// NewFrameReader wraps the samples of w.
func NewFrameReader(w Waveform) *FrameReader {
	align := w.BlockAlign()
	if align <= 0 {
		align = 1
	}
	return &FrameReader{data: w.Data, blockAlign: align}
}

// ReadFrames copies up to n frames into dst and returns the number of frames copied.
// It returns io.EOF once the data is exhausted.
func (r *FrameReader) ReadFrames(dst []byte, n int) (int, error) {
	if r.offset >= len(r.data) {
		return 0, io.EOF
	}
	want := n * r.blockAlign
	if want > len(dst) {
		want = len(dst) - len(dst)%r.blockAlign
	}
	copied := copy(dst[:want], r.data[r.offset:])
	r.offset += copied
	return copied / r.blockAlign, nil
}

// Reset rewinds the reader.
func (r *FrameReader) Reset() {
	r.offset = 0
}

// Remaining returns the number of bytes left.
func (r *FrameReader) Remaining() int {
	return len(r.data) - r.offset
}
