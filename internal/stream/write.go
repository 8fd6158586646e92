package stream

import (
	"io"
	"math"

	"github.com/ngladitz/scifio/internal/types"
)

// Write writes p at the current position, growing the resource when the
// position lies past the end. The window is patched where the write
// overlaps it so later reads observe the new bytes.
func (s *Stream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, types.ErrClosed
	}
	if !s.h.Writable() {
		return 0, &types.IOError{ID: s.name, Op: "write", Err: types.ErrReadOnly}
	}
	if len(p) == 0 {
		return 0, nil
	}
	if _, err := s.h.Seek(s.fp, io.SeekStart); err != nil {
		return 0, &types.IOError{ID: s.name, Op: "seek", Err: err}
	}
	n, err := s.h.Write(p)
	if n > 0 {
		s.patchWindow(s.fp, p[:n])
		s.fp += int64(n)
		if s.plen >= 0 && s.fp > s.plen {
			s.plen = s.fp
		}
	}
	if err != nil {
		return n, &types.IOError{ID: s.name, Op: "write", Err: err}
	}
	return n, nil
}

func (s *Stream) patchWindow(at int64, p []byte) {
	lo := at
	if s.bufStart > lo {
		lo = s.bufStart
	}
	hi := at + int64(len(p))
	if end := s.bufStart + int64(s.bufLen); end < hi {
		hi = end
	}
	if lo < hi {
		copy(s.buf[lo-s.bufStart:], p[lo-at:hi-at])
	}
}

// Write writes one value of type T at the current position in the stream's
// byte order.
func Write[T Integer](s *Stream, v T) error {
	var scratch [8]byte
	var b []byte
	switch val := any(v).(type) {
	case uint8:
		scratch[0] = val
		b = scratch[:1]
	case int8:
		scratch[0] = uint8(val)
		b = scratch[:1]
	case uint16:
		s.order.PutUint16(scratch[:2], val)
		b = scratch[:2]
	case int16:
		s.order.PutUint16(scratch[:2], uint16(val))
		b = scratch[:2]
	case uint32:
		s.order.PutUint32(scratch[:4], val)
		b = scratch[:4]
	case int32:
		s.order.PutUint32(scratch[:4], uint32(val))
		b = scratch[:4]
	case uint64:
		s.order.PutUint64(scratch[:8], val)
		b = scratch[:8]
	case int64:
		s.order.PutUint64(scratch[:8], uint64(val))
		b = scratch[:8]
	}
	_, err := s.Write(b)
	return err
}

// WriteFloat32 writes one IEEE 754 single in the stream's byte order.
func (s *Stream) WriteFloat32(f float32) error {
	return Write(s, math.Float32bits(f))
}

// WriteFloat64 writes one IEEE 754 double in the stream's byte order.
func (s *Stream) WriteFloat64(f float64) error {
	return Write(s, math.Float64bits(f))
}

// WriteString writes the bytes of str.
func (s *Stream) WriteString(str string) error {
	_, err := s.Write([]byte(str))
	return err
}

// WriteChars writes str as two-byte characters in the stream's byte order.
func (s *Stream) WriteChars(str string) error {
	for _, r := range str {
		if err := Write(s, uint16(r)); err != nil {
			return err
		}
	}
	return nil
}
