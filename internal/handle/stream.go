package handle

import (
	"fmt"
	"io"

	"github.com/ngladitz/scifio/internal/types"
)

// Stream is the base for handles whose backing store is a one-way byte
// stream: decompressors, archive entries, remote object bodies.
//
// Forward seeks discard intervening bytes. Backward seeks close the current
// stream and replay from the start, so their cost is proportional to the
// target offset. The length is discovered lazily by streaming to the end
// once, unless the backend reported it up front.
type Stream struct {
	name   string
	open   func() (io.ReadCloser, error)
	rc     io.ReadCloser
	fp     int64 // logical position
	read   int64 // bytes consumed from rc
	length int64 // -1 until known
	closed bool
}

// NewStream returns a forward-only handle. open must produce a fresh reader
// positioned at the start of the logical content; it is invoked on first
// use and again after every backward seek.
func NewStream(name string, open func() (io.ReadCloser, error)) *Stream {
	return &Stream{name: name, open: open, length: -1}
}

// Name returns the resource identifier.
func (s *Stream) Name() string { return s.name }

// Writable reports false; stream-backed handles are read-only.
func (s *Stream) Writable() bool { return false }

func (s *Stream) Write(p []byte) (int, error) {
	return 0, types.ErrReadOnly
}

// setLength records a backend-reported length, skipping the drain that
// Length would otherwise perform.
func (s *Stream) setLength(n int64) {
	s.length = n
}

// Length returns the logical length, streaming to the end to measure it
// when the backend did not report one.
func (s *Stream) Length() (int64, error) {
	if s.closed {
		return 0, types.ErrClosed
	}
	if s.length >= 0 {
		return s.length, nil
	}
	if err := s.sync(); err != nil && err != io.EOF {
		return 0, err
	}
	n, err := io.Copy(io.Discard, s.rc)
	s.read += n
	if err != nil {
		return 0, err
	}
	s.length = s.read
	return s.length, nil
}

func (s *Stream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, types.ErrClosed
	}
	if s.length >= 0 && s.fp >= s.length {
		return 0, io.EOF
	}
	if err := s.sync(); err != nil {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, err
	}
	n, err := s.rc.Read(p)
	s.read += int64(n)
	s.fp += int64(n)
	if err == io.EOF {
		if s.length < 0 {
			s.length = s.read
		}
		if n > 0 {
			return n, nil
		}
	}
	return n, err
}

func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, types.ErrClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.fp + offset
	case io.SeekEnd:
		length, err := s.Length()
		if err != nil {
			return 0, err
		}
		abs = length + offset
	default:
		return 0, fmt.Errorf("%s: invalid seek whence %d", s.name, whence)
	}
	if abs < 0 {
		return 0, &types.BoundsError{ID: s.name, What: "seek offset", Value: abs}
	}
	// The actual restart or discard happens on the next read.
	s.fp = abs
	return abs, nil
}

// sync aligns the underlying stream with the logical position, restarting
// from zero when the position moved backward.
func (s *Stream) sync() error {
	if s.rc != nil && s.fp < s.read {
		if err := s.restart(); err != nil {
			return err
		}
	}
	if s.rc == nil {
		rc, err := s.open()
		if err != nil {
			return err
		}
		s.rc = rc
		s.read = 0
	}
	if s.fp > s.read {
		n, err := io.CopyN(io.Discard, s.rc, s.fp-s.read)
		s.read += n
		if err != nil {
			if err == io.EOF && s.length < 0 {
				s.length = s.read
			}
			return err
		}
	}
	return nil
}

func (s *Stream) restart() error {
	err := s.rc.Close()
	s.rc = nil
	s.read = 0
	return err
}

// Close releases the underlying stream. Close is idempotent.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.rc != nil {
		err := s.rc.Close()
		s.rc = nil
		return err
	}
	return nil
}
