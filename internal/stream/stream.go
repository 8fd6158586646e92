// Package stream implements buffered, byte-order-aware access to one
// resource handle.
//
// A Stream owns its handle and layers a single reusable block window over
// it: reads are served from the window, window misses trigger one positioned
// refill, and writes go straight through to the handle while patching any
// overlap with the window. Multi-byte values honor the stream's byte order,
// big-endian until changed.
package stream

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"

	"github.com/ngladitz/scifio/internal/handle"
	"github.com/ngladitz/scifio/internal/types"
)

// DefaultBlockSize is the window size in bytes.
const DefaultBlockSize = 256 * 1024

// MaxSearchLength caps FindString and SkipString scans.
const MaxSearchLength = 512 * 1024 * 1024

// maxSearch is the active scan cap; tests lower it.
var maxSearch = int64(MaxSearchLength)

// Stream is buffered random access to the bytes of one handle.
type Stream struct {
	h     handle.Handle
	name  string
	order binary.ByteOrder
	fp    int64

	buf      []byte // window
	bufStart int64  // handle offset of buf[0]
	bufLen   int    // valid bytes in the window

	plen      int64 // cached physical length, -1 unknown
	limit     int64 // logical length override, -1 none
	markPos   int64 // -1 no mark
	markLimit int64
	closed    bool
}

// New returns a stream over h with the default block size. The stream owns
// the handle; closing the stream closes it.
func New(h handle.Handle) *Stream {
	return NewSize(h, DefaultBlockSize)
}

// NewSize returns a stream over h with an explicit block size.
func NewSize(h handle.Handle, blockSize int) *Stream {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Stream{
		h:       h,
		name:    h.Name(),
		order:   binary.BigEndian,
		buf:     make([]byte, blockSize),
		plen:    -1,
		limit:   -1,
		markPos: -1,
	}
}

// Name returns the resource identifier.
func (s *Stream) Name() string { return s.name }

// Order returns the active byte order.
func (s *Stream) Order() binary.ByteOrder { return s.order }

// SetOrder switches the byte order for subsequent multi-byte reads and
// writes.
func (s *Stream) SetOrder(o binary.ByteOrder) {
	if o != nil {
		s.order = o
	}
}

// Offset returns the current file pointer.
func (s *Stream) Offset() int64 { return s.fp }

// Seek moves the file pointer to an absolute position. Seeking past the end
// is legal; reads there report EOF and writes grow the resource.
func (s *Stream) Seek(pos int64) error {
	if s.closed {
		return types.ErrClosed
	}
	if pos < 0 {
		return &types.BoundsError{ID: s.name, What: "seek offset", Value: pos}
	}
	s.fp = pos
	return nil
}

// Skip advances the file pointer by n bytes.
func (s *Stream) Skip(n int64) error {
	if s.closed {
		return types.ErrClosed
	}
	if n < 0 {
		return &types.BoundsError{ID: s.name, What: "skip count", Value: n}
	}
	s.fp += n
	return nil
}

// Length returns the logical length: the bounded view if one is installed,
// otherwise the physical length of the handle.
func (s *Stream) Length() (int64, error) {
	if s.closed {
		return 0, types.ErrClosed
	}
	if s.limit >= 0 {
		return s.limit, nil
	}
	return s.physical()
}

func (s *Stream) physical() (int64, error) {
	if s.plen >= 0 {
		return s.plen, nil
	}
	n, err := s.h.Length()
	if err != nil {
		return 0, &types.IOError{ID: s.name, Op: "length", Err: err}
	}
	s.plen = n
	return n, nil
}

// SetLength installs a bounded view of the stream: reads at or past n
// report EOF. n must be strictly less than the physical length; a negative
// n removes the view.
func (s *Stream) SetLength(n int64) error {
	if s.closed {
		return types.ErrClosed
	}
	if n < 0 {
		s.limit = -1
		return nil
	}
	plen, err := s.physical()
	if err != nil {
		return err
	}
	if n >= plen {
		return &types.BoundsError{ID: s.name, What: "length view", Value: n, Limit: plen}
	}
	s.limit = n
	return nil
}

// Mark remembers the current position. readLimit bounds how far the stream
// may advance before Reset fails; zero means unlimited.
func (s *Stream) Mark(readLimit int64) {
	s.markPos = s.fp
	s.markLimit = readLimit
}

// Reset returns to the marked position.
func (s *Stream) Reset() error {
	if s.closed {
		return types.ErrClosed
	}
	if s.markPos < 0 {
		return &types.IOError{ID: s.name, Op: "reset", Err: errors.New("no mark set")}
	}
	if s.markLimit > 0 && s.fp-s.markPos > s.markLimit {
		return &types.IOError{ID: s.name, Op: "reset", Err: errors.New("mark limit exceeded")}
	}
	s.fp = s.markPos
	return nil
}

// Read serves bytes from the window, refilling it on a miss. Short reads
// happen at window boundaries; use ReadFull for exact counts.
func (s *Stream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, types.ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	if s.limit >= 0 {
		if s.fp >= s.limit {
			return 0, io.EOF
		}
		if rest := s.limit - s.fp; int64(len(p)) > rest {
			p = p[:rest]
		}
	}
	if s.fp < s.bufStart || s.fp >= s.bufStart+int64(s.bufLen) {
		if err := s.refill(s.fp); err != nil {
			return 0, err
		}
	}
	n := copy(p, s.buf[s.fp-s.bufStart:s.bufLen])
	s.fp += int64(n)
	return n, nil
}

// refill positions the handle and fills the window, retrying short reads
// until the window is full or the handle reports EOF.
func (s *Stream) refill(at int64) error {
	if _, err := s.h.Seek(at, io.SeekStart); err != nil {
		return &types.IOError{ID: s.name, Op: "seek", Err: err}
	}
	total := 0
	for total < len(s.buf) {
		n, err := s.h.Read(s.buf[total:])
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			return &types.IOError{ID: s.name, Op: "read", Err: err}
		}
		if n == 0 {
			break
		}
	}
	s.bufStart = at
	s.bufLen = total
	if total == 0 {
		return io.EOF
	}
	return nil
}

// ReadFull fills p exactly. Crossing the end of the stream is a
// BoundsError naming what was being read.
func (s *Stream) ReadFull(p []byte, what string) error {
	total := 0
	for total < len(p) {
		n, err := s.Read(p[total:])
		total += n
		if err == io.EOF {
			length, lerr := s.Length()
			if lerr != nil {
				length = s.fp
			}
			return &types.BoundsError{ID: s.name, What: "read of " + what, Value: s.fp + int64(len(p)-total), Limit: length}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Integer constrains the fixed-width types readable with Read.
type Integer interface {
	uint8 | uint16 | uint32 | uint64 | int8 | int16 | int32 | int64
}

// Read reads one value of type T at the current position in the stream's
// byte order. what names the value for error messages.
func Read[T Integer](s *Stream, what string) (T, error) {
	var zero T
	var size int
	switch any(zero).(type) {
	case uint8, int8:
		size = 1
	case uint16, int16:
		size = 2
	case uint32, int32:
		size = 4
	case uint64, int64:
		size = 8
	}

	var scratch [8]byte
	b := scratch[:size]
	if err := s.ReadFull(b, what); err != nil {
		return zero, err
	}

	var raw uint64
	switch size {
	case 1:
		raw = uint64(b[0])
	case 2:
		raw = uint64(s.order.Uint16(b))
	case 4:
		raw = uint64(s.order.Uint32(b))
	case 8:
		raw = s.order.Uint64(b)
	}
	return T(raw), nil
}

// ReadFloat32 reads one IEEE 754 single in the stream's byte order.
func (s *Stream) ReadFloat32(what string) (float32, error) {
	u, err := Read[uint32](s, what)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}

// ReadFloat64 reads one IEEE 754 double in the stream's byte order.
func (s *Stream) ReadFloat64(what string) (float64, error) {
	u, err := Read[uint64](s, what)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

// ReadString reads exactly n bytes as a string.
func (s *Stream) ReadString(n int, what string) (string, error) {
	b := make([]byte, n)
	if err := s.ReadFull(b, what); err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadCString reads up to and including the next NUL byte and returns the
// text before it.
func (s *Stream) ReadCString() (string, error) {
	text, err := s.FindString("\x00")
	if err != nil {
		return text, err
	}
	return text[:len(text)-1], nil
}

// ReadLine reads up to and including the next newline and returns the line
// without its line ending. The final unterminated line is returned as-is;
// io.EOF is reported only when no bytes remain.
func (s *Stream) ReadLine() (string, error) {
	text, err := s.FindString("\n")
	if err == io.EOF {
		if text == "" {
			return "", io.EOF
		}
		return text, nil
	}
	if err != nil {
		return "", err
	}
	line := text[:len(text)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line, nil
}

// FindString scans forward for the earliest of the terminators and returns
// the text read, including the terminator. The stream is left positioned
// immediately after the terminator. Reaching EOF first returns the
// remaining text along with io.EOF; scanning past MaxSearchLength fails
// with ErrSearchLimit.
func (s *Stream) FindString(terminators ...string) (string, error) {
	return s.findString(true, terminators)
}

// SkipString is FindString without retaining the text.
func (s *Stream) SkipString(terminators ...string) error {
	_, err := s.findString(false, terminators)
	return err
}

func (s *Stream) findString(save bool, terminators []string) (string, error) {
	maxT := 0
	for _, t := range terminators {
		if len(t) > maxT {
			maxT = len(t)
		}
	}
	if maxT == 0 {
		return "", nil
	}

	block := make([]byte, len(s.buf))
	var acc []byte
	var tail []byte
	scanned := int64(0)
	for {
		n, err := s.Read(block)
		if n > 0 {
			scanned += int64(n)
			// The search window is the carried tail plus the new
			// chunk, so terminators spanning chunks still match.
			window := make([]byte, 0, len(tail)+n)
			window = append(window, tail...)
			window = append(window, block[:n]...)
			if save {
				acc = append(acc, block[:n]...)
			}

			best, bestEnd := -1, 0
			for _, t := range terminators {
				if i := bytes.Index(window, []byte(t)); i >= 0 && (best < 0 || i < best) {
					best, bestEnd = i, i+len(t)
				}
			}
			if best >= 0 {
				back := int64(len(window) - bestEnd)
				s.fp -= back
				if save {
					return string(acc[:int64(len(acc))-back]), nil
				}
				return "", nil
			}

			if keep := maxT - 1; keep > 0 && len(window) > keep {
				tail = window[len(window)-keep:]
			} else {
				tail = window
			}
		}
		if err == io.EOF {
			if save {
				return string(acc), io.EOF
			}
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}
		if scanned >= maxSearch {
			return "", &types.IOError{ID: s.name, Op: "scan", Err: types.ErrSearchLimit}
		}
	}
}

// Close closes the stream and its handle. Close is idempotent.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.h.Close()
}
