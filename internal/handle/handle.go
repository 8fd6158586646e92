// Package handle provides byte-level access to image resources.
//
// A Handle is one resource's bytes behind a seekable reader/writer. Local
// files and in-memory buffers support random access in both directions;
// compressed streams, archive entries, and remote objects are forward-only
// underneath and emulate backward seeks by replaying from the start.
package handle

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ngladitz/scifio/internal/types"
)

// Handle is random or sequential access to one resource's bytes.
//
// Implementations report their logical length and whether writes are
// supported. Reads past the end return io.EOF; writes to read-only handles
// fail with types.ErrReadOnly.
type Handle interface {
	io.ReadWriteSeeker
	io.Closer

	// Name returns the resource identifier the handle was opened from.
	Name() string

	// Length returns the logical length of the resource in bytes.
	Length() (int64, error)

	// Writable reports whether the handle accepts writes.
	Writable() bool
}

// Bytes is a growable in-memory handle.
//
// Writing past the end extends the buffer; the gap between the old end and
// the write position is zero-filled.
type Bytes struct {
	name   string
	data   []byte
	off    int64
	closed bool
}

// NewBytes returns a handle over data. The handle takes ownership of the
// slice.
func NewBytes(name string, data []byte) *Bytes {
	return &Bytes{name: name, data: data}
}

// Name returns the resource identifier.
func (b *Bytes) Name() string { return b.name }

// Length returns the current buffer length.
func (b *Bytes) Length() (int64, error) {
	if b.closed {
		return 0, types.ErrClosed
	}
	return int64(len(b.data)), nil
}

// Writable reports true; in-memory handles always accept writes.
func (b *Bytes) Writable() bool { return true }

// Data returns the current buffer contents.
func (b *Bytes) Data() []byte { return b.data }

func (b *Bytes) Read(p []byte) (int, error) {
	if b.closed {
		return 0, types.ErrClosed
	}
	if b.off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.off:])
	b.off += int64(n)
	return n, nil
}

func (b *Bytes) Write(p []byte) (int, error) {
	if b.closed {
		return 0, types.ErrClosed
	}
	if end := b.off + int64(len(p)); end > int64(len(b.data)) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	n := copy(b.data[b.off:], p)
	b.off += int64(n)
	return n, nil
}

func (b *Bytes) Seek(offset int64, whence int) (int64, error) {
	if b.closed {
		return 0, types.ErrClosed
	}
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.off + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("%s: invalid seek whence %d", b.name, whence)
	}
	if abs < 0 {
		return 0, &types.BoundsError{ID: b.name, What: "seek offset", Value: abs}
	}
	b.off = abs
	return abs, nil
}

// Close releases the handle. Close is idempotent.
func (b *Bytes) Close() error {
	b.closed = true
	return nil
}

// File is a handle over a local file.
type File struct {
	f        *os.File
	name     string
	writable bool
}

// OpenFile opens path read-only.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &File{f: f, name: path}, nil
}

// CreateFile creates or truncates path for reading and writing.
func CreateFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	return &File{f: f, name: path, writable: true}, nil
}

// Name returns the file path.
func (f *File) Name() string { return f.name }

// Length returns the current file size.
func (f *File) Length() (int64, error) {
	st, err := f.f.Stat()
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

// Writable reports whether the file was opened for writing.
func (f *File) Writable() bool { return f.writable }

func (f *File) Read(p []byte) (int, error) { return f.f.Read(p) }

func (f *File) Write(p []byte) (int, error) {
	if !f.writable {
		return 0, types.ErrReadOnly
	}
	return f.f.Write(p)
}

func (f *File) Seek(offset int64, whence int) (int64, error) {
	return f.f.Seek(offset, whence)
}

// Close closes the underlying file. Close is idempotent.
func (f *File) Close() error {
	err := f.f.Close()
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
