package stream_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ngladitz/scifio/internal/handle"
	"github.com/ngladitz/scifio/internal/stream"
	"github.com/ngladitz/scifio/internal/types"
)

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 3)
	}
	return b
}

func newMem(data []byte) *stream.Stream {
	return stream.New(handle.NewBytes("mem", data))
}

func TestTypedReads(t *testing.T) {
	data := []byte{
		0x12,
		0x12, 0x34,
		0x12, 0x34, 0x56, 0x78,
		0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0,
		0x3f, 0x80, 0x00, 0x00, // float32(1.0)
		0x40, 0x09, 0x21, 0xfb, 0x54, 0x44, 0x2d, 0x18, // float64(pi)
	}
	s := newMem(data)
	defer s.Close()

	if v, err := stream.Read[uint8](s, "u8"); err != nil || v != 0x12 {
		t.Fatalf("expected 0x12, got 0x%x (%v)", v, err)
	}
	if v, err := stream.Read[uint16](s, "u16"); err != nil || v != 0x1234 {
		t.Fatalf("expected 0x1234, got 0x%x (%v)", v, err)
	}
	if v, err := stream.Read[uint32](s, "u32"); err != nil || v != 0x12345678 {
		t.Fatalf("expected 0x12345678, got 0x%x (%v)", v, err)
	}
	if v, err := stream.Read[uint64](s, "u64"); err != nil || v != 0x123456789abcdef0 {
		t.Fatalf("expected 0x123456789abcdef0, got 0x%x (%v)", v, err)
	}
	if v, err := s.ReadFloat32("f32"); err != nil || v != 1.0 {
		t.Fatalf("expected 1.0, got %v (%v)", v, err)
	}
	if v, err := s.ReadFloat64("f64"); err != nil || v < 3.14159 || v > 3.1416 {
		t.Fatalf("expected pi, got %v (%v)", v, err)
	}
}

func TestTypedReadsLittleEndian(t *testing.T) {
	s := newMem([]byte{0x34, 0x12, 0x78, 0x56, 0x34, 0x12})
	defer s.Close()
	s.SetOrder(binary.LittleEndian)

	if v, err := stream.Read[uint16](s, "u16"); err != nil || v != 0x1234 {
		t.Fatalf("expected 0x1234, got 0x%x (%v)", v, err)
	}
	if v, err := stream.Read[uint32](s, "u32"); err != nil || v != 0x12345678 {
		t.Fatalf("expected 0x12345678, got 0x%x (%v)", v, err)
	}
}

func TestSignedReads(t *testing.T) {
	s := newMem([]byte{0xff, 0xff, 0xfe, 0x80, 0x00, 0x00, 0x00})
	defer s.Close()

	if v, err := stream.Read[int8](s, "i8"); err != nil || v != -1 {
		t.Fatalf("expected -1, got %d (%v)", v, err)
	}
	if v, err := stream.Read[int16](s, "i16"); err != nil || v != -2 {
		t.Fatalf("expected -2, got %d (%v)", v, err)
	}
	if v, err := stream.Read[int32](s, "i32"); err != nil || v != -2147483648 {
		t.Fatalf("expected INT32_MIN, got %d (%v)", v, err)
	}
}

// Reading the same resource sequentially, backward, and at random must
// produce identical bytes even when every access crosses window boundaries.
func TestAccessPatternEquivalence(t *testing.T) {
	data := pattern(100)
	s := stream.NewSize(handle.NewBytes("mem", data), 7)
	defer s.Close()

	// Sequential.
	got := make([]byte, len(data))
	if err := s.ReadFull(got, "sequential"); err != nil {
		t.Fatalf("sequential read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("sequential read diverges from source")
	}

	// Backward, one byte at a time.
	for i := len(data) - 1; i >= 0; i-- {
		if err := s.Seek(int64(i)); err != nil {
			t.Fatalf("seek %d: %v", i, err)
		}
		v, err := stream.Read[uint8](s, "byte")
		if err != nil {
			t.Fatalf("read at %d: %v", i, err)
		}
		if v != data[i] {
			t.Fatalf("backward read at %d: expected 0x%x, got 0x%x", i, data[i], v)
		}
	}

	// Random offsets straddling window edges.
	for _, off := range []int64{93, 6, 48, 7, 13, 0, 99, 50} {
		if err := s.Seek(off); err != nil {
			t.Fatalf("seek %d: %v", off, err)
		}
		v, err := stream.Read[uint8](s, "byte")
		if err != nil {
			t.Fatalf("read at %d: %v", off, err)
		}
		if v != data[off] {
			t.Fatalf("random read at %d: expected 0x%x, got 0x%x", off, data[off], v)
		}
	}
}

func TestReadFullPastEnd(t *testing.T) {
	s := newMem(pattern(10))
	defer s.Close()

	if err := s.Seek(8); err != nil {
		t.Fatal(err)
	}
	err := s.ReadFull(make([]byte, 4), "trailer")
	var be *types.BoundsError
	if !errors.As(err, &be) {
		t.Fatalf("expected BoundsError, got %v", err)
	}
	if !strings.Contains(err.Error(), "trailer") {
		t.Fatalf("expected error to name the value, got %q", err)
	}
}

func TestWriteThroughAndPatch(t *testing.T) {
	s := stream.NewSize(handle.NewBytes("mem", pattern(32)), 8)
	defer s.Close()

	// Warm the window over the first block.
	if _, err := stream.Read[uint32](s, "head"); err != nil {
		t.Fatal(err)
	}

	// Overwrite bytes inside the warmed window.
	if err := s.Seek(2); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte{0xaa, 0xbb}); err != nil {
		t.Fatalf("write: %v", err)
	}

	// A read served from the window must observe the new bytes.
	if err := s.Seek(2); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 2)
	if err := s.ReadFull(got, "patched"); err != nil {
		t.Fatal(err)
	}
	if got[0] != 0xaa || got[1] != 0xbb {
		t.Fatalf("expected aa bb, got %x", got)
	}
}

func TestWritePastEndGrows(t *testing.T) {
	s := newMem(nil)
	defer s.Close()

	if err := s.Seek(10); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteString("xyz"); err != nil {
		t.Fatalf("write: %v", err)
	}
	n, err := s.Length()
	if err != nil {
		t.Fatal(err)
	}
	if n != 13 {
		t.Fatalf("expected length 13, got %d", n)
	}

	// The gap reads back as zeros.
	if err := s.Seek(0); err != nil {
		t.Fatal(err)
	}
	head := make([]byte, 10)
	if err := s.ReadFull(head, "gap"); err != nil {
		t.Fatal(err)
	}
	for i, b := range head {
		if b != 0 {
			t.Fatalf("expected zero fill at %d, got 0x%x", i, b)
		}
	}
}

func TestWriteChars(t *testing.T) {
	s := newMem(nil)
	defer s.Close()

	if err := s.WriteChars("Ab"); err != nil {
		t.Fatalf("write chars: %v", err)
	}
	if err := s.Seek(0); err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 4)
	if err := s.ReadFull(got, "chars"); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x00, 'A', 0x00, 'b'}
	if !bytes.Equal(got, want) {
		t.Fatalf("expected % x, got % x", want, got)
	}
}

// Char writes starting at the end of a full buffer must land past it,
// extending the length to the post-write position.
func TestWriteCharsPastEnd(t *testing.T) {
	s := newMem(make([]byte, 16))
	defer s.Close()

	if err := s.Seek(16); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteChars("ab"); err != nil {
		t.Fatalf("write chars: %v", err)
	}
	if s.Offset() != 20 {
		t.Fatalf("expected offset 20, got %d", s.Offset())
	}
	n, err := s.Length()
	if err != nil {
		t.Fatal(err)
	}
	if n != 20 {
		t.Fatalf("expected length 20, got %d", n)
	}

	if err := s.Seek(16); err != nil {
		t.Fatal(err)
	}
	tail := make([]byte, 4)
	if err := s.ReadFull(tail, "tail"); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(tail, []byte{0x00, 'a', 0x00, 'b'}) {
		t.Fatalf("expected 00 61 00 62, got % x", tail)
	}
}

func TestWriteRejectedOnReadOnlyHandle(t *testing.T) {
	s := stream.New(readOnly{handle.NewBytes("mem", pattern(4))})
	defer s.Close()

	_, err := s.Write([]byte{1})
	if !errors.Is(err, types.ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

// readOnly masks the writable bit of an underlying handle.
type readOnly struct{ handle.Handle }

func (readOnly) Writable() bool { return false }

func TestSetLength(t *testing.T) {
	s := newMem(pattern(20))
	defer s.Close()

	if err := s.SetLength(5); err != nil {
		t.Fatalf("set length: %v", err)
	}
	if n, _ := s.Length(); n != 5 {
		t.Fatalf("expected length 5, got %d", n)
	}

	buf := make([]byte, 20)
	n, err := io.ReadFull(s, buf)
	if n != 5 {
		t.Fatalf("expected 5 bytes before EOF, got %d (%v)", n, err)
	}

	// The view cannot cover more than the resource holds.
	if err := s.SetLength(20); err == nil {
		t.Fatal("expected view at physical length to be rejected")
	}

	// A negative length removes the view.
	if err := s.SetLength(-1); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Length(); n != 20 {
		t.Fatalf("expected length 20, got %d", n)
	}
}

func TestMarkReset(t *testing.T) {
	s := newMem(pattern(16))
	defer s.Close()

	if err := s.Skip(4); err != nil {
		t.Fatal(err)
	}
	s.Mark(0)
	if err := s.Skip(8); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if s.Offset() != 4 {
		t.Fatalf("expected offset 4 after reset, got %d", s.Offset())
	}

	// A bounded mark expires once the stream advances past its limit.
	s.Mark(2)
	if err := s.Skip(3); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(); err == nil {
		t.Fatal("expected expired mark to fail")
	}
}

func TestResetWithoutMark(t *testing.T) {
	s := newMem(pattern(4))
	defer s.Close()
	if err := s.Reset(); err == nil {
		t.Fatal("expected reset without mark to fail")
	}
}

func TestFindString(t *testing.T) {
	// A tiny block size forces the terminator to span refills.
	s := stream.NewSize(handle.NewBytes("mem", []byte("alpha-SEP-beta-SEP-rest")), 4)
	defer s.Close()

	text, err := s.FindString("-SEP-")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if text != "alpha-SEP-" {
		t.Fatalf("expected %q, got %q", "alpha-SEP-", text)
	}
	if s.Offset() != 10 {
		t.Fatalf("expected offset 10 after terminator, got %d", s.Offset())
	}

	if err := s.SkipString("-SEP-"); err != nil {
		t.Fatalf("skip: %v", err)
	}
	if s.Offset() != 19 {
		t.Fatalf("expected offset 19, got %d", s.Offset())
	}

	// No further terminator: the remaining text comes back with EOF.
	text, err = s.FindString("-SEP-")
	if err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if text != "rest" {
		t.Fatalf("expected %q, got %q", "rest", text)
	}
}

func TestFindStringEarliestWins(t *testing.T) {
	s := newMem([]byte("aXbYc"))
	defer s.Close()

	text, err := s.FindString("Y", "X")
	if err != nil {
		t.Fatal(err)
	}
	if text != "aX" {
		t.Fatalf("expected %q, got %q", "aX", text)
	}
}

func TestReadLine(t *testing.T) {
	s := newMem([]byte("first\r\nsecond\nlast"))
	defer s.Close()

	for i, want := range []string{"first", "second", "last"} {
		line, err := s.ReadLine()
		if err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if line != want {
			t.Fatalf("line %d: expected %q, got %q", i, want, line)
		}
	}
	if _, err := s.ReadLine(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestReadCString(t *testing.T) {
	s := newMem([]byte("label\x00tail"))
	defer s.Close()

	text, err := s.ReadCString()
	if err != nil {
		t.Fatal(err)
	}
	if text != "label" {
		t.Fatalf("expected %q, got %q", "label", text)
	}
	if s.Offset() != 6 {
		t.Fatalf("expected offset 6, got %d", s.Offset())
	}
}

func TestNegativeSeekAndSkip(t *testing.T) {
	s := newMem(pattern(4))
	defer s.Close()

	var be *types.BoundsError
	if err := s.Seek(-1); !errors.As(err, &be) {
		t.Fatalf("expected BoundsError, got %v", err)
	}
	if err := s.Skip(-1); !errors.As(err, &be) {
		t.Fatalf("expected BoundsError, got %v", err)
	}
}

func TestClosedStream(t *testing.T) {
	s := newMem(pattern(4))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("expected idempotent close, got %v", err)
	}
	if _, err := s.Read(make([]byte, 1)); !errors.Is(err, types.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := s.Write([]byte{1}); !errors.Is(err, types.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := s.Seek(0); !errors.Is(err, types.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
