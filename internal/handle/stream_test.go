package handle

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ngladitz/scifio/internal/types"
)

// countingStream builds a forward-only Stream over fixed content and counts
// how often the source is reopened.
func countingStream(content []byte) (*Stream, *int) {
	opens := 0
	s := NewStream("counted", func() (io.ReadCloser, error) {
		opens++
		return io.NopCloser(bytes.NewReader(content)), nil
	})
	return s, &opens
}

func TestStream_SequentialRead(t *testing.T) {
	s, opens := countingStream([]byte("0123456789"))
	defer s.Close()

	buf := make([]byte, 4)
	if _, err := io.ReadFull(s, buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(buf) != "0123" {
		t.Errorf("expected 0123, got %q", buf)
	}
	if _, err := io.ReadFull(s, buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(buf) != "4567" {
		t.Errorf("expected 4567, got %q", buf)
	}
	if *opens != 1 {
		t.Errorf("sequential reads should open the source once, opened %d times", *opens)
	}
}

func TestStream_ForwardSeekDiscards(t *testing.T) {
	s, opens := countingStream([]byte("0123456789"))
	defer s.Close()

	if _, err := s.Seek(7, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	buf := make([]byte, 3)
	if _, err := io.ReadFull(s, buf); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(buf) != "789" {
		t.Errorf("expected 789, got %q", buf)
	}
	if *opens != 1 {
		t.Errorf("forward seek must not reopen, opened %d times", *opens)
	}
}

func TestStream_BackwardSeekReplays(t *testing.T) {
	s, opens := countingStream([]byte("0123456789"))
	defer s.Close()

	buf := make([]byte, 6)
	if _, err := io.ReadFull(s, buf); err != nil {
		t.Fatal(err)
	}

	// Backward seek forces a restart from zero.
	if _, err := s.Seek(2, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := io.ReadFull(s, buf[:3]); err != nil {
		t.Fatalf("read after backward seek failed: %v", err)
	}
	if string(buf[:3]) != "234" {
		t.Errorf("expected 234, got %q", buf[:3])
	}
	if *opens != 2 {
		t.Errorf("backward seek should reopen exactly once, opened %d times", *opens)
	}
}

func TestStream_LazyLength(t *testing.T) {
	s, opens := countingStream([]byte("0123456789"))
	defer s.Close()

	length, err := s.Length()
	if err != nil {
		t.Fatalf("Length failed: %v", err)
	}
	if length != 10 {
		t.Errorf("expected length 10, got %d", length)
	}

	// The measured length is cached.
	if _, err := s.Length(); err != nil {
		t.Fatal(err)
	}
	if *opens != 1 {
		t.Errorf("length probe should reuse one open, opened %d times", *opens)
	}

	// Reading still works after the drain.
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "0123456789" {
		t.Errorf("expected full content after drain, got %q", got)
	}
}

func TestStream_SeekEndUsesLength(t *testing.T) {
	s, _ := countingStream([]byte("0123456789"))
	defer s.Close()

	pos, err := s.Seek(-3, io.SeekEnd)
	if err != nil {
		t.Fatal(err)
	}
	if pos != 7 {
		t.Errorf("expected position 7, got %d", pos)
	}
	got, err := io.ReadAll(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "789" {
		t.Errorf("expected 789, got %q", got)
	}
}

func TestStream_ReadPastEnd(t *testing.T) {
	s, _ := countingStream([]byte("abc"))
	defer s.Close()

	if _, err := s.Seek(100, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read(make([]byte, 1)); err != io.EOF {
		t.Errorf("expected io.EOF past end, got %v", err)
	}
}

func TestStream_ReadOnly(t *testing.T) {
	s, _ := countingStream([]byte("abc"))
	defer s.Close()

	if s.Writable() {
		t.Error("forward-only stream reports writable")
	}
	if _, err := s.Write([]byte("x")); !errors.Is(err, types.ErrReadOnly) {
		t.Errorf("expected ErrReadOnly, got %v", err)
	}
}

func TestStream_CloseIdempotent(t *testing.T) {
	s, _ := countingStream([]byte("abc"))

	if _, err := s.Read(make([]byte, 1)); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
	if _, err := s.Read(make([]byte, 1)); !errors.Is(err, types.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := s.Seek(0, io.SeekStart); !errors.Is(err, types.ErrClosed) {
		t.Errorf("expected ErrClosed on seek, got %v", err)
	}
}
