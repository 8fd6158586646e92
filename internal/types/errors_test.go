package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUnknownFormatError_Message(t *testing.T) {
	err := &UnknownFormatError{ID: "sample.xyz"}
	want := "sample.xyz: unknown image format"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestFormatError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *FormatError
		want string
	}{
		{
			name: "with offset",
			err:  &FormatError{ID: "a.ics", Format: "ICS", Reason: "truncated header", Offset: 12},
			want: "a.ics: malformed ICS data at offset 12: truncated header",
		},
		{
			name: "without offset",
			err:  &FormatError{ID: "a.ics", Format: "ICS", Reason: "missing end marker"},
			want: "a.ics: malformed ICS data: missing end marker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIOError_Unwrap(t *testing.T) {
	inner := errors.New("connection reset")
	err := &IOError{ID: "s3://bucket/key", Op: "read", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("expected errors.Is to find the wrapped error")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("expected message to include the cause, got %q", err.Error())
	}
}

func TestIOError_Sentinels(t *testing.T) {
	err := fmt.Errorf("read plane: %w", &IOError{ID: "x", Op: "read", Err: ErrClosed})
	if !errors.Is(err, ErrClosed) {
		t.Error("expected ErrClosed to survive wrapping")
	}

	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatal("expected errors.As to find IOError")
	}
	if ioErr.Op != "read" {
		t.Errorf("expected op read, got %q", ioErr.Op)
	}
}

func TestBoundsError_Message(t *testing.T) {
	err := &BoundsError{ID: "img.fake", What: "plane index", Value: 9, Limit: 4}
	want := "img.fake: plane index 9 out of range [0, 4)"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestEnumerationError_Message(t *testing.T) {
	err := &EnumerationError{Enum: "axis type", Value: "bogus"}
	want := `unknown axis type value "bogus"`
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
}

func TestWarning_String(t *testing.T) {
	w := Warning{Stage: "header", Message: "unknown key", Offset: 42}
	if got := w.String(); got != "header (at offset 42): unknown key" {
		t.Errorf("unexpected warning string %q", got)
	}

	w = Warning{Stage: "pixels", Message: "trailing bytes"}
	if got := w.String(); got != "pixels: trailing bytes" {
		t.Errorf("unexpected warning string %q", got)
	}
}
