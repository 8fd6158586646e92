package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across packages.
var (
	// ErrClosed is returned for operations on a closed stream or handle.
	ErrClosed = errors.New("resource is closed")

	// ErrReadOnly is returned when writing to a read-only handle.
	ErrReadOnly = errors.New("resource is read-only")

	// ErrSearchLimit is returned when a terminator scan exceeds its cap
	// without a match.
	ErrSearchLimit = errors.New("search limit exceeded")
)

// UnknownFormatError is returned when no registered format claims a resource.
//
// This is distinct from FormatError: identification found nothing, rather
// than a claimed format failing to parse.
type UnknownFormatError struct {
	ID string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("%s: unknown image format", e.ID)
}

// FormatError is returned when content violates the structure of the format
// that claimed it.
type FormatError struct {
	ID     string
	Format string
	Reason string
	Offset int64
}

func (e *FormatError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("%s: malformed %s data at offset %d: %s", e.ID, e.Format, e.Offset, e.Reason)
	}
	return fmt.Sprintf("%s: malformed %s data: %s", e.ID, e.Format, e.Reason)
}

// IOError wraps a failure of the underlying byte source or sink.
type IOError struct {
	ID  string
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.ID, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is and errors.As.
func (e *IOError) Unwrap() error {
	return e.Err
}

// BoundsError is returned when an offset, index, or region lies outside its
// valid range. Requests are never clamped.
type BoundsError struct {
	ID    string
	What  string
	Value int64
	Limit int64
}

func (e *BoundsError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("%s: %s %d out of range [0, %d)", e.ID, e.What, e.Value, e.Limit)
	}
	return fmt.Sprintf("%s: %s %d out of range", e.ID, e.What, e.Value)
}

// EnumerationError is returned when a string names no known enumeration
// value and no fallback alias applies.
type EnumerationError struct {
	Enum  string
	Value string
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("unknown %s value %q", e.Enum, e.Value)
}

// Warning represents a non-fatal issue encountered during parsing.
//
// Warnings indicate problems that don't prevent metadata extraction but may
// indicate unusual or damaged data: unrecognized header keys, axis labels
// outside the known set, or trailing garbage past the pixel data.
//
// Warnings are collected in Metadata.Warnings during parsing.
type Warning struct {
	// Stage where the warning occurred
	Stage string // "identify", "header", "pixels"

	// Warning message
	Message string

	// File offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
