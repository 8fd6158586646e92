package scifio

import (
	"github.com/ngladitz/scifio/internal/types"
)

// The error taxonomy lives in internal/types and is re-exported here so
// callers can match with errors.Is and errors.As against public names.

// UnknownFormatError reports that no registered format claimed a resource.
// Distinct from FormatError: identification found nothing, rather than a
// claimed format failing to parse.
type UnknownFormatError = types.UnknownFormatError

// FormatError reports content that violates the structure of the format
// that claimed it.
type FormatError = types.FormatError

// IOError wraps a failure of the underlying byte source or sink. Unwrap
// exposes the backend error.
type IOError = types.IOError

// BoundsError reports an offset, index, or region outside its valid
// range. Requests are never clamped.
type BoundsError = types.BoundsError

// EnumerationError reports a string that names no known enumeration value.
type EnumerationError = types.EnumerationError

// Warning is a non-fatal issue collected during parsing. Strict parsing
// promotes the first warning to a FormatError instead.
type Warning = types.Warning

// Sentinel errors shared across the library.
var (
	// ErrClosed is returned for operations on a closed file, stream or
	// handle.
	ErrClosed = types.ErrClosed

	// ErrReadOnly is returned when writing to a read-only resource.
	ErrReadOnly = types.ErrReadOnly

	// ErrSearchLimit is returned when a header scan exceeds its cap
	// without finding its terminator.
	ErrSearchLimit = types.ErrSearchLimit
)
