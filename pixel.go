package scifio

import (
	"github.com/ngladitz/scifio/internal/types"
)

// PixelType identifies the numeric element type of pixel samples.
type PixelType = types.PixelType

// Re-export the pixel types.
const (
	Int8    = types.Int8
	UInt8   = types.UInt8
	Int16   = types.Int16
	UInt16  = types.UInt16
	Int32   = types.Int32
	UInt32  = types.UInt32
	Int64   = types.Int64
	UInt64  = types.UInt64
	Float32 = types.Float32
	Float64 = types.Float64
	Bit     = types.Bit
)

// ParsePixelType resolves a pixel type name or one of its common synonyms
// ("byte", "short", "float", ...). Unknown names return an
// EnumerationError.
func ParsePixelType(s string) (PixelType, error) {
	return types.ParsePixelType(s)
}

// AxisType identifies the semantic meaning of one image dimension.
type AxisType = types.AxisType

// Re-export the axis types.
const (
	AxisX       = types.AxisX
	AxisY       = types.AxisY
	AxisZ       = types.AxisZ
	AxisChannel = types.AxisChannel
	AxisTime    = types.AxisTime
	AxisOther   = types.AxisOther
)

// ParseAxisType resolves an axis label. Labels from a known fallback set
// ("phase", "tile", "view", ...) resolve to AxisOther; anything else
// returns an EnumerationError.
func ParseAxisType(s string) (AxisType, error) {
	return types.ParseAxisType(s)
}
