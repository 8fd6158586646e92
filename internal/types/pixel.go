package types

// PixelType identifies the numeric element type of pixel samples.
type PixelType int

const (
	// Int8 is an 8-bit signed integer sample.
	Int8 PixelType = iota
	// UInt8 is an 8-bit unsigned integer sample.
	UInt8
	// Int16 is a 16-bit signed integer sample.
	Int16
	// UInt16 is a 16-bit unsigned integer sample.
	UInt16
	// Int32 is a 32-bit signed integer sample.
	Int32
	// UInt32 is a 32-bit unsigned integer sample.
	UInt32
	// Int64 is a 64-bit signed integer sample.
	Int64
	// UInt64 is a 64-bit unsigned integer sample.
	UInt64
	// Float32 is an IEEE 754 single-precision sample.
	Float32
	// Float64 is an IEEE 754 double-precision sample.
	Float64
	// Bit is a single-bit sample, packed most significant bit first.
	Bit
)

// Bits returns the storage width of the type in bits.
func (p PixelType) Bits() int {
	switch p {
	case Int8, UInt8:
		return 8
	case Int16, UInt16:
		return 16
	case Int32, UInt32, Float32:
		return 32
	case Int64, UInt64, Float64:
		return 64
	case Bit:
		return 1
	default:
		return 0
	}
}

// Signed reports whether samples of this type carry a sign.
func (p PixelType) Signed() bool {
	switch p {
	case Int8, Int16, Int32, Int64:
		return true
	default:
		return false
	}
}

// Float reports whether samples of this type are floating point.
func (p PixelType) Float() bool {
	return p == Float32 || p == Float64
}

func (p PixelType) String() string {
	switch p {
	case Int8:
		return "int8"
	case UInt8:
		return "uint8"
	case Int16:
		return "int16"
	case UInt16:
		return "uint16"
	case Int32:
		return "int32"
	case UInt32:
		return "uint32"
	case Int64:
		return "int64"
	case UInt64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Bit:
		return "bit"
	default:
		return "unknown"
	}
}

// pixelTypes resolves the names and common synonyms of each pixel type.
var pixelTypes = &EnumTable[PixelType]{
	Name: "pixel type",
	Entries: []EnumEntry[PixelType]{
		{Int8, []string{"int8", "i8", "byte"}},
		{UInt8, []string{"uint8", "u8", "ubyte"}},
		{Int16, []string{"int16", "i16", "short"}},
		{UInt16, []string{"uint16", "u16", "ushort"}},
		{Int32, []string{"int32", "i32", "int"}},
		{UInt32, []string{"uint32", "u32", "uint"}},
		{Int64, []string{"int64", "i64", "long"}},
		{UInt64, []string{"uint64", "u64", "ulong"}},
		{Float32, []string{"float32", "f32", "float", "single"}},
		{Float64, []string{"float64", "f64", "double"}},
		{Bit, []string{"bit"}},
	},
}

// ParsePixelType resolves a pixel type name.
//
// Returns an EnumerationError for names outside the table.
func ParsePixelType(s string) (PixelType, error) {
	return pixelTypes.Lookup(s)
}

// AxisType identifies the semantic meaning of one image dimension.
type AxisType int

const (
	// AxisX is the horizontal planar dimension.
	AxisX AxisType = iota
	// AxisY is the vertical planar dimension.
	AxisY
	// AxisZ is depth, the focal dimension.
	AxisZ
	// AxisChannel separates acquisition channels or color components.
	AxisChannel
	// AxisTime is the temporal dimension.
	AxisTime
	// AxisOther covers dimensions outside the core set; the original
	// label is preserved on the Axis.
	AxisOther
)

func (a AxisType) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	case AxisChannel:
		return "Channel"
	case AxisTime:
		return "Time"
	case AxisOther:
		return "Other"
	default:
		return "unknown"
	}
}

// axisTypes resolves axis labels. The fallback aliases are dimension names
// that occur in the wild without a dedicated axis type.
var axisTypes = &EnumTable[AxisType]{
	Name: "axis type",
	Entries: []EnumEntry[AxisType]{
		{AxisX, []string{"x"}},
		{AxisY, []string{"y"}},
		{AxisZ, []string{"z"}},
		{AxisChannel, []string{"channel", "ch", "c"}},
		{AxisTime, []string{"time", "t"}},
	},
	OtherAliases: []string{"probe", "frequency", "phase", "lifetime", "tile", "view", "spectra"},
	Other:        AxisOther,
}

// ParseAxisType resolves an axis label.
//
// Labels in the known fallback set resolve to AxisOther; anything else is an
// EnumerationError so callers decide how to degrade.
func ParseAxisType(s string) (AxisType, error) {
	return axisTypes.Lookup(s)
}
