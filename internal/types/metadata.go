package types

import (
	"encoding/binary"
	"fmt"
	"unicode"
)

// Axis is one dimension of an image: its semantic type and its length.
type Axis struct {
	// Type of the dimension
	Type AxisType

	// Label preserves the original dimension name when Type is AxisOther
	Label string

	// Length of the dimension in samples; always positive
	Length int
}

// Name returns the axis label, falling back to the type name.
func (a Axis) Name() string {
	if a.Type == AxisOther && a.Label != "" {
		return a.Label
	}
	return a.Type.String()
}

// ColorTable maps indexed pixel values to RGB components.
type ColorTable struct {
	R, G, B []uint8
}

// Len returns the number of entries in the table.
func (t *ColorTable) Len() int {
	return len(t.R)
}

// ImageMetadata describes the pixel layout of one image (series) within a
// dataset.
//
// The first two axes are always X and Y; a plane is one X-by-Y section. The
// remaining axes, in declared order, enumerate planes.
type ImageMetadata struct {
	// Axes in dimension order, X and Y first
	Axes []Axis

	// Pixel is the sample storage type
	Pixel PixelType

	// BitsPerPixel is the number of valid bits per sample. Zero means
	// all storage bits are valid.
	BitsPerPixel int

	// Order is the byte order of multi-byte samples; nil means big-endian
	Order binary.ByteOrder

	// TileWidth and TileHeight advertise the natural read block, when the
	// format has one. Zero means whole-plane access.
	TileWidth  int
	TileHeight int

	// Indexed marks pixel values as indices into Colors
	Indexed bool

	// Colors is the lookup table for indexed images
	Colors *ColorTable

	// FloatSwapped marks float samples stored with their 16-bit words in
	// swapped order. Readers in normalized mode rewrite such samples to
	// IEEE layout.
	FloatSwapped bool
}

// ByteOrder returns the effective byte order, defaulting to big-endian.
func (m *ImageMetadata) ByteOrder() binary.ByteOrder {
	if m.Order == nil {
		return binary.BigEndian
	}
	return m.Order
}

// ValidBits returns the number of meaningful bits per sample.
func (m *ImageMetadata) ValidBits() int {
	if m.BitsPerPixel > 0 {
		return m.BitsPerPixel
	}
	return m.Pixel.Bits()
}

// AxisLength returns the length of the first axis of the given type, or
// zero when the image has no such axis.
func (m *ImageMetadata) AxisLength(t AxisType) int {
	for _, a := range m.Axes {
		if a.Type == t {
			return a.Length
		}
	}
	return 0
}

// SizeX returns the plane width.
func (m *ImageMetadata) SizeX() int {
	return m.AxisLength(AxisX)
}

// SizeY returns the plane height.
func (m *ImageMetadata) SizeY() int {
	return m.AxisLength(AxisY)
}

// PlaneCount returns the number of planes in the image: the product of all
// non-planar axis lengths.
func (m *ImageMetadata) PlaneCount() int {
	n := 1
	for _, a := range m.Axes {
		if a.Type == AxisX || a.Type == AxisY {
			continue
		}
		n *= a.Length
	}
	return n
}

// Validate checks the structural invariants of the image.
func (m *ImageMetadata) Validate(id string) error {
	if len(m.Axes) < 2 {
		return &FormatError{ID: id, Reason: "image needs at least X and Y axes"}
	}
	if m.Axes[0].Type != AxisX || m.Axes[1].Type != AxisY {
		return &FormatError{ID: id, Reason: fmt.Sprintf("dimension order must begin with X and Y, got %s and %s",
			m.Axes[0].Name(), m.Axes[1].Name())}
	}
	for _, a := range m.Axes {
		if a.Length <= 0 {
			return &FormatError{ID: id, Reason: fmt.Sprintf("axis %s has non-positive length %d", a.Name(), a.Length)}
		}
	}
	if m.Pixel.Bits() == 0 {
		return &FormatError{ID: id, Reason: "unknown pixel type"}
	}
	if m.BitsPerPixel < 0 || m.BitsPerPixel > m.Pixel.Bits() {
		return &FormatError{ID: id, Reason: fmt.Sprintf("%d valid bits exceed %d-bit storage", m.BitsPerPixel, m.Pixel.Bits())}
	}
	if m.Indexed && m.Colors == nil {
		return &FormatError{ID: id, Reason: "indexed image without a color table"}
	}
	return nil
}

// Metadata is the parsed description of a dataset: its images plus the raw
// key/value pairs the format declared.
type Metadata struct {
	// ID is the resource identifier the metadata was parsed from
	ID string

	// Images holds one entry per series
	Images []ImageMetadata

	// Table holds the raw format-specific key/value pairs; nil when the
	// parser was configured to drop them
	Table map[string]string

	// Warnings collected during parsing (non-fatal issues)
	Warnings []Warning
}

// Put records a raw metadata pair. The table is created on first use.
func (m *Metadata) Put(key, value string) {
	if m.Table == nil {
		m.Table = make(map[string]string)
	}
	m.Table[key] = value
}

// Warn appends a parsing warning.
func (m *Metadata) Warn(stage, message string, offset int64) {
	m.Warnings = append(m.Warnings, Warning{Stage: stage, Message: message, Offset: offset})
}

// Validate checks the structural invariants of the whole dataset.
func (m *Metadata) Validate() error {
	if len(m.Images) == 0 {
		return &FormatError{ID: m.ID, Reason: "dataset contains no images"}
	}
	for i := range m.Images {
		if err := m.Images[i].Validate(m.ID); err != nil {
			return err
		}
	}
	return nil
}

// FilterTable drops raw metadata pairs with empty or unprintable keys or
// values, the ones that carry noise rather than information.
func (m *Metadata) FilterTable() {
	for k, v := range m.Table {
		if k == "" || !printable(k) || !printable(v) {
			delete(m.Table, k)
		}
	}
}

func printable(s string) bool {
	for _, r := range s {
		if !unicode.IsPrint(r) && r != '\t' {
			return false
		}
	}
	return true
}

// Plane is one decoded 2D section of an image, transient by design: the
// reader owns nothing once it is returned.
type Plane struct {
	// Series and Index locate the plane within the dataset
	Series int
	Index  int

	// X, Y, W, H is the region of the plane covered by Bytes
	X, Y, W, H int

	// Bytes holds the raw samples in the image's declared encoding
	Bytes []byte

	// Colors is the image's lookup table, when indexed
	Colors *ColorTable
}
