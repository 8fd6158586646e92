package format

import (
	"github.com/ngladitz/scifio/internal/decode"
	"github.com/ngladitz/scifio/internal/types"
)

// ReadConfig is pass-through reader configuration.
type ReadConfig struct {
	// Normalized rewrites declared non-IEEE float layouts into standard
	// IEEE layout on read. The declaration comes from metadata, never
	// from inspecting sample values.
	Normalized bool
}

// Reader serves image planes from a parsed resource. Planes may be opened
// repeatedly and in any order without re-parsing.
type Reader interface {
	// Metadata returns the metadata the reader was opened with.
	Metadata() *types.Metadata

	// OpenPlane reads one whole plane.
	OpenPlane(series, plane int) (*types.Plane, error)

	// OpenRegion reads a rectangular region of one plane.
	OpenRegion(series, plane, x, y, w, h int) (*types.Plane, error)

	// Close releases the reader's resources. Close is idempotent.
	Close() error
}

// Base carries the state and checks every reader shares. Embed it and use
// the Check helpers before touching the resource.
type Base struct {
	meta   *types.Metadata
	cfg    ReadConfig
	closed bool
}

// NewBase returns a base over parsed metadata.
func NewBase(meta *types.Metadata, cfg ReadConfig) Base {
	return Base{meta: meta, cfg: cfg}
}

// Metadata returns the reader's metadata.
func (b *Base) Metadata() *types.Metadata { return b.meta }

// Config returns the read configuration.
func (b *Base) Config() ReadConfig { return b.cfg }

// MarkClosed flips the closed flag, reporting whether this call was the
// one that closed the reader.
func (b *Base) MarkClosed() bool {
	if b.closed {
		return false
	}
	b.closed = true
	return true
}

// CheckPlane validates series and plane and returns the series metadata.
// Out-of-range indices fail with BoundsError; nothing is clamped.
func (b *Base) CheckPlane(series, plane int) (*types.ImageMetadata, error) {
	if b.closed {
		return nil, types.ErrClosed
	}
	if series < 0 || series >= len(b.meta.Images) {
		return nil, &types.BoundsError{
			ID:    b.meta.ID,
			What:  "series",
			Value: int64(series),
			Limit: int64(len(b.meta.Images)),
		}
	}
	im := &b.meta.Images[series]
	if count := im.PlaneCount(); plane < 0 || plane >= count {
		return nil, &types.BoundsError{
			ID:    b.meta.ID,
			What:  "plane",
			Value: int64(plane),
			Limit: int64(count),
		}
	}
	return im, nil
}

// CheckRegion validates a plane region against the series dimensions.
func (b *Base) CheckRegion(series, plane, x, y, w, h int) (*types.ImageMetadata, error) {
	im, err := b.CheckPlane(series, plane)
	if err != nil {
		return nil, err
	}
	sizeX, sizeY := im.SizeX(), im.SizeY()
	switch {
	case x < 0 || x >= sizeX:
		return nil, &types.BoundsError{ID: b.meta.ID, What: "region x", Value: int64(x), Limit: int64(sizeX)}
	case y < 0 || y >= sizeY:
		return nil, &types.BoundsError{ID: b.meta.ID, What: "region y", Value: int64(y), Limit: int64(sizeY)}
	case w <= 0 || x+w > sizeX:
		return nil, &types.BoundsError{ID: b.meta.ID, What: "region width", Value: int64(w), Limit: int64(sizeX - x)}
	case h <= 0 || y+h > sizeY:
		return nil, &types.BoundsError{ID: b.meta.ID, What: "region height", Value: int64(h), Limit: int64(sizeY - y)}
	}
	return im, nil
}

// BytesPerSample returns the plane storage width for a pixel type. Packed
// types occupy one byte per sample once decoded.
func BytesPerSample(p types.PixelType) int {
	if bits := p.Bits(); bits >= 8 {
		return bits / 8
	}
	return 1
}

// NewPlane allocates the plane buffer for a region of a series.
func (b *Base) NewPlane(im *types.ImageMetadata, series, plane, x, y, w, h int) *types.Plane {
	return &types.Plane{
		Series: series,
		Index:  plane,
		X:      x,
		Y:      y,
		W:      w,
		H:      h,
		Bytes:  make([]byte, w*h*BytesPerSample(im.Pixel)),
		Colors: im.Colors,
	}
}

// FinishPlane applies the read configuration to a filled plane: under
// Normalized, float samples declared word-swapped are rewritten into
// standard IEEE layout.
func (b *Base) FinishPlane(p *types.Plane, im *types.ImageMetadata) *types.Plane {
	if b.cfg.Normalized && im.FloatSwapped && im.Pixel.Float() {
		decode.Canonicalize(p.Bytes, decode.Encoding{
			Pixel:   im.Pixel,
			Order:   im.ByteOrder(),
			Swapped: true,
		})
	}
	return p
}
