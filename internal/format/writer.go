package format

import (
	"github.com/ngladitz/scifio/internal/types"
)

// Writer saves image planes to a resource following previously supplied
// metadata. Planes may be saved in any order; unwritten regions read back
// zero-filled.
type Writer interface {
	// Metadata returns the metadata the writer was created with.
	Metadata() *types.Metadata

	// SavePlane writes a rectangular region of one plane from buf.
	SavePlane(series, plane int, buf []byte, x, y, w, h int) error

	// Close flushes and releases the writer. Close is idempotent.
	Close() error
}

// CheckSave validates a save the way CheckRegion validates a read, plus
// the buffer length against the region size.
func (b *Base) CheckSave(series, plane int, buf []byte, x, y, w, h int) (*types.ImageMetadata, error) {
	im, err := b.CheckRegion(series, plane, x, y, w, h)
	if err != nil {
		return nil, err
	}
	if need := w * h * BytesPerSample(im.Pixel); len(buf) != need {
		return nil, &types.BoundsError{
			ID:    b.meta.ID,
			What:  "plane buffer length",
			Value: int64(len(buf)),
			Limit: int64(need),
		}
	}
	return im, nil
}
