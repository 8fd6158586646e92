package scifio

import (
	"github.com/ngladitz/scifio/internal/decode"
)

// Sample constrains the numeric types plane bytes decode into.
type Sample = decode.Sample

// Convert decodes len(dst) samples from a raw plane buffer into dst,
// starting at sample index planeOffset. The image metadata supplies the
// storage layout: pixel type, valid bits, byte order and float word
// order. Values convert numerically when the destination type differs
// from the storage type, so a uint16 plane can decode straight into a
// []float64.
//
// Example:
//
//	img := &file.Meta.Images[plane.Series]
//	samples := make([]float64, plane.W*plane.H)
//	if err := scifio.Convert(samples, plane.Bytes, 0, img); err != nil {
//		return err
//	}
func Convert[T Sample](dst []T, src []byte, planeOffset int, im *ImageMetadata) error {
	return decode.Convert(dst, src, planeOffset, decode.Encoding{
		Pixel:   im.Pixel,
		Bits:    im.BitsPerPixel,
		Order:   im.Order,
		Swapped: im.FloatSwapped,
	})
}
