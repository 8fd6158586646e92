// Package decode converts raw plane bytes into typed sample slices.
//
// Two paths produce bit-identical results wherever both apply: a bulk copy
// for destinations whose width and kind match the declared pixel type on a
// platform whose byte order matches the declared one, and a per-element
// path for everything else, including sub-byte packed data and samples with
// fewer valid bits than their container.
package decode

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"github.com/ngladitz/scifio/internal/types"
)

// Sample constrains the element types planes decode into.
type Sample interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64
}

// Encoding describes how samples are laid out in a raw plane buffer.
type Encoding struct {
	// Pixel is the storage type of each sample.
	Pixel types.PixelType
	// Bits is the count of valid bits per sample. Zero means the full
	// pixel width. Values below eight select the packed layout, where
	// consecutive samples share bytes most significant bit first.
	Bits int
	// Order is the byte order of multi-byte samples; nil means big-endian.
	Order binary.ByteOrder
	// Swapped marks float samples whose two half-width words are stored
	// exchanged.
	Swapped bool
}

func (e Encoding) order() binary.ByteOrder {
	if e.Order == nil {
		return binary.BigEndian
	}
	return e.Order
}

func (e Encoding) bits() int {
	if e.Bits > 0 {
		return e.Bits
	}
	return e.Pixel.Bits()
}

// nativeOrder is the platform byte order, probed once.
var nativeOrder binary.ByteOrder = func() binary.ByteOrder {
	x := uint16(0x0102)
	if *(*byte)(unsafe.Pointer(&x)) == 0x01 {
		return binary.BigEndian
	}
	return binary.LittleEndian
}()

// Convert decodes len(dst) samples from src into dst, starting at sample
// index planeOffset of the buffer. Values convert numerically when the
// destination type differs from the storage type.
func Convert[T Sample](dst []T, src []byte, planeOffset int, enc Encoding) error {
	if planeOffset < 0 {
		return fmt.Errorf("negative plane offset %d", planeOffset)
	}
	bits := enc.bits()
	if bits < 8 {
		return convertPacked(dst, src, planeOffset, bits, enc.Pixel.Signed())
	}

	size := enc.Pixel.Bits() / 8
	if need := (planeOffset + len(dst)) * size; need > len(src) {
		return fmt.Errorf("%d samples of %d bytes need %d bytes, have %d",
			planeOffset+len(dst), size, need, len(src))
	}
	src = src[planeOffset*size:]

	if bits == enc.Pixel.Bits() && !enc.Swapped &&
		enc.order() == nativeOrder && kindMatches[T](enc.Pixel) {
		n := len(dst) * size
		copy(unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(dst))), n), src[:n])
		return nil
	}

	order := enc.order()
	switch {
	case enc.Pixel.Float():
		// Convert straight from the stored width so that float bit
		// patterns, NaN payloads included, survive untouched when the
		// destination type matches.
		for i := range dst {
			u := loadFloatBits(src[i*size:], size, order, enc.Swapped)
			if size == 4 {
				dst[i] = T(math.Float32frombits(uint32(u)))
			} else {
				dst[i] = T(math.Float64frombits(u))
			}
		}
	case enc.Pixel.Signed():
		shift := 64 - bits
		for i := range dst {
			raw := loadUint(src[i*size:], size, order)
			v := int64(raw<<shift) >> shift
			dst[i] = T(v)
		}
	default:
		mask := ^uint64(0) >> (64 - bits)
		for i := range dst {
			dst[i] = T(loadUint(src[i*size:], size, order) & mask)
		}
	}
	return nil
}

func convertPacked[T Sample](dst []T, src []byte, planeOffset, bits int, signed bool) error {
	lastBit := (planeOffset + len(dst)) * bits
	if need := (lastBit + 7) / 8; need > len(src) {
		return fmt.Errorf("%d packed samples of %d bits need %d bytes, have %d",
			planeOffset+len(dst), bits, need, len(src))
	}
	r := newBitReaderAt(src, planeOffset*bits)
	shift := 64 - bits
	for i := range dst {
		raw, ok := r.readBits(bits)
		if !ok {
			return fmt.Errorf("packed data ends after %d of %d samples", i, len(dst))
		}
		if signed {
			dst[i] = T(int64(raw<<shift) >> shift)
		} else {
			dst[i] = T(raw)
		}
	}
	return nil
}

// Canonicalize rewrites word-swapped float samples into standard IEEE
// layout in place. Other encodings are left untouched.
func Canonicalize(buf []byte, enc Encoding) {
	if !enc.Swapped || !enc.Pixel.Float() {
		return
	}
	size := enc.Pixel.Bits() / 8
	half := size / 2
	for off := 0; off+size <= len(buf); off += size {
		for i := 0; i < half; i++ {
			buf[off+i], buf[off+half+i] = buf[off+half+i], buf[off+i]
		}
	}
}

// kindMatches reports whether T has exactly the width and kind of p.
func kindMatches[T Sample](p types.PixelType) bool {
	var zero T
	switch any(zero).(type) {
	case int8:
		return p == types.Int8
	case uint8:
		return p == types.UInt8
	case int16:
		return p == types.Int16
	case uint16:
		return p == types.UInt16
	case int32:
		return p == types.Int32
	case uint32:
		return p == types.UInt32
	case int64:
		return p == types.Int64
	case uint64:
		return p == types.UInt64
	case float32:
		return p == types.Float32
	case float64:
		return p == types.Float64
	}
	return false
}

func loadUint(b []byte, size int, order binary.ByteOrder) uint64 {
	switch size {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(order.Uint16(b))
	case 4:
		return uint64(order.Uint32(b))
	default:
		return order.Uint64(b)
	}
}

// loadFloatBits gathers the IEEE bits of one float sample, undoing word
// swapping on the fly.
func loadFloatBits(b []byte, size int, order binary.ByteOrder, swapped bool) uint64 {
	if swapped {
		var tmp [8]byte
		half := size / 2
		copy(tmp[:half], b[half:size])
		copy(tmp[half:size], b[:half])
		return loadUint(tmp[:size], size, order)
	}
	return loadUint(b, size, order)
}
