// Package bmp reads Windows bitmap images.
//
// Uncompressed files with 1, 4, 8 or 24 bits per pixel are supported.
// Palette images surface as a single indexed plane with the palette as the
// color table; 24-bit images surface as three channel planes in red, green,
// blue order. Rows are stored four-byte aligned and bottom-up unless the
// header declares a negative height.
package bmp

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/ngladitz/scifio/internal/decode"
	"github.com/ngladitz/scifio/internal/format"
	"github.com/ngladitz/scifio/internal/stream"
	"github.com/ngladitz/scifio/internal/types"
)

const magic = "BM"

// header is the parsed file and info header, shared by parser and reader.
type header struct {
	dataOffset int64
	width      int
	height     int
	bits       int
	topDown    bool
	colors     *types.ColorTable
	clrUsed    int
}

func (h *header) stride() int {
	return (h.width*h.bits + 31) / 32 * 4
}

func (h *header) channels() int {
	if h.bits == 24 {
		return 3
	}
	return 1
}

func readHeader(id string, s *stream.Stream) (*header, error) {
	s.SetOrder(binary.LittleEndian)
	if err := s.Seek(0); err != nil {
		return nil, err
	}

	sig, err := s.ReadString(2, "signature")
	if err != nil {
		return nil, err
	}
	if sig != magic {
		return nil, &types.FormatError{ID: id, Format: "bmp", Reason: "signature not found"}
	}
	if err := s.Skip(8); err != nil { // file size, reserved
		return nil, err
	}
	dataOffset, err := stream.Read[uint32](s, "pixel data offset")
	if err != nil {
		return nil, err
	}
	headerSize, err := stream.Read[uint32](s, "info header size")
	if err != nil {
		return nil, err
	}
	if headerSize < 40 {
		return nil, &types.FormatError{ID: id, Format: "bmp", Reason: fmt.Sprintf("info header of %d bytes is too small", headerSize), Offset: 14}
	}
	width, err := stream.Read[int32](s, "width")
	if err != nil {
		return nil, err
	}
	height, err := stream.Read[int32](s, "height")
	if err != nil {
		return nil, err
	}
	if _, err := stream.Read[uint16](s, "plane count"); err != nil {
		return nil, err
	}
	bits, err := stream.Read[uint16](s, "bit count")
	if err != nil {
		return nil, err
	}
	compression, err := stream.Read[uint32](s, "compression")
	if err != nil {
		return nil, err
	}
	if err := s.Skip(12); err != nil { // image size, resolution
		return nil, err
	}
	clrUsed, err := stream.Read[uint32](s, "palette size")
	if err != nil {
		return nil, err
	}
	if err := s.Skip(4); err != nil { // important colors
		return nil, err
	}

	h := &header{
		dataOffset: int64(dataOffset),
		width:      int(width),
		height:     int(height),
		bits:       int(bits),
		clrUsed:    int(clrUsed),
	}
	if h.height < 0 {
		h.height = -h.height
		h.topDown = true
	}
	if h.width <= 0 || h.height == 0 {
		return nil, &types.FormatError{ID: id, Format: "bmp", Reason: fmt.Sprintf("invalid dimensions %dx%d", width, height), Offset: 18}
	}
	if compression != 0 {
		return nil, &types.FormatError{ID: id, Format: "bmp", Reason: fmt.Sprintf("compression type %d not supported", compression), Offset: 30}
	}
	switch h.bits {
	case 1, 4, 8, 24:
	default:
		return nil, &types.FormatError{ID: id, Format: "bmp", Reason: fmt.Sprintf("%d bits per pixel not supported", h.bits), Offset: 28}
	}

	if h.bits <= 8 {
		entries := h.clrUsed
		if entries == 0 {
			entries = 1 << h.bits
		}
		// Palette follows the info header directly.
		if err := s.Seek(14 + int64(headerSize)); err != nil {
			return nil, err
		}
		quad := make([]byte, 4*entries)
		if err := s.ReadFull(quad, "palette"); err != nil {
			return nil, err
		}
		table := &types.ColorTable{
			R: make([]uint8, entries),
			G: make([]uint8, entries),
			B: make([]uint8, entries),
		}
		for i := 0; i < entries; i++ {
			table.B[i] = quad[4*i]
			table.G[i] = quad[4*i+1]
			table.R[i] = quad[4*i+2]
		}
		h.colors = table
	}
	return h, nil
}

func check(_ string, s *stream.Stream) (bool, error) {
	sig, err := s.ReadString(2, "signature")
	if err != nil {
		return false, err
	}
	return sig == magic, nil
}

type parser struct {
	f *format.Format
}

func (p parser) Parse(ctx context.Context, c *format.Context, id string, cfg format.ParseConfig) (*types.Metadata, error) {
	return format.ParseStream(ctx, c, id, p.f, cfg, func(_ context.Context, _ *format.Context, s *stream.Stream, meta *types.Metadata, _ format.ParseConfig) error {
		h, err := readHeader(id, s)
		if err != nil {
			return err
		}

		im := types.ImageMetadata{
			Axes: []types.Axis{
				{Type: types.AxisX, Length: h.width},
				{Type: types.AxisY, Length: h.height},
			},
			Pixel: types.UInt8,
			Order: binary.LittleEndian,
		}
		if h.bits < 8 {
			im.BitsPerPixel = h.bits
		}
		if h.bits == 24 {
			im.Axes = append(im.Axes, types.Axis{Type: types.AxisChannel, Length: 3})
		} else {
			im.Indexed = true
			im.Colors = h.colors
		}
		meta.Images = []types.ImageMetadata{im}

		meta.Put("width", fmt.Sprint(h.width))
		meta.Put("height", fmt.Sprint(h.height))
		meta.Put("bits per pixel", fmt.Sprint(h.bits))
		if h.topDown {
			meta.Put("row order", "top-down")
		} else {
			meta.Put("row order", "bottom-up")
		}
		if h.colors != nil {
			meta.Put("palette entries", fmt.Sprint(h.colors.Len()))
		}

		length, err := s.Length()
		if err != nil {
			return err
		}
		if need := h.dataOffset + int64(h.stride())*int64(h.height); length < need {
			meta.Warn("pixels", fmt.Sprintf("pixel data truncated: need %d bytes, have %d", need, length), length)
		}
		return nil
	})
}

type reader struct {
	format.Base
	s   *stream.Stream
	hdr *header
}

func (r *reader) OpenPlane(series, plane int) (*types.Plane, error) {
	im, err := r.CheckPlane(series, plane)
	if err != nil {
		return nil, err
	}
	return r.OpenRegion(series, plane, 0, 0, im.SizeX(), im.SizeY())
}

func (r *reader) OpenRegion(series, plane, x, y, w, h int) (*types.Plane, error) {
	im, err := r.CheckRegion(series, plane, x, y, w, h)
	if err != nil {
		return nil, err
	}
	p := r.NewPlane(im, series, plane, x, y, w, h)

	hdr := r.hdr
	stride := int64(hdr.stride())
	row := make([]byte, stride)
	for j := 0; j < h; j++ {
		line := y + j
		if !hdr.topDown {
			line = hdr.height - 1 - (y + j)
		}
		if err := r.s.Seek(hdr.dataOffset + int64(line)*stride); err != nil {
			return nil, err
		}
		if err := r.s.ReadFull(row, "pixel row"); err != nil {
			return nil, err
		}
		out := p.Bytes[j*w : (j+1)*w]
		switch {
		case hdr.bits == 24:
			// Stored blue, green, red; plane index selects the channel.
			for i := 0; i < w; i++ {
				out[i] = row[3*(x+i)+2-plane]
			}
		case hdr.bits == 8:
			copy(out, row[x:x+w])
		default:
			enc := decode.Encoding{Pixel: types.UInt8, Bits: hdr.bits}
			if err := decode.Convert(out, row, x, enc); err != nil {
				return nil, &types.FormatError{ID: r.Metadata().ID, Format: "bmp", Reason: err.Error()}
			}
		}
	}
	return r.FinishPlane(p, im), nil
}

func (r *reader) Close() error {
	if !r.MarkClosed() {
		return nil
	}
	return r.s.Close()
}

func init() {
	f := &format.Format{
		Name:     "bmp",
		Suffixes: []string{"bmp"},
		Priority: 50,
		Check:    check,
	}
	f.NewParser = func() format.Parser { return parser{f: f} }
	f.NewReader = func(ctx context.Context, c *format.Context, id string, meta *types.Metadata, cfg format.ReadConfig) (format.Reader, error) {
		s, err := c.OpenStream(ctx, id)
		if err != nil {
			return nil, err
		}
		hdr, err := readHeader(id, s)
		if err != nil {
			s.Close()
			return nil, err
		}
		return &reader{Base: format.NewBase(meta, cfg), s: s, hdr: hdr}, nil
	}
	format.Register(f)
}
