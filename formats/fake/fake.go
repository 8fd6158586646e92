// Package fake implements a simulated image format for testing pipelines
// without touching storage.
//
// A fake identifier carries its whole configuration: everything before the
// first '&' is a display name, the rest are key=value parameters, and the
// identifier ends in ".fake". No resource is ever opened; planes are
// synthesized on demand with the deterministic sample value
// x + y + plane + series, truncated to the pixel width.
//
//	cells&sizeX=256&sizeY=256&sizeZ=5&pixelType=uint16.fake
package fake

import (
	"context"
	"encoding/binary"
	"math"
	"strconv"
	"strings"

	"github.com/ngladitz/scifio/internal/decode"
	"github.com/ngladitz/scifio/internal/format"
	"github.com/ngladitz/scifio/internal/types"
)

const suffix = ".fake"

// Defaults for parameters the identifier leaves out.
const (
	defaultSizeX = 512
	defaultSizeY = 512
)

type parser struct{}

// Parse builds metadata from the identifier alone.
func (parser) Parse(_ context.Context, _ *format.Context, id string, cfg format.ParseConfig) (*types.Metadata, error) {
	meta := &types.Metadata{ID: id}

	body := id
	if strings.HasSuffix(strings.ToLower(id), suffix) {
		body = id[:len(id)-len(suffix)]
	}
	parts := strings.Split(body, "&")
	meta.Put("name", parts[0])

	sizes := map[string]int{
		"sizeX": defaultSizeX,
		"sizeY": defaultSizeY,
		"sizeZ": 1,
		"sizeC": 1,
		"sizeT": 1,
	}
	pixel := types.UInt8
	bits := 0
	series := 1
	tileW, tileH := 0, 0
	little := false
	indexed := false
	swapped := false

	for _, kv := range parts[1:] {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			meta.Warn("header", "parameter "+strconv.Quote(kv)+" is not key=value", 0)
			continue
		}
		meta.Put(key, value)
		if _, known := sizes[key]; known {
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return nil, &types.FormatError{ID: id, Format: "fake", Reason: "invalid " + key + " " + strconv.Quote(value)}
			}
			sizes[key] = n
			continue
		}
		switch key {
		case "pixelType":
			p, err := types.ParsePixelType(value)
			if err != nil {
				return nil, &types.FormatError{ID: id, Format: "fake", Reason: err.Error()}
			}
			pixel = p
		case "bitsPerPixel":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return nil, &types.FormatError{ID: id, Format: "fake", Reason: "invalid bitsPerPixel " + strconv.Quote(value)}
			}
			bits = n
		case "series":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return nil, &types.FormatError{ID: id, Format: "fake", Reason: "invalid series " + strconv.Quote(value)}
			}
			series = n
		case "tileWidth", "tileHeight":
			n, err := strconv.Atoi(value)
			if err != nil || n < 1 {
				return nil, &types.FormatError{ID: id, Format: "fake", Reason: "invalid " + key + " " + strconv.Quote(value)}
			}
			if key == "tileWidth" {
				tileW = n
			} else {
				tileH = n
			}
		case "little":
			little = value == "true"
		case "indexed":
			indexed = value == "true"
		case "floatSwapped":
			swapped = value == "true"
		default:
			meta.Warn("header", "unrecognized parameter "+strconv.Quote(key), 0)
		}
	}
	if bits > pixel.Bits() {
		return nil, &types.FormatError{ID: id, Format: "fake", Reason: "bitsPerPixel exceeds the pixel width"}
	}
	if swapped && !pixel.Float() {
		return nil, &types.FormatError{ID: id, Format: "fake", Reason: "floatSwapped requires a float pixel type"}
	}

	for s := 0; s < series; s++ {
		im := types.ImageMetadata{
			Axes: []types.Axis{
				{Type: types.AxisX, Length: sizes["sizeX"]},
				{Type: types.AxisY, Length: sizes["sizeY"]},
				{Type: types.AxisZ, Length: sizes["sizeZ"]},
				{Type: types.AxisChannel, Length: sizes["sizeC"]},
				{Type: types.AxisTime, Length: sizes["sizeT"]},
			},
			Pixel:        pixel,
			BitsPerPixel: bits,
			TileWidth:    tileW,
			TileHeight:   tileH,
			Indexed:      indexed,
			FloatSwapped: swapped,
		}
		if little {
			im.Order = binary.LittleEndian
		}
		if indexed {
			im.Colors = rampTable()
		}
		meta.Images = append(meta.Images, im)
	}

	if !cfg.OriginalMetadata {
		meta.Table = nil
	} else if cfg.FilterMetadata {
		meta.FilterTable()
	}
	if cfg.Strict && len(meta.Warnings) > 0 {
		w := meta.Warnings[0]
		return nil, &types.FormatError{ID: id, Format: "fake", Reason: w.Message}
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return meta, nil
}

// rampTable is the lookup table for indexed fakes: a rising red ramp, a
// falling green ramp and a half-slope blue ramp.
func rampTable() *types.ColorTable {
	t := &types.ColorTable{
		R: make([]uint8, 256),
		G: make([]uint8, 256),
		B: make([]uint8, 256),
	}
	for i := 0; i < 256; i++ {
		t.R[i] = uint8(i)
		t.G[i] = uint8(255 - i)
		t.B[i] = uint8(i / 2)
	}
	return t
}

type reader struct {
	format.Base
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

	size := format.BytesPerSample(im.Pixel)
	order := im.ByteOrder()
	mask := ^uint64(0) >> uint(64-im.ValidBits())
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			sample := x + i + y + j + plane + series
			off := (j*w + i) * size
			if im.Pixel.Float() {
				if size == 4 {
					order.PutUint32(p.Bytes[off:], math.Float32bits(float32(sample)))
				} else {
					order.PutUint64(p.Bytes[off:], math.Float64bits(float64(sample)))
				}
				continue
			}
			v := uint64(sample) & mask
			switch size {
			case 1:
				p.Bytes[off] = byte(v)
			case 2:
				order.PutUint16(p.Bytes[off:], uint16(v))
			case 4:
				order.PutUint32(p.Bytes[off:], uint32(v))
			case 8:
				order.PutUint64(p.Bytes[off:], v)
			}
		}
	}
	// Word-swapped fakes store their floats swapped; swapping is its own
	// inverse, so one pass over the IEEE bytes produces the layout.
	if im.FloatSwapped && im.Pixel.Float() {
		decode.Canonicalize(p.Bytes, decode.Encoding{Pixel: im.Pixel, Order: order, Swapped: true})
	}
	return r.FinishPlane(p, im), nil
}

func (r *reader) Close() error {
	r.MarkClosed()
	return nil
}

func init() {
	f := &format.Format{
		Name:     "fake",
		Suffixes: []string{"fake"},
		Priority: 0,
	}
	f.NewParser = func() format.Parser { return parser{} }
	f.NewReader = func(_ context.Context, _ *format.Context, _ string, meta *types.Metadata, cfg format.ReadConfig) (format.Reader, error) {
		return &reader{Base: format.NewBase(meta, cfg)}, nil
	}
	format.Register(f)
}
