// Package ics reads and writes Image Cytometry Standard files.
//
// The format keeps a tab-separated text header either alongside the pixel
// data (version 1, an .ics header naming an .ids pixel file) or in front of
// it (version 2, a single .ics file with pixel data after the end marker).
// Pixel data may be gzip-compressed, in which case the reader inflates it
// into memory when it opens. Writing produces uncompressed files in either
// layout, selected by the target suffix.
package ics

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"path"
	"slices"
	"strconv"
	"strings"

	gzip "github.com/klauspost/pgzip"

	"github.com/ngladitz/scifio/internal/format"
	"github.com/ngladitz/scifio/internal/handle"
	"github.com/ngladitz/scifio/internal/stream"
	"github.com/ngladitz/scifio/internal/types"
)

const (
	magic      = "ics_version"
	formatName = "ics"
)

// header carries the layout facts the parser, reader and writer share.
type header struct {
	version int
	gzip    bool

	// dataOffset is the first pixel byte in a version 2 file
	dataOffset int64

	im types.ImageMetadata
}

type sampleFormat int

const (
	formatInteger sampleFormat = iota
	formatReal
	formatComplex
)

var sampleFormats = &types.EnumTable[sampleFormat]{
	Name: "sample format",
	Entries: []types.EnumEntry[sampleFormat]{
		{Value: formatInteger, Aliases: []string{"integer"}},
		{Value: formatReal, Aliases: []string{"real", "float"}},
		{Value: formatComplex, Aliases: []string{"complex"}},
	},
}

var sampleSigns = &types.EnumTable[bool]{
	Name: "sample sign",
	Entries: []types.EnumEntry[bool]{
		{Value: true, Aliases: []string{"signed"}},
		{Value: false, Aliases: []string{"unsigned"}},
	},
}

type compression int

const (
	compressionNone compression = iota
	compressionGzip
)

var compressions = &types.EnumTable[compression]{
	Name: "compression",
	Entries: []types.EnumEntry[compression]{
		{Value: compressionNone, Aliases: []string{"uncompressed", "none"}},
		{Value: compressionGzip, Aliases: []string{"gzip", "compressed"}},
	},
}

func isIDS(id string) bool {
	return strings.HasSuffix(strings.ToLower(id), ".ids")
}

// headerID maps a pixel data identifier to its header companion.
func headerID(id string) string {
	if isIDS(id) {
		return id[:len(id)-4] + ".ics"
	}
	return id
}

// dataID maps a header identifier to its pixel data companion. Identifiers
// without the .ics suffix map to themselves.
func dataID(id string) string {
	if strings.HasSuffix(strings.ToLower(id), ".ics") {
		return id[:len(id)-4] + ".ids"
	}
	return id
}

// splitTokens breaks a header line into its tab-separated fields.
func splitTokens(line string) []string {
	var out []string
	for _, t := range strings.Split(line, "\t") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// headerKey splits a line's tokens into the table key and its values.
// Top-level keys stand alone; category lines contribute their first two
// tokens to the key.
func headerKey(tokens []string) (string, []string) {
	switch tokens[0] {
	case "ics_version", "filename":
		return tokens[0], tokens[1:]
	}
	if len(tokens) < 2 {
		return tokens[0], nil
	}
	return tokens[0] + " " + tokens[1], tokens[2:]
}

// fields splits value tokens further on spaces, since files separate list
// entries with either the field separator or plain spaces.
func fields(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Fields(v)...)
	}
	return out
}

func intList(values []string) ([]int, error) {
	var out []int
	for _, f := range fields(values) {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", f)
		}
		out = append(out, n)
	}
	return out, nil
}

// layoutPattern generates the byte_order tokens for a layout: ascending for
// little-endian, descending for big-endian, and with 16-bit words exchanged
// for the word-swapped float layouts.
func layoutPattern(width int, little, swapped bool) []int {
	p := make([]int, width)
	if !swapped {
		for k := range p {
			if little {
				p[k] = k + 1
			} else {
				p[k] = width - k
			}
		}
		return p
	}
	for w := 0; w < width/2; w++ {
		if little {
			base := width - 2*(w+1)
			p[2*w], p[2*w+1] = base+1, base+2
		} else {
			p[2*w], p[2*w+1] = 2*w+2, 2*w+1
		}
	}
	return p
}

// resolveByteOrder matches byte_order tokens against the canonical layouts
// for the sample width. Tokens are 1-based byte indices in storage order,
// counted from the least significant byte.
func resolveByteOrder(tokens []int, width int) (binary.ByteOrder, bool, bool) {
	if len(tokens) != width {
		return nil, false, false
	}
	if width == 1 {
		return nil, false, tokens[0] == 1
	}
	for _, l := range []struct {
		little  bool
		swapped bool
	}{
		{little: true},
		{little: false},
		{little: true, swapped: true},
		{little: false, swapped: true},
	} {
		if slices.Equal(tokens, layoutPattern(width, l.little, l.swapped)) {
			if l.little {
				return binary.LittleEndian, l.swapped, true
			}
			return binary.BigEndian, l.swapped, true
		}
	}
	return nil, false, false
}

// parseHeader reads the tab-separated header from s up to its end marker
// and resolves the layout and representation keys. Raw pairs and warnings
// are collected into meta.
func parseHeader(id string, s *stream.Stream, meta *types.Metadata) (*header, error) {
	if err := s.Seek(0); err != nil {
		return nil, err
	}

	h := &header{}
	var (
		order     []string
		sizes     []int
		byteOrder []int
		sform     = formatInteger
		comp      = compressionNone
		signed    bool
		sigBits   int
		params    = -1
		ended     bool
	)
	for {
		line, err := s.ReadLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line) == "end" {
			ended = true
			h.dataOffset = s.Offset()
			break
		}
		tokens := splitTokens(line)
		if len(tokens) == 0 {
			continue
		}
		key, values := headerKey(tokens)
		if len(values) == 0 {
			meta.Warn("header", fmt.Sprintf("ignoring header line %q", line), 0)
			continue
		}
		meta.Put(key, strings.Join(values, " "))

		switch key {
		case "ics_version":
			major, _, _ := strings.Cut(values[0], ".")
			switch major {
			case "1":
				h.version = 1
			case "2":
				h.version = 2
			default:
				return nil, &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("unsupported version %q", values[0])}
			}
		case "layout order":
			order = fields(values)
		case "layout sizes":
			if sizes, err = intList(values); err != nil {
				return nil, &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("layout sizes: %v", err)}
			}
		case "layout parameters":
			if params, err = strconv.Atoi(values[0]); err != nil {
				return nil, &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("layout parameters: %q is not an integer", values[0])}
			}
		case "layout significant_bits":
			if sigBits, err = strconv.Atoi(values[0]); err != nil {
				return nil, &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("significant_bits: %q is not an integer", values[0])}
			}
		case "representation format":
			if sform, err = sampleFormats.Lookup(values[0]); err != nil {
				return nil, &types.FormatError{ID: id, Format: formatName, Reason: err.Error()}
			}
		case "representation sign":
			if signed, err = sampleSigns.Lookup(values[0]); err != nil {
				return nil, &types.FormatError{ID: id, Format: formatName, Reason: err.Error()}
			}
		case "representation byte_order":
			if byteOrder, err = intList(values); err != nil {
				return nil, &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("byte_order: %v", err)}
			}
		case "representation compression":
			if comp, err = compressions.Lookup(values[0]); err != nil {
				return nil, &types.FormatError{ID: id, Format: formatName, Reason: err.Error()}
			}
		}
	}

	if h.version == 0 {
		return nil, &types.FormatError{ID: id, Format: formatName, Reason: "ics_version key is missing"}
	}
	if h.version == 2 && !ended {
		return nil, &types.FormatError{ID: id, Format: formatName, Reason: "no end marker before pixel data"}
	}
	if len(order) == 0 || len(sizes) == 0 {
		return nil, &types.FormatError{ID: id, Format: formatName, Reason: "layout order and sizes are required"}
	}
	if len(order) != len(sizes) {
		return nil, &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("layout declares %d order entries but %d sizes", len(order), len(sizes))}
	}
	if order[0] != "bits" {
		return nil, &types.FormatError{ID: id, Format: formatName, Reason: "layout order must begin with bits"}
	}
	if params >= 0 && params != len(order) {
		meta.Warn("header", fmt.Sprintf("layout declares %d parameters for %d order entries", params, len(order)), 0)
	}

	bits := sizes[0]
	axes := make([]types.Axis, 0, len(order)-1)
	for i := 1; i < len(order); i++ {
		label := order[i]
		t, err := types.ParseAxisType(label)
		if err != nil {
			meta.Warn("header", fmt.Sprintf("unknown axis %q", label), 0)
			t = types.AxisOther
		}
		ax := types.Axis{Type: t, Length: sizes[i]}
		if t == types.AxisOther {
			ax.Label = label
		}
		axes = append(axes, ax)
	}

	var pixel types.PixelType
	switch sform {
	case formatComplex:
		return nil, &types.FormatError{ID: id, Format: formatName, Reason: "complex samples are not supported"}
	case formatReal:
		switch bits {
		case 32:
			pixel = types.Float32
		case 64:
			pixel = types.Float64
		default:
			return nil, &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("real samples must be 32 or 64 bits, not %d", bits)}
		}
	default:
		switch {
		case bits == 8 && signed:
			pixel = types.Int8
		case bits == 8:
			pixel = types.UInt8
		case bits == 16 && signed:
			pixel = types.Int16
		case bits == 16:
			pixel = types.UInt16
		case bits == 32 && signed:
			pixel = types.Int32
		case bits == 32:
			pixel = types.UInt32
		case bits == 64 && signed:
			pixel = types.Int64
		case bits == 64:
			pixel = types.UInt64
		default:
			return nil, &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("%d-bit integer samples are not supported", bits)}
		}
	}
	if sigBits > bits {
		return nil, &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("%d significant bits exceed %d-bit storage", sigBits, bits)}
	}

	h.im = types.ImageMetadata{Axes: axes, Pixel: pixel}
	if sigBits > 0 && sigBits < bits {
		h.im.BitsPerPixel = sigBits
	}
	if len(byteOrder) > 0 {
		ord, swapped, ok := resolveByteOrder(byteOrder, bits/8)
		if !ok {
			return nil, &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("unrecognized byte order %v", byteOrder)}
		}
		if swapped && !pixel.Float() {
			return nil, &types.FormatError{ID: id, Format: formatName, Reason: "word-swapped layout requires floating point samples"}
		}
		h.im.Order = ord
		h.im.FloatSwapped = swapped
	}
	h.gzip = comp == compressionGzip
	return h, nil
}

func pixelBytes(im *types.ImageMetadata) int64 {
	return int64(im.SizeX()) * int64(im.SizeY()) * int64(im.PlaneCount()) * int64(format.BytesPerSample(im.Pixel))
}

// warnTruncated records a warning when the resource holding the pixel data
// is shorter than the layout requires.
func warnTruncated(s *stream.Stream, meta *types.Metadata, need int64) error {
	length, err := s.Length()
	if err != nil {
		return err
	}
	if length < need {
		meta.Warn("pixels", fmt.Sprintf("pixel data truncated: need %d bytes, have %d", need, length), length)
	}
	return nil
}

func check(name string, s *stream.Stream) (bool, error) {
	if isIDS(name) {
		// Raw pixel data carries no signature; the suffix names the
		// header companion.
		return true, nil
	}
	sig, err := s.ReadString(len(magic), "signature")
	if err != nil {
		return false, err
	}
	return sig == magic, nil
}

type parser struct {
	f *format.Format
}

func (p parser) Parse(ctx context.Context, c *format.Context, id string, cfg format.ParseConfig) (*types.Metadata, error) {
	return format.ParseStream(ctx, c, id, p.f, cfg, func(ctx context.Context, c *format.Context, s *stream.Stream, meta *types.Metadata, _ format.ParseConfig) error {
		hs := s
		if isIDS(id) {
			var err error
			if hs, err = c.OpenStream(ctx, headerID(id)); err != nil {
				return &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("header companion %s is missing", headerID(id))}
			}
			defer hs.Close()
		}
		h, err := parseHeader(id, hs, meta)
		if err != nil {
			return err
		}
		meta.Images = []types.ImageMetadata{h.im}

		switch {
		case h.version == 2:
			if !h.gzip {
				return warnTruncated(hs, meta, h.dataOffset+pixelBytes(&h.im))
			}
		case isIDS(id):
			if !h.gzip {
				return warnTruncated(s, meta, pixelBytes(&h.im))
			}
		default:
			did := dataID(id)
			if did == id {
				return &types.FormatError{ID: id, Format: formatName, Reason: "a version 1 header needs an .ics name to locate its pixel data"}
			}
			ds, err := c.OpenStream(ctx, did)
			if err != nil {
				return &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("pixel data companion %s is missing", did)}
			}
			defer ds.Close()
			if !h.gzip {
				return warnTruncated(ds, meta, pixelBytes(&h.im))
			}
		}
		return nil
	})
}

// openData positions a stream over the pixel bytes: the companion .ids for
// version 1, the tail of the header file for version 2. Gzip-compressed
// data is inflated into memory. The returned offset locates the first
// plane within the stream.
func openData(ctx context.Context, c *format.Context, id string, h *header) (*stream.Stream, int64, error) {
	did := id
	base := int64(0)
	switch {
	case h.version == 2:
		did = headerID(id)
		base = h.dataOffset
	case !isIDS(id):
		did = dataID(id)
		if did == id {
			return nil, 0, &types.FormatError{ID: id, Format: formatName, Reason: "a version 1 header needs an .ics name to locate its pixel data"}
		}
	}
	s, err := c.OpenStream(ctx, did)
	if err != nil {
		if h.version == 1 {
			return nil, 0, &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("pixel data companion %s is missing", did)}
		}
		return nil, 0, err
	}
	if !h.gzip {
		return s, base, nil
	}

	if err := s.Seek(base); err != nil {
		s.Close()
		return nil, 0, err
	}
	packed, err := io.ReadAll(s)
	s.Close()
	if err != nil {
		return nil, 0, err
	}
	zr, err := gzip.NewReader(bytes.NewReader(packed))
	if err != nil {
		return nil, 0, &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("inflating pixel data: %v", err)}
	}
	raw, err := io.ReadAll(zr)
	zr.Close()
	if err != nil {
		return nil, 0, &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("inflating pixel data: %v", err)}
	}
	return stream.NewSize(handle.NewBytes(did, raw), c.BlockSize()), 0, nil
}

type reader struct {
	format.Base
	s    *stream.Stream
	base int64
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

	bps := format.BytesPerSample(im.Pixel)
	sizeX := im.SizeX()
	planeSize := int64(sizeX) * int64(im.SizeY()) * int64(bps)
	row := w * bps
	for j := 0; j < h; j++ {
		off := r.base + int64(plane)*planeSize + (int64(y+j)*int64(sizeX)+int64(x))*int64(bps)
		if err := r.s.Seek(off); err != nil {
			return nil, err
		}
		if err := r.s.ReadFull(p.Bytes[j*row:(j+1)*row], "pixel row"); err != nil {
			return nil, err
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

// checkWritable rejects metadata the format cannot represent on disk.
func checkWritable(id string, im *types.ImageMetadata) error {
	switch im.Pixel.Bits() {
	case 8, 16, 32, 64:
	default:
		return &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("%s samples cannot be written", im.Pixel)}
	}
	if im.Indexed {
		return &types.FormatError{ID: id, Format: formatName, Reason: "indexed color cannot be written"}
	}
	if im.FloatSwapped && !im.Pixel.Float() {
		return &types.FormatError{ID: id, Format: formatName, Reason: "word-swapped layout requires floating point samples"}
	}
	return nil
}

func byteOrderTokens(im *types.ImageMetadata) []string {
	width := im.Pixel.Bits() / 8
	p := layoutPattern(width, im.ByteOrder() == binary.LittleEndian, im.FloatSwapped)
	out := make([]string, width)
	for i, v := range p {
		out[i] = strconv.Itoa(v)
	}
	return out
}

// writeHeader emits the tab-separated header through the end marker. For
// version 2 the caller records the stream offset afterwards, since pixel
// data follows directly.
func writeHeader(s *stream.Stream, id string, im *types.ImageMetadata, version int) error {
	bits := im.Pixel.Bits()
	order := []string{"bits"}
	sizes := []string{strconv.Itoa(bits)}
	for _, a := range im.Axes {
		order = append(order, strings.ToLower(a.Name()))
		sizes = append(sizes, strconv.Itoa(a.Length))
	}
	name := path.Base(id)
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}

	lines := [][]string{
		{"ics_version", fmt.Sprintf("%d.0", version)},
		{"filename", name},
		{"layout", "parameters", strconv.Itoa(len(order))},
		append([]string{"layout", "order"}, order...),
		append([]string{"layout", "sizes"}, sizes...),
	}
	if im.BitsPerPixel > 0 {
		lines = append(lines, []string{"layout", "significant_bits", strconv.Itoa(im.BitsPerPixel)})
	}
	if im.Pixel.Float() {
		lines = append(lines, []string{"representation", "format", "real"})
	} else {
		sign := "unsigned"
		if im.Pixel.Signed() {
			sign = "signed"
		}
		lines = append(lines,
			[]string{"representation", "format", "integer"},
			[]string{"representation", "sign", sign})
	}
	if bits > 8 {
		lines = append(lines, append([]string{"representation", "byte_order"}, byteOrderTokens(im)...))
	}
	lines = append(lines,
		[]string{"representation", "compression", "uncompressed"},
		[]string{"end"})

	for _, l := range lines {
		if err := s.WriteString(strings.Join(l, "\t") + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// reserve extends the stream to the full pixel extent so unwritten planes
// read back as zeros.
func reserve(s *stream.Stream, base int64, im *types.ImageMetadata) error {
	total := pixelBytes(im)
	if total == 0 {
		return nil
	}
	if err := s.Seek(base + total - 1); err != nil {
		return err
	}
	_, err := s.Write([]byte{0})
	return err
}

type writer struct {
	format.Base
	s    *stream.Stream
	base int64
}

func (wr *writer) SavePlane(series, plane int, buf []byte, x, y, w, h int) error {
	im, err := wr.CheckSave(series, plane, buf, x, y, w, h)
	if err != nil {
		return err
	}
	bps := format.BytesPerSample(im.Pixel)
	sizeX := im.SizeX()
	planeSize := int64(sizeX) * int64(im.SizeY()) * int64(bps)
	row := w * bps
	for j := 0; j < h; j++ {
		off := wr.base + int64(plane)*planeSize + (int64(y+j)*int64(sizeX)+int64(x))*int64(bps)
		if err := wr.s.Seek(off); err != nil {
			return err
		}
		if _, err := wr.s.Write(buf[j*row : (j+1)*row]); err != nil {
			return err
		}
	}
	return nil
}

func (wr *writer) Close() error {
	if !wr.MarkClosed() {
		return nil
	}
	return wr.s.Close()
}

func init() {
	f := &format.Format{
		Name:     "ics",
		Suffixes: []string{"ics", "ids"},
		Priority: 50,
		Check:    check,
	}
	f.NewParser = func() format.Parser { return parser{f: f} }
	f.NewReader = func(ctx context.Context, c *format.Context, id string, meta *types.Metadata, cfg format.ReadConfig) (format.Reader, error) {
		hs, err := c.OpenStream(ctx, headerID(id))
		if err != nil {
			return nil, err
		}
		h, err := parseHeader(id, hs, &types.Metadata{ID: id})
		hs.Close()
		if err != nil {
			return nil, err
		}
		s, base, err := openData(ctx, c, id, h)
		if err != nil {
			return nil, err
		}
		return &reader{Base: format.NewBase(meta, cfg), s: s, base: base}, nil
	}
	f.NewWriter = func(ctx context.Context, c *format.Context, id string, meta *types.Metadata) (format.Writer, error) {
		if len(meta.Images) != 1 {
			return nil, &types.FormatError{ID: id, Format: formatName, Reason: fmt.Sprintf("the format stores one image per file, not %d", len(meta.Images))}
		}
		im := &meta.Images[0]
		if err := checkWritable(id, im); err != nil {
			return nil, err
		}

		if isIDS(id) {
			hs, err := c.CreateStream(ctx, headerID(id))
			if err != nil {
				return nil, err
			}
			err = writeHeader(hs, id, im, 1)
			if cerr := hs.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return nil, err
			}
			ds, err := c.CreateStream(ctx, id)
			if err != nil {
				return nil, err
			}
			if err := reserve(ds, 0, im); err != nil {
				ds.Close()
				return nil, err
			}
			return &writer{Base: format.NewBase(meta, format.ReadConfig{}), s: ds}, nil
		}

		s, err := c.CreateStream(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := writeHeader(s, id, im, 2); err != nil {
			s.Close()
			return nil, err
		}
		base := s.Offset()
		if err := reserve(s, base, im); err != nil {
			s.Close()
			return nil, err
		}
		return &writer{Base: format.NewBase(meta, format.ReadConfig{}), s: s, base: base}, nil
	}
	format.Register(f)
}
