package handle

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/zstd"
	gzip "github.com/klauspost/pgzip"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// Codec identifies a stream compression scheme.
type Codec int

const (
	CodecGzip Codec = iota
	CodecBzip2
	CodecXz
	CodecZstd
	CodecLz4
)

func (c Codec) String() string {
	switch c {
	case CodecGzip:
		return "gzip"
	case CodecBzip2:
		return "bzip2"
	case CodecXz:
		return "xz"
	case CodecZstd:
		return "zstd"
	case CodecLz4:
		return "lz4"
	default:
		return "unknown"
	}
}

// Suffixes returns the filename suffixes associated with the codec.
func (c Codec) Suffixes() []string {
	switch c {
	case CodecGzip:
		return []string{".gz"}
	case CodecBzip2:
		return []string{".bz2"}
	case CodecXz:
		return []string{".xz"}
	case CodecZstd:
		return []string{".zst", ".zstd"}
	case CodecLz4:
		return []string{".lz4"}
	default:
		return nil
	}
}

// Magic returns the codec's leading signature bytes.
func (c Codec) Magic() []byte {
	switch c {
	case CodecGzip:
		return []byte{0x1f, 0x8b}
	case CodecBzip2:
		return []byte{'B', 'Z', 'h'}
	case CodecXz:
		return []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	case CodecZstd:
		return []byte{0x28, 0xb5, 0x2f, 0xfd}
	case CodecLz4:
		return []byte{0x04, 0x22, 0x4d, 0x18}
	default:
		return nil
	}
}

var codecs = []Codec{CodecGzip, CodecBzip2, CodecXz, CodecZstd, CodecLz4}

// DetectCodec matches leading bytes against the known codec signatures.
func DetectCodec(magic []byte) (Codec, bool) {
	for _, c := range codecs {
		sig := c.Magic()
		if len(magic) >= len(sig) && bytes.Equal(magic[:len(sig)], sig) {
			return c, true
		}
	}
	return 0, false
}

// CodecForName matches a resource name against the known codec suffixes.
func CodecForName(name string) (Codec, bool) {
	lower := strings.ToLower(name)
	for _, c := range codecs {
		for _, suf := range c.Suffixes() {
			if strings.HasSuffix(lower, suf) {
				return c, true
			}
		}
	}
	return 0, false
}

// Entry is the decompressed content of a compressed stream: one logical
// entry behind a codec, read through the forward-only Stream base.
//
// The raw handle is the enclosing compressed resource. When the entry owns
// it, closing the entry closes it too.
type Entry struct {
	*Stream
	raw   Handle
	codec Codec
	entry string
	owns  bool
}

// NewEntry opens the decompressed view of raw. The codec header is read
// immediately, so a bad signature fails here rather than on first read.
func NewEntry(raw Handle, codec Codec, owns bool) (*Entry, error) {
	e := &Entry{raw: raw, codec: codec, owns: owns}
	e.Stream = NewStream(raw.Name(), e.openEntry)
	if err := e.Stream.sync(); err != nil && err != io.EOF {
		if owns {
			raw.Close()
		}
		return nil, err
	}
	return e, nil
}

// Codec returns the compression scheme of the enclosing resource.
func (e *Entry) Codec() Codec { return e.codec }

// EntryName returns the logical name of the decompressed content: the name
// stored in the codec header when there is one, otherwise the resource name
// with the codec suffix removed.
func (e *Entry) EntryName() string {
	if e.entry != "" {
		return e.entry
	}
	name := e.raw.Name()
	lower := strings.ToLower(name)
	for _, suf := range e.codec.Suffixes() {
		if strings.HasSuffix(lower, suf) {
			return name[:len(name)-len(suf)]
		}
	}
	return name + "!content"
}

func (e *Entry) openEntry() (io.ReadCloser, error) {
	if _, err := e.raw.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	switch e.codec {
	case CodecGzip:
		zr, err := gzip.NewReader(e.raw)
		if err != nil {
			return nil, err
		}
		if e.entry == "" && zr.Header.Name != "" {
			e.entry = zr.Header.Name
		}
		return zr, nil
	case CodecBzip2:
		return bzip2.NewReader(e.raw, nil)
	case CodecXz:
		zr, err := xz.NewReader(e.raw)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(zr), nil
	case CodecZstd:
		zr, err := zstd.NewReader(e.raw)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case CodecLz4:
		return io.NopCloser(lz4.NewReader(e.raw)), nil
	default:
		return nil, fmt.Errorf("%s: unsupported codec %d", e.raw.Name(), int(e.codec))
	}
}

// Close closes the decompressor and, when owned, the enclosing resource.
// Close is idempotent.
func (e *Entry) Close() error {
	if e.Stream.closed {
		return nil
	}
	err := e.Stream.Close()
	if e.owns {
		if cerr := e.raw.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
