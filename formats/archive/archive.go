// Package archive registers the container formats: zip archives and
// gzip/bzip2/xz/zstd/lz4 compressed streams.
//
// Containers never serve planes themselves. Unwrap maps the decompressed
// entry into the context's location service under its own identifier, and
// identification recurses on that content, so the parser and reader simply
// delegate to whichever format claims the entry. Closing the reader closes
// the wrapped reader and releases the entry mapping. Containers are
// read-only.
package archive

import (
	"context"
	"fmt"
	"strings"

	"github.com/ngladitz/scifio/internal/format"
	"github.com/ngladitz/scifio/internal/handle"
	"github.com/ngladitz/scifio/internal/stream"
	"github.com/ngladitz/scifio/internal/types"
)

const zipMagic = "PK\x03\x04"

func checkMagic(magic []byte) func(string, *stream.Stream) (bool, error) {
	return func(name string, s *stream.Stream) (bool, error) {
		sig, err := s.ReadString(len(magic), "signature")
		if err != nil {
			return false, err
		}
		return sig == string(magic), nil
	}
}

// mapEntry installs the entry handle under inner, unless an earlier unwrap
// of the same container already did.
func mapEntry(c *format.Context, inner string, h handle.Handle) string {
	if c.Location().Mapped(inner) != nil {
		h.Close()
		return inner
	}
	c.Location().Map(inner, h)
	return inner
}

func unwrapCodec(codec handle.Codec) func(context.Context, *format.Context, string) (string, error) {
	return func(ctx context.Context, c *format.Context, id string) (string, error) {
		raw, err := c.Location().Open(ctx, id)
		if err != nil {
			return "", err
		}
		e, err := handle.NewEntry(raw, codec, true)
		if err != nil {
			return "", &types.FormatError{
				ID:     id,
				Format: codec.String(),
				Reason: fmt.Sprintf("opening compressed entry: %v", err),
			}
		}
		inner := e.EntryName()
		if inner == id {
			// A stored name must not shadow the container itself.
			inner = id + "!content"
		}
		return mapEntry(c, inner, e), nil
	}
}

func unwrapZip(ctx context.Context, c *format.Context, id string) (string, error) {
	raw, err := c.Location().Open(ctx, id)
	if err != nil {
		return "", err
	}
	z, err := handle.NewZipEntry(raw, "", true)
	if err != nil {
		return "", &types.FormatError{
			ID:     id,
			Format: "zip",
			Reason: fmt.Sprintf("opening zip entry: %v", err),
		}
	}
	return mapEntry(c, id+"!"+z.EntryName(), z), nil
}

// release drops the entry mapping installed by Unwrap and closes its
// handle. Used on the failure paths; success hands the mapping to the
// reader, whose Close performs the same teardown.
func release(c *format.Context, inner string) {
	if h := c.Location().Unmap(inner); h != nil {
		h.Close()
	}
}

// parser unwraps the container and delegates to the format identified
// inside it.
type parser struct {
	f *format.Format
}

func (p parser) Parse(ctx context.Context, c *format.Context, id string, cfg format.ParseConfig) (*types.Metadata, error) {
	inner, err := p.f.Unwrap(ctx, c, id)
	if err != nil {
		return nil, err
	}
	ident, err := c.Identify(ctx, inner)
	if err != nil {
		release(c, inner)
		return nil, err
	}
	meta, err := ident.Format.NewParser().Parse(ctx, c, inner, cfg)
	if err != nil {
		release(c, inner)
		return nil, err
	}
	// The dataset the caller named is the container, not the entry.
	meta.ID = id
	return meta, nil
}

// reader delegates plane access to the wrapped content's reader.
type reader struct {
	inner format.Reader
	c     *format.Context
	entry string
}

func (r *reader) Metadata() *types.Metadata { return r.inner.Metadata() }

func (r *reader) OpenPlane(series, plane int) (*types.Plane, error) {
	return r.inner.OpenPlane(series, plane)
}

func (r *reader) OpenRegion(series, plane, x, y, w, h int) (*types.Plane, error) {
	return r.inner.OpenRegion(series, plane, x, y, w, h)
}

// Close closes the wrapped reader, then unmaps and closes the entry.
// Close is idempotent.
func (r *reader) Close() error {
	err := r.inner.Close()
	if h := r.c.Location().Unmap(r.entry); h != nil {
		if cerr := h.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func newReader(f *format.Format) func(context.Context, *format.Context, string, *types.Metadata, format.ReadConfig) (format.Reader, error) {
	return func(ctx context.Context, c *format.Context, id string, meta *types.Metadata, cfg format.ReadConfig) (format.Reader, error) {
		inner, err := f.Unwrap(ctx, c, id)
		if err != nil {
			return nil, err
		}
		ident, err := c.Identify(ctx, inner)
		if err != nil {
			release(c, inner)
			return nil, err
		}
		ir, err := ident.Format.NewReader(ctx, c, inner, meta, cfg)
		if err != nil {
			release(c, inner)
			return nil, err
		}
		return &reader{inner: ir, c: c, entry: inner}, nil
	}
}

func register(f *format.Format) {
	f.NewParser = func() format.Parser { return parser{f: f} }
	f.NewReader = newReader(f)
	format.Register(f)
}

func init() {
	register(&format.Format{
		Name:     "zip",
		Suffixes: []string{"zip"},
		Priority: 100,
		Check:    checkMagic([]byte(zipMagic)),
		Unwrap:   unwrapZip,
	})

	for _, codec := range []handle.Codec{
		handle.CodecGzip,
		handle.CodecBzip2,
		handle.CodecXz,
		handle.CodecZstd,
		handle.CodecLz4,
	} {
		suffixes := make([]string, 0, 2)
		for _, s := range codec.Suffixes() {
			suffixes = append(suffixes, strings.TrimPrefix(s, "."))
		}
		register(&format.Format{
			Name:     codec.String(),
			Suffixes: suffixes,
			Priority: 100,
			Check:    checkMagic(codec.Magic()),
			Unwrap:   unwrapCodec(codec),
		})
	}
}
