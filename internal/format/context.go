package format

import (
	"context"

	"github.com/ngladitz/scifio/internal/location"
	"github.com/ngladitz/scifio/internal/stream"
	"github.com/ngladitz/scifio/internal/types"
)

// Context ties a format registry to a location service. Every operation
// hangs off one; independent contexts never share identifier mappings, so
// one process can work with differently configured format sets side by
// side.
type Context struct {
	formats  *Registry
	location *location.Service
	block    int
}

// NewContext builds a context. A nil registry snapshots the default set, a
// nil service starts with an empty mapping table, and a non-positive block
// size selects the stream default.
func NewContext(formats *Registry, loc *location.Service, blockSize int) *Context {
	if formats == nil {
		formats = Default()
	}
	if loc == nil {
		loc = location.NewService()
	}
	if blockSize <= 0 {
		blockSize = stream.DefaultBlockSize
	}
	return &Context{formats: formats, location: loc, block: blockSize}
}

// Formats returns the registry.
func (c *Context) Formats() *Registry { return c.formats }

// Location returns the location service.
func (c *Context) Location() *location.Service { return c.location }

// BlockSize returns the stream window size used for this context's
// streams.
func (c *Context) BlockSize() int { return c.block }

// OpenStream resolves id and wraps it in a buffered stream for reading.
func (c *Context) OpenStream(ctx context.Context, id string) (*stream.Stream, error) {
	h, err := c.location.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	return stream.NewSize(h, c.block), nil
}

// CreateStream resolves id and wraps it in a buffered stream for writing.
func (c *Context) CreateStream(ctx context.Context, id string) (*stream.Stream, error) {
	h, err := c.location.Create(ctx, id)
	if err != nil {
		return nil, err
	}
	return stream.NewSize(h, c.block), nil
}

// OpenReader identifies id, parses its metadata and opens a reader for it.
// Container formats delegate to the reader for their unwrapped content, so
// the returned reader always serves image planes.
func (c *Context) OpenReader(ctx context.Context, id string, pcfg ParseConfig, rcfg ReadConfig) (Reader, error) {
	ident, err := c.Identify(ctx, id)
	if err != nil {
		return nil, err
	}
	f := ident.Format
	meta, err := f.NewParser().Parse(ctx, c, id, pcfg)
	if err != nil {
		return nil, err
	}
	return f.NewReader(ctx, c, id, meta, rcfg)
}

// CreateWriter selects the writable format claiming id's suffix, validates
// meta against it and opens a writer.
func (c *Context) CreateWriter(ctx context.Context, id string, meta *types.Metadata) (Writer, error) {
	f := c.formats.WriterFor(id)
	if f == nil {
		return nil, &types.UnknownFormatError{ID: id}
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return f.NewWriter(ctx, c, id, meta)
}
