package scifio

import (
	"context"

	"github.com/ngladitz/scifio/internal/format"
	"github.com/ngladitz/scifio/internal/handle"
)

// Context ties a format registry snapshot to a location service. Every
// operation runs within one; Open builds a private context unless
// WithContext shares one across opens.
type Context = format.Context

// NewContext builds a context over the registered formats with an empty
// identifier mapping table.
func NewContext() *Context {
	return format.NewContext(nil, nil, 0)
}

// MapBytes binds id to in-memory content within c. Later operations on c
// resolve id to that content instead of touching storage:
//
//	c := scifio.NewContext()
//	scifio.MapBytes(c, "probe.bmp", data)
//	ident, err := scifio.Identify("probe.bmp", scifio.WithContext(c))
//
// Mapped identifiers are writable; Create targets them too.
func MapBytes(c *Context, id string, data []byte) {
	c.Location().Map(id, handle.NewBytes(id, data))
}

// Identity names the format of a resource. For containers, Inner describes
// the wrapped content, forming a chain that ends at the format serving the
// pixel data.
type Identity struct {
	// Format is the registered format name ("ics", "bmp", "gzip", ...).
	Format string

	// ID is the resource the format claimed. Entries inside containers
	// carry the identifier the container mapped them under.
	ID string

	// Inner is the identity of the wrapped content, or nil.
	Inner *Identity
}

// Leaf returns the innermost identity, the one whose format serves image
// planes.
func (i *Identity) Leaf() *Identity {
	for i.Inner != nil {
		i = i.Inner
	}
	return i
}

// Identify determines the format of id without parsing it.
//
// Formats are probed in priority order, by content where the format
// defines a checker and by suffix otherwise. Container matches recurse on
// the unwrapped content:
//
//	ident, err := scifio.Identify("stack.ics.gz")
//	// ident.Format == "gzip", ident.Leaf().Format == "ics"
//
// No match fails with UnknownFormatError.
func Identify(id string, opts ...Option) (*Identity, error) {
	return IdentifyContext(context.Background(), id, opts...)
}

// IdentifyContext is Identify with context support for cancellation.
func IdentifyContext(ctx context.Context, id string, opts ...Option) (*Identity, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := options.context()
	ident, err := c.Identify(ctx, id)
	if err != nil {
		return nil, err
	}
	// Identification only probes. Release the container entries it
	// unwrapped; opening the dataset rebuilds them on demand.
	releaseEntries(c, ident.Inner)
	return identityChain(ident), nil
}

func identityChain(i *format.Identity) *Identity {
	if i == nil {
		return nil
	}
	return &Identity{
		Format: i.Format.Name,
		ID:     i.ID,
		Inner:  identityChain(i.Inner),
	}
}

// releaseEntries unmaps and closes unwrapped entries, deepest first.
func releaseEntries(c *Context, i *format.Identity) {
	if i == nil {
		return
	}
	releaseEntries(c, i.Inner)
	if h := c.Location().Unmap(i.ID); h != nil {
		h.Close()
	}
}
