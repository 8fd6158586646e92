package scifio

import (
	"github.com/ngladitz/scifio/internal/format"
)

// Option configures behavior when opening datasets.
//
// Options use the functional options pattern:
//
//	file, err := scifio.Open("cells.ics",
//	    scifio.WithStrictParsing(),
//	    scifio.WithOriginalMetadata(),
//	)
type Option func(*openOptions)

// openOptions holds configuration for opening datasets.
type openOptions struct {
	ctx   *Context           // shared context; nil builds a private one
	block int                // stream window size for private contexts
	parse format.ParseConfig // pass-through parser configuration
	read  format.ReadConfig  // pass-through reader configuration
}

// defaultOptions returns the default configuration.
func defaultOptions() *openOptions {
	return &openOptions{}
}

// context returns the shared context, or builds a private one.
func (o *openOptions) context() *Context {
	if o.ctx != nil {
		return o.ctx
	}
	return format.NewContext(nil, nil, o.block)
}

// WithContext opens the dataset within c instead of a private context.
//
// A shared context carries the identifier mappings installed with MapBytes
// and lets many opens reuse one format registry snapshot:
//
//	c := scifio.NewContext()
//	scifio.MapBytes(c, "mem.ics", data)
//	file, err := scifio.Open("mem.ics", scifio.WithContext(c))
func WithContext(c *Context) Option {
	return func(o *openOptions) {
		o.ctx = c
	}
}

// WithStrictParsing treats any parse warning as a fatal error.
//
// By default parsing continues past recoverable oddities such as unknown
// header keys or truncated pixel data, collecting them in File.Warnings.
// With strict parsing enabled, the first warning aborts the open.
func WithStrictParsing() Option {
	return func(o *openOptions) {
		o.parse.Strict = true
	}
}

// WithOriginalMetadata retains the format's raw key/value table.
//
// By default the raw table is dropped after parsing and only the typed
// metadata survives. With this option File.Meta.Table holds every header
// pair the format declared:
//
//	file, err := scifio.Open("cells.ics", scifio.WithOriginalMetadata())
//	fmt.Println(file.Meta.Table["layout sizes"])
func WithOriginalMetadata() Option {
	return func(o *openOptions) {
		o.parse.OriginalMetadata = true
	}
}

// WithMetadataFilter drops noisy raw table pairs: empty keys and values,
// and entries containing unprintable characters. Only meaningful together
// with WithOriginalMetadata.
func WithMetadataFilter() Option {
	return func(o *openOptions) {
		o.parse.FilterMetadata = true
	}
}

// WithNormalized rewrites declared non-IEEE float layouts into standard
// IEEE layout when planes are read.
//
// The declaration comes from the dataset's metadata; sample values are
// never inspected to guess a layout. Integer data is unaffected.
func WithNormalized() Option {
	return func(o *openOptions) {
		o.read.Normalized = true
	}
}

// WithBlockSize sets the buffered stream window size in bytes.
//
// The default window is 256 KiB. The size applies to the private context
// the open builds; it is ignored when WithContext supplies one.
func WithBlockSize(n int) Option {
	return func(o *openOptions) {
		o.block = n
	}
}
