package scifio

import (
	"github.com/ngladitz/scifio/internal/format"
)

// CreateOption configures behavior when creating datasets.
//
// Example:
//
//	w, err := scifio.Create("out.ics", meta,
//	    scifio.WithICSVersion(1),
//	)
type CreateOption func(*createOptions)

// createOptions holds configuration for creating datasets.
type createOptions struct {
	ctx        *Context // shared context; nil builds a private one
	block      int      // stream window size for private contexts
	icsVersion int      // 0 selects the layout by suffix
}

// defaultCreateOptions returns the default configuration.
func defaultCreateOptions() *createOptions {
	return &createOptions{}
}

// context returns the shared context, or builds a private one.
func (o *createOptions) context() *Context {
	if o.ctx != nil {
		return o.ctx
	}
	return format.NewContext(nil, nil, o.block)
}

// WithCreateContext creates the dataset within c instead of a private
// context. Required when the target identifier is mapped with MapBytes,
// since mappings never cross contexts.
func WithCreateContext(c *Context) CreateOption {
	return func(o *createOptions) {
		o.ctx = c
	}
}

// WithICSVersion selects the on-disk layout for ICS datasets.
//
// Version 1 stores the header and the pixel data as a companion pair
// (.ics plus .ids); version 2 stores both in a single .ics file. By
// default the layout follows the suffix the dataset was created under:
// .ids selects version 1, .ics selects version 2.
//
//	// A version 1 pair for the dataset named out.ics:
//	w, err := scifio.Create("out.ics", meta, scifio.WithICSVersion(1))
//	// writes the header to out.ics and pixels to out.ids
func WithICSVersion(version int) CreateOption {
	return func(o *createOptions) {
		o.icsVersion = version
	}
}

// WithCreateBlockSize sets the buffered stream window size in bytes for
// the private context the create builds. Ignored with WithCreateContext.
func WithCreateBlockSize(n int) CreateOption {
	return func(o *createOptions) {
		o.block = n
	}
}
