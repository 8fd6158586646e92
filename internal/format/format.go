// Package format defines image formats and the machinery that discovers,
// parses, reads and writes them.
//
// A Format is a data-plus-functions descriptor: suffixes and priority for
// matching, an optional content checker, an optional container unwrapper,
// and factories for the format's parser, reader and writer. Format packages
// register themselves during initialization; a Context snapshots the
// registered set into an immutable registry whose order is deterministic
// regardless of import order.
package format

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ngladitz/scifio/internal/stream"
	"github.com/ngladitz/scifio/internal/types"
)

// Format describes one image format.
type Format struct {
	// Name identifies the format in errors and metadata.
	Name string

	// Suffixes are the filename suffixes the format claims, lowercase,
	// without the leading dot.
	Suffixes []string

	// Priority orders identification: higher runs first. Container
	// formats outrank image formats so wrapped content is unwrapped
	// before image checkers see it.
	Priority int

	// Check reports whether the stream holds this format. A nil Check
	// means a suffix match alone is sufficient. Checkers must leave
	// classification to the caller: return false, not an error, for
	// content that merely is not theirs.
	Check func(name string, s *stream.Stream) (bool, error)

	// Unwrap exposes the content inside a container resource and returns
	// its identifier, mapping it in the context's location service.
	// Unwrap must be idempotent: a second call returns the same
	// identifier without rebuilding the mapping. Nil for image formats.
	Unwrap func(ctx context.Context, c *Context, id string) (string, error)

	// NewParser returns a fresh parser.
	NewParser func() Parser

	// NewReader opens a reader for a resource already parsed into meta.
	NewReader func(ctx context.Context, c *Context, id string, meta *types.Metadata, cfg ReadConfig) (Reader, error)

	// NewWriter opens a writer that saves planes to id following meta.
	// Nil marks the format read-only.
	NewWriter func(ctx context.Context, c *Context, id string, meta *types.Metadata) (Writer, error)
}

// MatchSuffix reports whether id ends in one of the format's suffixes.
func (f *Format) MatchSuffix(id string) bool {
	lower := strings.ToLower(id)
	for _, s := range f.Suffixes {
		if strings.HasSuffix(lower, "."+s) {
			return true
		}
	}
	return false
}

var (
	registerMu sync.Mutex
	registered []*Format
)

// Register adds a format to the process-wide default set. Format packages
// call this from init.
func Register(f *Format) {
	registerMu.Lock()
	defer registerMu.Unlock()
	registered = append(registered, f)
}

// Default snapshots the registered formats into a registry.
func Default() *Registry {
	registerMu.Lock()
	defer registerMu.Unlock()
	return NewRegistry(registered...)
}

// Registry is an immutable, deterministically ordered set of formats.
type Registry struct {
	formats []*Format
}

// NewRegistry builds a registry ordered by priority, highest first, with
// ties broken by name.
func NewRegistry(formats ...*Format) *Registry {
	ordered := make([]*Format, len(formats))
	copy(ordered, formats)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority > ordered[j].Priority
		}
		return ordered[i].Name < ordered[j].Name
	})
	return &Registry{formats: ordered}
}

// Formats returns the formats in identification order.
func (r *Registry) Formats() []*Format {
	return r.formats
}

// ByName returns the named format, or nil.
func (r *Registry) ByName(name string) *Format {
	for _, f := range r.formats {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// WriterFor returns the first format in identification order that claims
// id's suffix and can write, or nil.
func (r *Registry) WriterFor(id string) *Format {
	for _, f := range r.formats {
		if f.NewWriter != nil && f.MatchSuffix(id) {
			return f
		}
	}
	return nil
}
