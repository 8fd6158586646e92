package format

import (
	"context"

	"github.com/ngladitz/scifio/internal/stream"
	"github.com/ngladitz/scifio/internal/types"
)

// ParseConfig is pass-through parser configuration, never parser state.
type ParseConfig struct {
	// OriginalMetadata retains the raw key/value table the format
	// declares. Off, the table is dropped after parsing.
	OriginalMetadata bool

	// FilterMetadata drops noisy raw pairs: empty or unprintable keys
	// and values.
	FilterMetadata bool

	// Strict promotes the first parse warning to an error.
	Strict bool
}

// Parser extracts metadata from a resource. Parsers are cheap, stateless
// values; every Parse call works from the resource alone.
type Parser interface {
	Parse(ctx context.Context, c *Context, id string, cfg ParseConfig) (*types.Metadata, error)
}

// ParseFunc populates meta from a stream positioned at the start, with the
// format already verified.
type ParseFunc func(ctx context.Context, c *Context, s *stream.Stream, meta *types.Metadata, cfg ParseConfig) error

// ParseStream is the shared parse template: open the stream, verify the
// format's signature, delegate to fn, then apply the configuration and
// validate the result.
func ParseStream(ctx context.Context, c *Context, id string, f *Format, cfg ParseConfig, fn ParseFunc) (*types.Metadata, error) {
	s, err := c.OpenStream(ctx, id)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	if f.Check != nil {
		ok, err := f.Check(id, s)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &types.FormatError{ID: id, Format: f.Name, Reason: "signature not found"}
		}
	}
	if err := s.Seek(0); err != nil {
		return nil, err
	}

	meta := &types.Metadata{ID: id}
	if err := fn(ctx, c, s, meta, cfg); err != nil {
		return nil, err
	}

	if !cfg.OriginalMetadata {
		meta.Table = nil
	} else if cfg.FilterMetadata {
		meta.FilterTable()
	}
	if cfg.Strict && len(meta.Warnings) > 0 {
		w := meta.Warnings[0]
		return nil, &types.FormatError{ID: id, Format: f.Name, Reason: w.Message, Offset: w.Offset}
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return meta, nil
}
