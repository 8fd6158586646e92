package format

import (
	"context"
	"errors"
	"io"

	"github.com/ngladitz/scifio/internal/stream"
	"github.com/ngladitz/scifio/internal/types"
)

// maxUnwrapDepth bounds container recursion during identification.
const maxUnwrapDepth = 8

// Identity names the format of a resource. For containers, Inner describes
// the wrapped content, forming a chain that ends at the image format.
type Identity struct {
	Format *Format
	ID     string
	Inner  *Identity
}

// Leaf returns the innermost identity, the one whose format serves image
// planes.
func (i *Identity) Leaf() *Identity {
	for i.Inner != nil {
		i = i.Inner
	}
	return i
}

// Identify determines the format of id by walking the registry in priority
// order. The probe stream is opened lazily and at most once; when the
// resource cannot be opened, only formats whose suffix alone is sufficient
// can match. Container matches recurse on the unwrapped content.
func (c *Context) Identify(ctx context.Context, id string) (*Identity, error) {
	return c.identify(ctx, id, 0)
}

func (c *Context) identify(ctx context.Context, id string, depth int) (*Identity, error) {
	if depth >= maxUnwrapDepth {
		return nil, &types.FormatError{
			ID:     id,
			Format: "container",
			Reason: "nesting deeper than 8 levels",
		}
	}

	var (
		probe   *stream.Stream
		openErr error
		opened  bool
	)
	open := func() *stream.Stream {
		if !opened {
			opened = true
			s, err := c.OpenStream(ctx, id)
			if err != nil {
				openErr = err
				return nil
			}
			probe = s
		}
		return probe
	}
	defer func() {
		if probe != nil {
			probe.Close()
		}
	}()

	for _, f := range c.formats.Formats() {
		if f.Check == nil {
			if !f.MatchSuffix(id) {
				continue
			}
		} else {
			s := open()
			if s == nil {
				continue
			}
			if err := s.Seek(0); err != nil {
				return nil, err
			}
			ok, err := f.Check(id, s)
			if err != nil {
				// Content shorter than a checker's probe is a
				// mismatch, not a failure.
				var be *types.BoundsError
				if errors.As(err, &be) || errors.Is(err, io.EOF) {
					continue
				}
				return nil, err
			}
			if !ok {
				continue
			}
		}

		ident := &Identity{Format: f, ID: id}
		if f.Unwrap == nil {
			return ident, nil
		}
		inner, err := f.Unwrap(ctx, c, id)
		if err != nil {
			return nil, err
		}
		ident.Inner, err = c.identify(ctx, inner, depth+1)
		if err != nil {
			if h := c.location.Unmap(inner); h != nil {
				h.Close()
			}
			return nil, err
		}
		return ident, nil
	}

	if openErr != nil {
		return nil, openErr
	}
	return nil, &types.UnknownFormatError{ID: id}
}
