package scifio

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ngladitz/scifio/internal/format"
)

// File is an opened image dataset with parsed metadata.
//
// File provides access to the parsed metadata (Meta), the identified format
// name, and the pixel planes through OpenPlane and OpenRegion. Opening a
// file parses only metadata; pixel data is read on demand, plane by plane.
//
// Always call Close when done to release the underlying resources:
//
//	file, err := scifio.Open("cells.ics")
//	if err != nil {
//		return err
//	}
//	defer file.Close()
type File struct {
	// ID is the identifier the file was opened from: a path, an s3://
	// URI, or a mapped in-memory identifier.
	ID string

	// Format is the name of the format serving the pixel data. For
	// compressed or archived datasets this is the format inside the
	// container, not the container itself.
	Format string

	// Meta is the parsed metadata: one ImageMetadata per series, plus
	// the raw header table when requested with WithOriginalMetadata.
	Meta *Metadata

	// Warnings encountered during parsing (non-fatal issues).
	Warnings []Warning

	reader format.Reader
}

// Open opens an image dataset and parses its metadata.
//
// The format is identified by content and suffix against the registered
// formats; compressed and archived datasets are unwrapped transparently.
// Pixel data is not read until OpenPlane or OpenRegion is called.
//
// Corrupt but recoverable content produces warnings instead of errors;
// check File.Warnings, or promote them with WithStrictParsing.
//
// Options customize parsing and reading:
//
//	file, err := scifio.Open("cells.ics",
//	    scifio.WithOriginalMetadata(),
//	    scifio.WithNormalized(),
//	)
//
// Example:
//
//	file, err := scifio.Open("cells.ics")
//	if err != nil {
//		return err
//	}
//	defer file.Close()
//	im := file.Meta.Images[0]
//	fmt.Printf("%dx%d, %d planes of %s\n", im.SizeX(), im.SizeY(), im.PlaneCount(), im.Pixel)
func Open(id string, opts ...Option) (*File, error) {
	return OpenContext(context.Background(), id, opts...)
}

// OpenContext opens a dataset with context support for cancellation.
//
// Identification, parsing and the initial reads all pass the context
// through to the underlying storage, so remote datasets honor deadlines:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//
//	file, err := scifio.OpenContext(ctx, "s3://bucket/stack.ics")
//	if err != nil {
//		return err
//	}
//	defer file.Close()
func OpenContext(ctx context.Context, id string, opts ...Option) (*File, error) {
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
	meta, err := ident.Format.NewParser().Parse(ctx, c, id, options.parse)
	if err != nil {
		return nil, err
	}
	reader, err := ident.Format.NewReader(ctx, c, id, meta, options.read)
	if err != nil {
		return nil, err
	}

	return &File{
		ID:       id,
		Format:   ident.Leaf().Format.Name,
		Meta:     meta,
		Warnings: meta.Warnings,
		reader:   reader,
	}, nil
}

// OpenPlane reads one whole plane of a series.
//
// Planes may be opened repeatedly and in any order without re-parsing.
func (f *File) OpenPlane(series, plane int) (*Plane, error) {
	return f.reader.OpenPlane(series, plane)
}

// OpenRegion reads a rectangular region of one plane.
//
// The region must lie inside the plane; out-of-range requests fail with
// BoundsError rather than being clamped.
func (f *File) OpenRegion(series, plane, x, y, w, h int) (*Plane, error) {
	return f.reader.OpenRegion(series, plane, x, y, w, h)
}

// Close releases the resources held by the file. Close is idempotent.
//
// After Close, plane reads fail with ErrClosed.
func (f *File) Close() error {
	return f.reader.Close()
}

// OpenMany opens multiple datasets concurrently.
//
// Files are opened in parallel using up to runtime.NumCPU() goroutines
// sharing one context, and results are returned in input order. If any
// open fails, the already opened files are closed and the first error is
// returned.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	files, err := scifio.OpenMany(ctx, ids)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer func() {
//		for _, f := range files {
//			f.Close()
//		}
//	}()
func OpenMany(ctx context.Context, ids []string, opts ...Option) ([]*File, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	// One context for the whole batch, so mapped identifiers resolve in
	// every goroutine.
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.ctx == nil {
		shared := options.context()
		opts = append(opts, WithContext(shared))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]*File, len(ids))
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			file, err := OpenContext(ctx, id, opts...)
			if err != nil {
				return err
			}
			results[i] = file
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, file := range results {
			if file != nil {
				file.Close()
			}
		}
		return nil, err
	}
	return results, nil
}
