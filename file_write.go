package scifio

import (
	"context"
	"fmt"
	"strings"

	"github.com/ngladitz/scifio/internal/format"
	"github.com/ngladitz/scifio/internal/types"
)

// Writer saves image planes to a dataset created with Create.
//
// Planes may be saved in any order; regions unwritten when the writer is
// closed read back as zeros.
type Writer = format.Writer

// Create creates a dataset at id and returns a writer for it.
//
// The writable format is selected by id's suffix; meta is validated
// against the model invariants before anything is written. Datasets can
// target local paths, s3:// URIs, and identifiers mapped with MapBytes.
//
// Example:
//
//	meta := &scifio.Metadata{
//	    ID: "out.ics",
//	    Images: []scifio.ImageMetadata{{
//	        Axes: []scifio.Axis{
//	            {Type: scifio.AxisX, Length: 512},
//	            {Type: scifio.AxisY, Length: 512},
//	            {Type: scifio.AxisZ, Length: 16},
//	        },
//	        Pixel: scifio.UInt16,
//	    }},
//	}
//	w, err := scifio.Create("out.ics", meta)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	err = w.SavePlane(0, 0, plane, 0, 0, 512, 512)
//
// Returns UnknownFormatError if no writable format claims the suffix.
func Create(id string, meta *Metadata, opts ...CreateOption) (Writer, error) {
	return CreateContext(context.Background(), id, meta, opts...)
}

// CreateContext is Create with context support for cancellation.
func CreateContext(ctx context.Context, id string, meta *Metadata, opts ...CreateOption) (Writer, error) {
	options := defaultCreateOptions()
	for _, opt := range opts {
		opt(options)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := createTarget(id, options)
	if err != nil {
		return nil, err
	}
	return options.context().CreateWriter(ctx, target, meta)
}

// createTarget applies the requested ICS layout by steering between the
// suffix pair: version 1 stores pixels in the .ids half of a header/data
// pair, version 2 is a single .ics file.
func createTarget(id string, o *createOptions) (string, error) {
	if o.icsVersion == 0 {
		return id, nil
	}
	lower := strings.ToLower(id)
	switch o.icsVersion {
	case 1:
		if strings.HasSuffix(lower, ".ics") {
			return id[:len(id)-4] + ".ids", nil
		}
	case 2:
		if strings.HasSuffix(lower, ".ids") {
			return id[:len(id)-4] + ".ics", nil
		}
	default:
		return "", &types.FormatError{
			ID:     id,
			Format: "ics",
			Reason: fmt.Sprintf("version %d is not writable, only 1 and 2", o.icsVersion),
		}
	}
	return id, nil
}
