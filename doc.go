// Package scifio provides format-agnostic scientific image reading and writing.
//
// scifio is designed to be the inevitable choice for scientific image I/O in
// Go. It supports multiple formats behind a unified API that makes simple
// things simple and complex things possible: open a dataset by name, inspect
// its dimensional metadata, and read planes or sub-regions without caring
// which format produced the bytes.
//
// # Quick Start
//
// Reading a plane from a dataset:
//
//	import (
//		"github.com/ngladitz/scifio"
//
//		_ "github.com/ngladitz/scifio/formats/archive"
//		_ "github.com/ngladitz/scifio/formats/ics"
//	)
//
//	file, err := scifio.Open("embryo.ics")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer file.Close()
//
//	img := &file.Meta.Images[0]
//	fmt.Printf("%dx%d, %d planes of %s\n",
//		img.SizeX(), img.SizeY(), img.PlaneCount(), img.Pixel)
//
//	plane, err := file.OpenPlane(0, 0)
//
// # Supported Formats
//
//   - ICS: Image Cytometry Standard, version 1.0 (.ics/.ids pairs) and
//     version 2.0 (single file), reading and writing
//   - BMP: uncompressed Windows bitmaps, including palette images
//   - Fake: synthetic datasets described entirely by their identifier,
//     for exercising pipelines without fixture files
//   - Containers: gzip, bzip2, xz, zstd, lz4 and zip archives wrapping
//     any other supported format
//
// Formats register themselves when their package is imported, so a program
// links only the formats it names.
//
// # Identification and Containers
//
// Open identifies the dataset by asking every registered format, highest
// priority first, suffix match before content check. Container formats
// unwrap recursively: a Windows bitmap inside a zip inside a gzip stream
// resolves to the bitmap, and Identify reports the whole chain:
//
//	ident, err := scifio.Identify("scan.bmp.zip.gz")
//	for i := ident; i != nil; i = i.Inner {
//		fmt.Println(i.Format, i.ID)
//	}
//
// Identifiers are not limited to local paths. s3:// URIs resolve through
// the AWS SDK, and MapBytes attaches an in-memory buffer to a name:
//
//	c := scifio.NewContext()
//	scifio.MapBytes(c, "probe.ics", data)
//	file, err := scifio.Open("probe.ics", scifio.WithContext(c))
//
// # Writing
//
// Create builds a writer for a metadata description; planes may be saved
// whole or as sub-regions, in any order:
//
//	img := &meta.Images[0]
//	w, err := scifio.Create("out.ics", meta)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for i := 0; i < img.PlaneCount(); i++ {
//		if err := w.SavePlane(0, i, planes[i], 0, 0, img.SizeX(), img.SizeY()); err != nil {
//			log.Fatal(err)
//		}
//	}
//	if err := w.Close(); err != nil {
//		log.Fatal(err)
//	}
//
// # Error Handling
//
// scifio distinguishes between fatal errors and warnings:
//
//   - Fatal errors stop the operation: UnknownFormatError when nothing
//     claims the bytes, FormatError for structure the claiming format
//     cannot accept, IOError for backend failures, BoundsError for
//     requests outside the dataset.
//   - Warnings record non-fatal issues (truncated pixel data, unknown
//     dimension labels) while parsing continues.
//
// Always check file.Warnings for issues encountered during parsing:
//
//	if len(file.Warnings) > 0 {
//		for _, w := range file.Warnings {
//			log.Printf("Warning: %s", w)
//		}
//	}
//
// WithStrictParsing turns the first warning into a FormatError for
// pipelines that would rather fail than guess.
//
// # Philosophy
//
// scifio embodies three core principles:
//
// 1. Predictability: Requests outside bounds fail, they are never clamped.
// Byte order defaults are stated, not inferred. Behavior is documented.
//
// 2. Graceful Degradation: Damaged datasets return partial data plus
// warnings, not errors. Missing optional fields don't stop parsing.
//
// 3. Format Independence: Pipelines are written once against planes and
// axes; adding a format never changes caller code.
//
// # Architecture
//
// The library uses a layered architecture:
//
//	[File]               - Entry point with Open()
//	  ├─ [Metadata]      - Dimensional layout and raw format tables
//	  ├─ [Plane]         - Decoded 2D sections, whole or regional
//	  └─ [Identity]      - The format chain that claimed the bytes
//
// Format packages implement a common interface, so adding a format never
// touches the public API.
//
// # Performance
//
// scifio is designed for speed:
//
//   - Buffered streams: block-cached reads, 256 KiB windows by default
//   - Regional access: OpenRegion reads only the rows it returns
//   - Concurrent: OpenMany() opens datasets in parallel
//   - Generics: samples convert without reflection or boxing
//
// # Modern Go
//
// scifio showcases modern Go patterns:
//
//   - Generics: type-safe binary reading and sample conversion
//   - Structured concurrency: context-aware operations throughout
//   - Errors: taxonomy built for errors.Is and errors.As
package scifio
