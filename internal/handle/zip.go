package handle

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"
	"sync"
)

// handleReaderAt adapts a Handle to io.ReaderAt for the zip directory
// reader. Positioned reads are serialized through the handle's seek/read
// cursor.
type handleReaderAt struct {
	mu sync.Mutex
	h  Handle
}

func (r *handleReaderAt) ReadAt(p []byte, off int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.h.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(r.h, p)
}

// ZipEntry is one entry of a zip archive, read through the forward-only
// Stream base. The uncompressed length and data offset come from the
// archive's central directory.
type ZipEntry struct {
	*Stream
	raw    Handle
	file   *zip.File
	offset int64
	owns   bool
}

// NewZipEntry opens the named entry of the zip archive behind raw. An empty
// entry name selects the first regular entry.
func NewZipEntry(raw Handle, entry string, owns bool) (*ZipEntry, error) {
	closeRaw := func(err error) error {
		if owns {
			raw.Close()
		}
		return err
	}

	size, err := raw.Length()
	if err != nil {
		return nil, closeRaw(err)
	}
	zr, err := zip.NewReader(&handleReaderAt{h: raw}, size)
	if err != nil {
		return nil, closeRaw(err)
	}

	var file *zip.File
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		if entry == "" || f.Name == entry {
			file = f
			break
		}
	}
	if file == nil {
		return nil, closeRaw(fmt.Errorf("%s: no zip entry %q", raw.Name(), entry))
	}

	offset, err := file.DataOffset()
	if err != nil {
		return nil, closeRaw(err)
	}

	z := &ZipEntry{raw: raw, file: file, offset: offset, owns: owns}
	z.Stream = NewStream(raw.Name(), func() (io.ReadCloser, error) {
		return file.Open()
	})
	z.Stream.setLength(int64(file.UncompressedSize64))
	return z, nil
}

// ZipEntries lists the regular entry names of the zip archive behind raw.
func ZipEntries(raw Handle) ([]string, error) {
	size, err := raw.Length()
	if err != nil {
		return nil, err
	}
	zr, err := zip.NewReader(&handleReaderAt{h: raw}, size)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, "/") {
			continue
		}
		names = append(names, f.Name)
	}
	return names, nil
}

// EntryName returns the entry's name within the archive.
func (z *ZipEntry) EntryName() string { return z.file.Name }

// DataOffset returns the offset of the entry's compressed data within the
// archive.
func (z *ZipEntry) DataOffset() int64 { return z.offset }

// Close closes the entry and, when owned, the enclosing archive handle.
// Close is idempotent.
func (z *ZipEntry) Close() error {
	if z.Stream.closed {
		return nil
	}
	err := z.Stream.Close()
	if z.owns {
		if cerr := z.raw.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
