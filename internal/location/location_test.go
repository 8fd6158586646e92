package location_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/ngladitz/scifio/internal/handle"
	"github.com/ngladitz/scifio/internal/location"
	"github.com/ngladitz/scifio/internal/types"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		id     string
		s3     bool
		bucket string
		key    string
		path   string
		fails  bool
	}{
		{id: "/data/specimen.ics", path: "/data/specimen.ics"},
		{id: "relative/cells.bmp", path: "relative/cells.bmp"},
		{id: "s3://imaging/runs/cells.ids", s3: true, bucket: "imaging", key: "runs/cells.ids"},
		{id: "arn:aws:s3:::imaging/runs/cells.ids", s3: true, bucket: "imaging", key: "runs/cells.ids"},
		{id: "arn:aws:s3:::bucket/imaging/cells.ids", s3: true, bucket: "imaging", key: "cells.ids"},
		{id: "s3://imaging", fails: true},
		{id: "s3:///runs/cells.ids", fails: true},
		{id: "arn:aws:sqs:us-east-1:123:queue", fails: true},
		{id: "arn:aws:s3:::bucketonly", fails: true},
	}
	for _, tt := range tests {
		r, err := location.ParseRef(tt.id)
		if tt.fails {
			if err == nil {
				t.Errorf("%s: expected parse to fail", tt.id)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tt.id, err)
			continue
		}
		if r.S3 != tt.s3 || r.Bucket != tt.bucket || r.Key != tt.key || r.Path != tt.path {
			t.Errorf("%s: expected {%v %q %q %q}, got %+v", tt.id, tt.s3, tt.bucket, tt.key, tt.path, r)
		}
	}
}

func TestMapping(t *testing.T) {
	svc := location.NewService()
	h := handle.NewBytes("inner", []byte("payload"))

	svc.Map("virtual.ids", h)
	if got := svc.Mapped("virtual.ids"); got != h {
		t.Fatal("expected mapped handle back")
	}
	if got := svc.Mapped("other"); got != nil {
		t.Fatal("expected nil for unmapped id")
	}
	if got := svc.Unmap("virtual.ids"); got != h {
		t.Fatal("expected unmap to return the bound handle")
	}
	if got := svc.Mapped("virtual.ids"); got != nil {
		t.Fatal("expected binding to be gone")
	}
}

// Closing the view returned for a mapped identifier must leave the bound
// handle usable; the mapping owner closes the real handle.
func TestOpenMappedIsNonOwning(t *testing.T) {
	svc := location.NewService()
	h := handle.NewBytes("inner", []byte("payload"))
	svc.Map("virtual.ids", h)

	got, err := svc.Open(context.Background(), "virtual.ids")
	if err != nil {
		t.Fatal(err)
	}
	if err := got.Close(); err != nil {
		t.Fatal(err)
	}

	buf := make([]byte, 7)
	if _, err := h.Read(buf); err != nil {
		t.Fatalf("expected bound handle to stay open, got %v", err)
	}
	if string(buf) != "payload" {
		t.Fatalf("expected %q, got %q", "payload", buf)
	}
}

func TestCreateMappedReadOnly(t *testing.T) {
	svc := location.NewService()
	svc.Map("virtual.ids", readOnly{handle.NewBytes("inner", nil)})

	_, err := svc.Create(context.Background(), "virtual.ids")
	if !errors.Is(err, types.ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

type readOnly struct{ handle.Handle }

func (readOnly) Writable() bool { return false }

func TestOpenAndCreateFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plane.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}
	svc := location.NewService()

	h, err := svc.Open(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if h.Writable() {
		t.Error("expected opened file to be read-only")
	}
	if n, err := h.Length(); err != nil || n != 3 {
		t.Errorf("expected length 3, got %d (%v)", n, err)
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}

	out, err := svc.Create(context.Background(), filepath.Join(dir, "out.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if !out.Writable() {
		t.Error("expected created file to be writable")
	}
	if _, err := out.Write([]byte{9}); err != nil {
		t.Fatal(err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestOpenBadRef(t *testing.T) {
	svc := location.NewService()
	_, err := svc.Open(context.Background(), "arn:aws:sqs:us-east-1:123:queue")
	var ioErr *types.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	svc := location.NewService()
	_, err := svc.Open(context.Background(), filepath.Join(t.TempDir(), "ghost.ics"))
	var ioErr *types.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist underneath, got %v", err)
	}
}
