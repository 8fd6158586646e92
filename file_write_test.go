package scifio

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/ngladitz/scifio/internal/handle"

	_ "github.com/ngladitz/scifio/formats/ics"
)

func writeMeta(id string, planes int) *Metadata {
	return &Metadata{
		ID: id,
		Images: []ImageMetadata{{
			Axes: []Axis{
				{Type: AxisX, Length: 4},
				{Type: AxisY, Length: 3},
				{Type: AxisZ, Length: planes},
			},
			Pixel: UInt8,
		}},
	}
}

func planeBytes(base int) []byte {
	p := make([]byte, 12)
	for i := range p {
		p[i] = byte(base + i)
	}
	return p
}

func TestCreate_VersionTwoRoundTrip(t *testing.T) {
	c := NewContext()
	MapBytes(c, "out.ics", nil)

	meta := writeMeta("out.ics", 2)
	w, err := Create("out.ics", meta, WithCreateContext(c))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if w.Metadata() != meta {
		t.Error("expected the writer to keep the supplied metadata")
	}

	// Planes may arrive in any order.
	p0, p1 := planeBytes(10), planeBytes(30)
	if err := w.SavePlane(0, 1, p1, 0, 0, 4, 3); err != nil {
		t.Fatal(err)
	}
	if err := w.SavePlane(0, 0, p0, 0, 0, 4, 3); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	file, err := Open("out.ics", WithContext(c))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer file.Close()
	if file.Format != "ics" {
		t.Errorf("expected format ics, got %q", file.Format)
	}
	if got := file.Meta.Images[0].PlaneCount(); got != 2 {
		t.Fatalf("expected 2 planes, got %d", got)
	}
	for i, want := range [][]byte{p0, p1} {
		p, err := file.OpenPlane(0, i)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(p.Bytes, want) {
			t.Fatalf("plane %d: expected %v, got %v", i, want, p.Bytes)
		}
	}
}

func TestCreate_VersionOnePair(t *testing.T) {
	c := NewContext()
	hdr := handle.NewBytes("vol.ics", nil)
	pix := handle.NewBytes("vol.ids", nil)
	c.Location().Map("vol.ics", hdr)
	c.Location().Map("vol.ids", pix)

	w, err := Create("vol.ics", writeMeta("vol.ics", 1),
		WithICSVersion(1), WithCreateContext(c))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	want := planeBytes(1)
	if err := w.SavePlane(0, 0, want, 0, 0, 4, 3); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	if !bytes.HasPrefix(hdr.Data(), []byte("ics_version\t1.0\n")) {
		t.Fatal("expected a version 1 header in the .ics companion")
	}
	if !bytes.Equal(pix.Data(), want) {
		t.Fatalf("expected raw pixels in the .ids file, got %v", pix.Data())
	}

	// Both halves of the pair are entry points to the dataset.
	for _, id := range []string{"vol.ics", "vol.ids"} {
		file, err := Open(id, WithContext(c))
		if err != nil {
			t.Fatalf("reopen %s failed: %v", id, err)
		}
		p, err := file.OpenPlane(0, 0)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(p.Bytes, want) {
			t.Fatalf("%s: expected %v, got %v", id, want, p.Bytes)
		}
		file.Close()
	}
}

func TestCreate_UnknownSuffix(t *testing.T) {
	_, err := Create("out.xyz", writeMeta("out.xyz", 1))
	var unknown *UnknownFormatError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownFormatError, got %T: %v", err, err)
	}
}

func TestCreate_InvalidMetadata(t *testing.T) {
	_, err := Create("out.ics", &Metadata{ID: "out.ics"})
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError for empty metadata, got %T: %v", err, err)
	}
}

func TestCreate_BadVersion(t *testing.T) {
	_, err := Create("out.ics", writeMeta("out.ics", 1), WithICSVersion(3))
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
}

func TestCreate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CreateContext(ctx, "out.ics", writeMeta("out.ics", 1))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCreateTarget_Steering(t *testing.T) {
	tests := []struct {
		id      string
		version int
		want    string
	}{
		{"out.ics", 0, "out.ics"},
		{"out.ids", 0, "out.ids"},
		{"out.ics", 1, "out.ids"},
		{"out.ids", 1, "out.ids"},
		{"out.ics", 2, "out.ics"},
		{"out.ids", 2, "out.ics"},
		{"out.bmp", 1, "out.bmp"},
	}
	for _, tt := range tests {
		got, err := createTarget(tt.id, &createOptions{icsVersion: tt.version})
		if err != nil {
			t.Errorf("createTarget(%q, %d): unexpected error %v", tt.id, tt.version, err)
			continue
		}
		if got != tt.want {
			t.Errorf("createTarget(%q, %d) = %q, want %q", tt.id, tt.version, got, tt.want)
		}
	}

	if _, err := createTarget("out.ics", &createOptions{icsVersion: 9}); err == nil {
		t.Error("expected an error for an unknown version")
	}
}
