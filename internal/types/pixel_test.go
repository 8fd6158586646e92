package types

import (
	"errors"
	"testing"
)

func TestPixelType_Properties(t *testing.T) {
	tests := []struct {
		pixel  PixelType
		bits   int
		signed bool
		float  bool
	}{
		{Int8, 8, true, false},
		{UInt8, 8, false, false},
		{Int16, 16, true, false},
		{UInt16, 16, false, false},
		{Int32, 32, true, false},
		{UInt32, 32, false, false},
		{Int64, 64, true, false},
		{UInt64, 64, false, false},
		{Float32, 32, false, true},
		{Float64, 64, false, true},
		{Bit, 1, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.pixel.String(), func(t *testing.T) {
			if got := tt.pixel.Bits(); got != tt.bits {
				t.Errorf("Bits: expected %d, got %d", tt.bits, got)
			}
			if got := tt.pixel.Signed(); got != tt.signed {
				t.Errorf("Signed: expected %v, got %v", tt.signed, got)
			}
			if got := tt.pixel.Float(); got != tt.float {
				t.Errorf("Float: expected %v, got %v", tt.float, got)
			}
		})
	}
}

func TestParsePixelType(t *testing.T) {
	tests := []struct {
		in   string
		want PixelType
	}{
		{"uint8", UInt8},
		{"UINT16", UInt16},
		{"short", Int16},
		{"float", Float32},
		{"double", Float64},
		{"bit", Bit},
	}

	for _, tt := range tests {
		got, err := ParsePixelType(tt.in)
		if err != nil {
			t.Errorf("ParsePixelType(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePixelType(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	if _, err := ParsePixelType("quaternion"); err == nil {
		t.Error("expected error for unknown pixel type")
	}
}

func TestParseAxisType(t *testing.T) {
	tests := []struct {
		in   string
		want AxisType
	}{
		{"x", AxisX},
		{"Y", AxisY},
		{"z", AxisZ},
		{"ch", AxisChannel},
		{"c", AxisChannel},
		{"t", AxisTime},
		{"probe", AxisOther},
		{"frequency", AxisOther},
	}

	for _, tt := range tests {
		got, err := ParseAxisType(tt.in)
		if err != nil {
			t.Errorf("ParseAxisType(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAxisType(%q): expected %v, got %v", tt.in, tt.want, got)
		}
	}

	_, err := ParseAxisType("banana")
	var enumErr *EnumerationError
	if !errors.As(err, &enumErr) {
		t.Fatalf("expected EnumerationError for unknown label, got %v", err)
	}
}
