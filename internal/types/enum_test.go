package types

import (
	"errors"
	"testing"
)

func TestEnumTable_FirstMatchWins(t *testing.T) {
	// Two entries share the alias "g"; the earlier one must win.
	table := &EnumTable[int]{
		Name: "test",
		Entries: []EnumEntry[int]{
			{1, []string{"gray", "g"}},
			{2, []string{"green", "g"}},
		},
	}

	v, err := table.Lookup("g")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if v != 1 {
		t.Errorf("expected first entry to win, got %d", v)
	}
}

func TestEnumTable_CaseAndSpace(t *testing.T) {
	table := &EnumTable[int]{
		Name:    "test",
		Entries: []EnumEntry[int]{{7, []string{"seven"}}},
	}

	v, err := table.Lookup("  SeVeN\t")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if v != 7 {
		t.Errorf("expected 7, got %d", v)
	}
}

func TestEnumTable_OtherFallback(t *testing.T) {
	table := &EnumTable[int]{
		Name:         "test",
		Entries:      []EnumEntry[int]{{1, []string{"known"}}},
		OtherAliases: []string{"misc"},
		Other:        99,
	}

	v, err := table.Lookup("misc")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if v != 99 {
		t.Errorf("expected fallback value 99, got %d", v)
	}
}

func TestEnumTable_UnknownValue(t *testing.T) {
	table := &EnumTable[int]{
		Name:    "test",
		Entries: []EnumEntry[int]{{1, []string{"known"}}},
	}

	_, err := table.Lookup("nope")
	if err == nil {
		t.Fatal("expected error for unknown value")
	}

	var enumErr *EnumerationError
	if !errors.As(err, &enumErr) {
		t.Fatalf("expected EnumerationError, got %T", err)
	}
	if enumErr.Value != "nope" {
		t.Errorf("expected offending value in error, got %q", enumErr.Value)
	}
}
