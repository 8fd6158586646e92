package types

import "strings"

// EnumEntry binds one enumeration value to the strings that name it.
type EnumEntry[T comparable] struct {
	Value   T
	Aliases []string
}

// EnumTable is an ordered enumeration lookup.
//
// Lookup walks Entries in order and returns the first value with a matching
// alias, so overlapping aliases resolve deterministically. Strings listed in
// OtherAliases map to the table's designated generic value. Anything else is
// an EnumerationError; values are never silently defaulted.
type EnumTable[T comparable] struct {
	// Name of the enumeration, used in error messages
	Name string

	// Entries in match order
	Entries []EnumEntry[T]

	// OtherAliases map to Other without being first-class values
	OtherAliases []string

	// Other is the generic fallback value for OtherAliases
	Other T
}

// Lookup resolves s to an enumeration value.
//
// Matching is case-insensitive and ignores surrounding whitespace.
func (t *EnumTable[T]) Lookup(s string) (T, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, e := range t.Entries {
		for _, a := range e.Aliases {
			if a == key {
				return e.Value, nil
			}
		}
	}
	for _, a := range t.OtherAliases {
		if a == key {
			return t.Other, nil
		}
	}
	var zero T
	return zero, &EnumerationError{Enum: t.Name, Value: s}
}
