package domain

import "unique"

// InternedString wraps a unique.Handle[string].
// Graph keys are interned because the same module paths are looked up repeatedly
// by the linker, the assembler and the resolver.
type InternedString struct {
	h unique.Handle[string]
}

// NewInternedString interns s.
func NewInternedString(s string) InternedString {
	return InternedString{h: unique.Make(s)}
}

// String returns the underlying string value.
func (is InternedString) String() string {
	var zero unique.Handle[string]
	if is.h == zero {
		return ""
	}
	return is.h.Value()
}
