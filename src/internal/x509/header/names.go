// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package header

import "regexp"

const (
	// DefaultArrayName names the trust anchor array.
	DefaultArrayName = "TAs"
	// DefaultLengthName names the macro holding the array length.
	DefaultLengthName = "TAs_NUM"
	// DefaultGuardName names the include guard macro.
	DefaultGuardName = "CERTIFICATES"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Names holds the C identifiers used in a generated header.
type Names struct {
	Array  string
	Length string
	Guard  string
}

// DefaultNames returns the identifiers used when the caller supplies none.
func DefaultNames() Names {
	return Names{
		Array:  DefaultArrayName,
		Length: DefaultLengthName,
		Guard:  DefaultGuardName,
	}
}

// IsIdentifier reports whether s is a valid C identifier.
func IsIdentifier(s string) bool { return identifier.MatchString(s) }

// Normalize replaces every name that is not a C identifier with its
// default. If the resulting names collide, all defaults are used.
func (n Names) Normalize() Names {
	d := DefaultNames()
	if !IsIdentifier(n.Array) {
		n.Array = d.Array
	}
	if !IsIdentifier(n.Length) {
		n.Length = d.Length
	}
	if !IsIdentifier(n.Guard) {
		n.Guard = d.Guard
	}
	if n.Array == n.Length || n.Array == n.Guard || n.Length == n.Guard {
		return d
	}
	return n
}
