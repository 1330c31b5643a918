// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package hostname decides whether a caller-supplied string is syntactically
// admissible as a domain name before any network activity is spent on it.
package hostname

import "regexp"

// MaxLength is the longest input the grammar is evaluated against.
const MaxLength = 256

// pattern accepts a first component of one or two characters, or a run of
// up to 63 characters that may itself contain dots (so "www.example.com" is
// a single first component followed by ".com"), then either a plain TLD of
// 2 to 13 letters or a second-level label plus a 2 to 3 letter TLD ("co.uk").
var pattern = regexp.MustCompile(`^(` +
	`([a-zA-Z])|` +
	`([a-zA-Z]{2})|` +
	`([a-zA-Z][0-9])|` +
	`([0-9][a-zA-Z])|` +
	`([a-zA-Z0-9][-_.a-zA-Z0-9]{0,61}[a-zA-Z0-9])` +
	`)\.` +
	`([a-zA-Z]{2,13}|[a-zA-Z0-9-]{2,30}\.[a-zA-Z]{2,3})$`)

// IsValid reports whether domain is admissible. It is pure and safe for
// concurrent use. Inputs longer than [MaxLength] bytes are rejected without
// evaluating the pattern.
func IsValid(domain string) bool {
	if len(domain) > MaxLength {
		return false
	}
	return pattern.MatchString(domain)
}
