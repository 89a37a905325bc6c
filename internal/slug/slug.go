// Package slug converts free-text card attributes into the canonical
// identifiers used as join keys in the sales history tables.
package slug

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	disallowed    = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRun     = regexp.MustCompile(`-+`)
)

// Normalize converts text to a lowercase, hyphenated identifier.
// Whitespace runs become a single hyphen and every other character outside
// [a-z0-9-] is dropped, so "Ken Griffey Jr." and "ken griffey jr" collapse
// to the same key. Empty input yields the empty string; the function never
// fails.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	s := strings.ToLower(text)
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = disallowed.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeOr normalizes text, substituting fallback first when text is empty.
// Used for optional attributes with a fixed default, e.g. variation "Base".
func NormalizeOr(text, fallback string) string {
	if strings.TrimSpace(text) == "" {
		return Normalize(fallback)
	}
	return Normalize(text)
}
