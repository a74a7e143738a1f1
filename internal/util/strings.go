// Package util provides small helpers shared across the listings service.
package util

import (
	"regexp"
	"strings"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)
	slugEdgeDashes   = regexp.MustCompile(`(^-+|-+$)`)
)

// SafeTruncate truncates a string to maxLen characters without panicking.
// It is used when logging sensitive values like token IDs, where only a
// short prefix should ever appear in logs.
//
// Example:
//
//	SafeTruncate("very-long-token-abc123", 8) // Returns: "very-lon"
//	SafeTruncate("short", 10)                  // Returns: "short"
func SafeTruncate(s string, maxLen int) string {
	if maxLen < 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// Slugify converts a listing title into a URL-safe handle: lowercased,
// non-alphanumeric runs collapsed to single dashes, edge dashes trimmed.
//
// Example:
//
//	Slugify("2BHK Flat in Indiranagar!") // Returns: "2bhk-flat-in-indiranagar"
func Slugify(title string) string {
	slug := slugInvalidChars.ReplaceAllString(strings.ToLower(title), "-")
	return slugEdgeDashes.ReplaceAllString(slug, "")
}
