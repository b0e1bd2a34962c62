// Package sanitize provides text sanitization for user supplied strings.
package sanitize

import (
	"regexp"
	"strings"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// Text removes HTML tags from names and descriptions before they are stored.
// Entities are kept as written and runs of whitespace left behind by a
// removed tag collapse to a single space.
func Text(s string) string {
	return strings.Join(strings.Fields(htmlTagRegex.ReplaceAllString(s, "")), " ")
}
