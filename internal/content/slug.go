package content

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a genre name to a URL-safe slug.
// "Science Fiction" -> "science-fiction".
// "Café Society" -> "cafe-society".
// "Sci-Fi/Fantasy" -> "sci-fi-fantasy".
func Slugify(s string) string {
	// Decompose accented characters so the base letter survives.
	s = norm.NFKD.String(s)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
