// Package genre provides genre slug normalization so catalog filters match
// across naming variations.
package genre

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

// aliases maps variant slugs to their canonical form.
var aliases = map[string]string{
	"sci-fi":           "science-fiction",
	"scifi":            "science-fiction",
	"sf":               "science-fiction",
	"high-fantasy":     "epic-fantasy",
	"ya":               "young-adult",
	"teen":             "young-adult",
	"suspense":         "thriller",
	"selfhelp":         "self-help",
	"self-improvement": "self-help",
	"biography":        "biography-memoir",
	"memoir":           "biography-memoir",
	"biographies":      "biography-memoir",
	"lit-rpg":          "litrpg",
	"comedy":           "humor",
	"true-crime":       "crime",
	"literature":       "fiction",
}

// Slugify converts a genre name to a URL-safe slug.
// "Science Fiction" -> "science-fiction", "Sci-Fi/Fantasy" -> "sci-fi-fantasy".
func Slugify(s string) string {
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

// Canonical resolves a genre name to its canonical slug.
func Canonical(name string) string {
	slug := Slugify(name)
	if canonical, ok := aliases[slug]; ok {
		return canonical
	}
	return slug
}

// Match reports whether two genre names resolve to the same canonical slug.
// Non-ASCII genre names fall back to a case-insensitive comparison since
// slugging strips them entirely.
func Match(a, b string) bool {
	ca, cb := Canonical(a), Canonical(b)
	if ca == "" || cb == "" {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return ca == cb
}
