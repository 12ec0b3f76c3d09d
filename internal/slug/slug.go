// Package slug builds the storage and document identifiers used for
// ingested chapters.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Segment lowercases s, folds accents and collapses every run of
// characters outside [a-z0-9] into a single '-'.
func Segment(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	folded = strings.ToLower(folded)
	folded = nonAlphanumeric.ReplaceAllString(folded, "-")

	return strings.Trim(folded, "-")
}

// Key is the chapter identity shared by the metadata record and reruns of
// the same job.
func Key(title, chapterID string) string {
	return Segment(title + " " + chapterID)
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
