// Package normalize cleans raw OCR output before field extraction.
package normalize

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	// Characters outside this set never appear on Philippine IDs.
	disallowed = regexp.MustCompile(`[^A-Za-z0-9 .,:;/#'()&-]+`)
	spaces     = regexp.MustCompile(`[ \t\f\v]+`)
)

// Text is normalized OCR output.
type Text struct {
	// Lines holds the cleaned non-blank lines in original case.
	Lines []string
	// Upper is Lines joined by newlines and upper-cased.
	Upper string
}

// UpperLines returns the upper-cased lines.
func (t Text) UpperLines() []string {
	if t.Upper == "" {
		return nil
	}
	return strings.Split(t.Upper, "\n")
}

// Empty reports whether no usable text remains.
func (t Text) Empty() bool {
	return len(t.Lines) == 0
}

// Normalize folds diacritics to ASCII (Ñ to N), strips characters outside
// the ID alphabet, collapses runs of whitespace and drops blank lines.
// Line breaks are kept.
func Normalize(raw string) Text {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var lines []string
	for _, ln := range strings.Split(raw, "\n") {
		if cleaned := Line(ln); cleaned != "" {
			lines = append(lines, cleaned)
		}
	}
	return Text{
		Lines: lines,
		Upper: strings.ToUpper(strings.Join(lines, "\n")),
	}
}

// Line cleans a single line.
func Line(s string) string {
	s = Fold(s)
	s = disallowed.ReplaceAllString(s, " ")
	s = spaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Fold transliterates non-ASCII letters to their closest ASCII form.
func Fold(s string) string {
	for _, r := range s {
		if r > 127 {
			return unidecode.Unidecode(s)
		}
	}
	return s
}
