package merchant

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalized is a description prepared for comparison.
type Normalized struct {
	Text          string // lowercased, whitespace collapsed, quotes removed
	Establishment string // empty when no catalog pattern matched
}

var quoteStripper = strings.NewReplacer(`"`, "", `'`, "", "`", "", "“", "", "”", "", "‘", "", "’", "")

// Clean removes quote characters and collapses runs of whitespace. Case is kept.
func Clean(s string) string {
	s, _, err := transform.String(norm.NFC, s)
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(quoteStripper.Replace(s)), " ")
}

// Normalize lowercases and cleans description, then classifies the raw input
// against the catalog.
func (c Catalog) Normalize(description string) Normalized {
	est, _ := c.Classify(description)
	return Normalized{
		Text:          strings.ToLower(Clean(description)),
		Establishment: est,
	}
}

// Similarity returns 1 - distance/max(len(a), len(b)) using the Levenshtein
// edit distance over runes. Two empty strings are identical.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	d := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptionsWithSub)
	return 1 - float64(d)/float64(longest)
}
