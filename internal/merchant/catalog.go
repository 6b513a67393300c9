// Package merchant cleans statement descriptions and recognizes known establishments.
package merchant

import (
	"fmt"
	"regexp"
)

// Pattern names an establishment and the expression that recognizes it.
type Pattern struct {
	Name string
	Re   *regexp.Regexp
}

// Catalog is an ordered list of patterns. The first pattern that matches wins,
// so broader patterns must come after the narrower ones they would shadow.
// A Catalog is immutable; Add returns an extended copy.
type Catalog struct {
	patterns []Pattern
}

// builtin is ordered: MERCADO PAGO must precede MERCADO LIVRE and IFOOD must
// precede the generic food-delivery patterns.
var builtin = []struct{ name, expr string }{
	{"UBER", `(?i)uber`},
	{"IFOOD", `(?i)i\s*food`},
	{"RAPPI", `(?i)rappi`},
	{"99", `(?i)\b99\s?(app|pop|taxi|food)\b`},
	{"NETFLIX", `(?i)netflix`},
	{"SPOTIFY", `(?i)spotify`},
	{"AMAZON", `(?i)amazon|amzn|prime\s*video`},
	{"GOOGLE", `(?i)google`},
	{"APPLE", `(?i)apple\.com|\bapple\b|itunes`},
	{"MERCADO PAGO", `(?i)mercado\s*pago`},
	{"MERCADO LIVRE", `(?i)mercado\s*livre|\bmeli\b`},
	{"PICPAY", `(?i)pic\s*pay`},
	{"PAGSEGURO", `(?i)pag\s*seguro|pagbank`},
	{"NUBANK", `(?i)nu\s*bank|nu\s*pagamentos`},
	{"SHOPEE", `(?i)shopee`},
	{"MAGALU", `(?i)magalu|magazine\s*luiza`},
	{"AMERICANAS", `(?i)americanas`},
}

// DefaultCatalog returns the built-in establishment catalog.
func DefaultCatalog() Catalog {
	patterns := make([]Pattern, 0, len(builtin))
	for _, b := range builtin {
		patterns = append(patterns, Pattern{Name: b.name, Re: regexp.MustCompile(b.expr)})
	}
	return NewCatalog(patterns...)
}

// NewCatalog returns a catalog holding exactly the given patterns, in order.
func NewCatalog(patterns ...Pattern) Catalog {
	return Catalog{patterns: append([]Pattern(nil), patterns...)}
}

// Add returns a copy of c with a new pattern appended after all existing ones.
func (c Catalog) Add(name, expr string) (Catalog, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return c, fmt.Errorf("compiling pattern for %s: %w", name, err)
	}
	return c.With(Pattern{Name: name, Re: re}), nil
}

// With returns a copy of c with p appended.
func (c Catalog) With(p Pattern) Catalog {
	out := make([]Pattern, len(c.patterns), len(c.patterns)+1)
	copy(out, c.patterns)
	return Catalog{patterns: append(out, p)}
}

// Classify returns the name of the first pattern matching raw.
func (c Catalog) Classify(raw string) (string, bool) {
	for _, p := range c.patterns {
		if p.Re.MatchString(raw) {
			return p.Name, true
		}
	}
	return "", false
}

// Len returns the number of patterns.
func (c Catalog) Len() int { return len(c.patterns) }
