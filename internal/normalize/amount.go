// Package normalize parses the monetary and date tokens found in statement exports.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrInvalidAmount is returned when a token cannot be read as money.
var ErrInvalidAmount = errors.New("invalid amount")

var (
	currencySymbols = regexp.MustCompile(`(?i)R\$|US\$|BRL|USD|EUR|[$€£]`)

	// 1.234,56 | 1.234 | 1234,56
	brazilianAmount = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(,\d+)?$|^\d+,\d+$`)
	// 1,234.56 | 1,234 | 1234.56 | 1234
	internationalAmount = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$|^\d+(\.\d+)?$`)
)

// ParseAmount reads a monetary token in Brazilian (1.234,56) or international
// (1,234.56) notation and returns its absolute value. Grouped Brazilian notation
// wins when a token fits both, so "1.234" is one thousand two hundred thirty-four.
func ParseAmount(input string) (decimal.Decimal, error) {
	d, err := ParseSignedAmount(input)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Abs(), nil
}

// ParseSignedAmount is ParseAmount without dropping the sign. A leading or
// trailing minus and accounting parentheses all mean negative.
func ParseSignedAmount(input string) (decimal.Decimal, error) {
	s := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '"' || r == '\'' {
			return -1
		}
		return r
	}, input)
	s = currencySymbols.ReplaceAllString(s, "")
	s, negative := stripSign(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}

	var plain string
	switch {
	case brazilianAmount.MatchString(s):
		plain = strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
	case internationalAmount.MatchString(s):
		plain = strings.ReplaceAll(s, ",", "")
	default:
		plain = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(plain)
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// stripSign removes a leading +/-, a trailing - or wrapping parentheses and
// reports whether the value was negative.
func stripSign(s string) (string, bool) {
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
		negative = true
	}
	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, "-") {
		s = s[1:]
		negative = true
	} else if strings.HasSuffix(s, "-") {
		s = s[:len(s)-1]
		negative = true
	}
	return s, negative
}
