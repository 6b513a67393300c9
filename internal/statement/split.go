package statement

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// SplitLine splits one line on delim. Quoted fields may contain the delimiter
// and doubled ("") quotes.
func SplitLine(text string, delim rune) ([]string, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = delim != '\t'

	rec, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("splitting line: %w", err)
	}
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	return rec, nil
}
