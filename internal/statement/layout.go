package statement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cleared-dev/recon/internal/normalize"
)

// ErrLayoutNotDetected is returned when no row exposes both a date and a value.
var ErrLayoutNotDetected = errors.New("statement layout not detected")

// delimiterCandidates is also the tie-break order.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

const (
	sniffLines   = 5
	detectorRows = 5
)

// Layout tells the parser where each field lives in a row.
type Layout struct {
	Name               string
	Delimiter          rune
	DateColumn         int
	ValueColumn        int
	DescriptionColumns []int
}

// Validate checks that the column roles are usable.
func (l Layout) Validate() error {
	if l.DateColumn < 0 || l.ValueColumn < 0 {
		return fmt.Errorf("layout %s: negative column index", l.Name)
	}
	if l.DateColumn == l.ValueColumn {
		return fmt.Errorf("layout %s: date and value share column %d", l.Name, l.DateColumn)
	}
	if len(l.DescriptionColumns) == 0 {
		return fmt.Errorf("layout %s: no description columns", l.Name)
	}
	for _, c := range l.DescriptionColumns {
		if c < 0 || c == l.DateColumn || c == l.ValueColumn {
			return fmt.Errorf("layout %s: invalid description column %d", l.Name, c)
		}
	}
	if l.Delimiter == 0 || l.Delimiter == '"' || l.Delimiter == '\n' || l.Delimiter == '\r' {
		return fmt.Errorf("layout %s: invalid delimiter %q", l.Name, l.Delimiter)
	}
	return nil
}

// minFields is the number of fields a row needs for every column to exist.
func (l Layout) minFields() int {
	n := max(l.DateColumn, l.ValueColumn)
	for _, c := range l.DescriptionColumns {
		n = max(n, c)
	}
	return n + 1
}

// DetectDelimiter counts each candidate delimiter over the first few non-empty
// lines and returns the most frequent one. Ties go to the earlier candidate,
// and a document with none of them is treated as comma-separated.
func DetectDelimiter(lines []string) rune {
	counts := make(map[rune]int, len(delimiterCandidates))
	seen := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		for _, d := range delimiterCandidates {
			counts[d] += strings.Count(line, string(d))
		}
		seen++
		if seen == sniffLines {
			break
		}
	}

	best := delimiterCandidates[0]
	for _, d := range delimiterCandidates[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// DetectLayout sniffs the delimiter and column roles of a document. The first
// non-empty line is a header. Data rows are examined in order until one holds
// both a date and a value: the first date field is the date column, the
// rightmost monetary field is the value column and the fields strictly between
// them form the description.
func DetectLayout(text string, now time.Time) (Layout, error) {
	lines := nonEmptyLines(text)
	if len(lines) < 2 {
		return Layout{}, fmt.Errorf("%w: no data rows", ErrLayoutNotDetected)
	}

	delim := DetectDelimiter(lineTexts(lines))
	for i, ln := range lines[1:] {
		if i == detectorRows {
			break
		}
		fields, err := SplitLine(ln.text, delim)
		if err != nil {
			continue
		}
		if l, ok := layoutFromRow(fields, delim, now); ok {
			return l, nil
		}
	}
	return Layout{}, fmt.Errorf("%w: no row holds both a date and a value", ErrLayoutNotDetected)
}

func layoutFromRow(fields []string, delim rune, now time.Time) (Layout, bool) {
	dateCol := -1
	for i, f := range fields {
		if _, err := normalize.ParseDate(f, now); err == nil {
			dateCol = i
			break
		}
	}
	if dateCol < 0 {
		return Layout{}, false
	}

	valueCol := -1
	for i := len(fields) - 1; i >= 0; i-- {
		if i == dateCol {
			continue
		}
		if _, err := normalize.ParseAmount(fields[i]); err == nil {
			valueCol = i
			break
		}
	}
	if valueCol < 0 {
		return Layout{}, false
	}

	var desc []int
	for i := dateCol + 1; i < valueCol; i++ {
		desc = append(desc, i)
	}
	if len(desc) == 0 {
		// Value sits before or right next to the date; use every other column.
		for i := range fields {
			if i != dateCol && i != valueCol {
				desc = append(desc, i)
			}
		}
	}
	if len(desc) == 0 {
		return Layout{}, false
	}

	return Layout{
		Name:               AutoLayout,
		Delimiter:          delim,
		DateColumn:         dateCol,
		ValueColumn:        valueCol,
		DescriptionColumns: desc,
	}, true
}

type line struct {
	number int
	text   string
}

func nonEmptyLines(text string) []line {
	var out []line
	for i, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		out = append(out, line{number: i + 1, text: raw})
	}
	return out
}

func lineTexts(lines []line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.text
	}
	return out
}
