package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// InvalidDate is the display value of a date token that could not be read.
const InvalidDate = "Data Inválida"

// ErrInvalidDate is returned when a token is not a calendar date.
var ErrInvalidDate = errors.New("invalid date")

var monthAbbrev = [12]string{"JAN", "FEV", "MAR", "ABR", "MAI", "JUN", "JUL", "AGO", "SET", "OUT", "NOV", "DEZ"}

// monthByName maps Portuguese and English abbreviations to months.
var monthByName = map[string]time.Month{
	"JAN": time.January,
	"FEV": time.February, "FEB": time.February,
	"MAR": time.March,
	"ABR": time.April, "APR": time.April,
	"MAI": time.May, "MAY": time.May,
	"JUN": time.June,
	"JUL": time.July,
	"AGO": time.August, "AUG": time.August,
	"SET": time.September, "SEP": time.September,
	"OUT": time.October, "OCT": time.October,
	"NOV": time.November,
	"DEZ": time.December, "DEC": time.December,
}

type dateLayout struct {
	re        *regexp.Regexp
	yearFirst bool
}

var dateLayouts = []dateLayout{
	{re: regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[T ].*)?$`), yearFirst: true},
	{re: regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?$`)},
	{re: regexp.MustCompile(`^(\d{1,2})-(\d{1,2})(?:-(\d{4}))?$`)},
	{re: regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})(?:\.(\d{4}))?$`)},
}

var displayDate = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]{3})$`)

// ParseDate reads DD/MM/YYYY, DD/MM/YY, DD/MM, DD-MM-YYYY, DD-MM, YYYY-MM-DD,
// DD.MM.YYYY and DD.MM tokens. Tokens without a year take the year of now.
func ParseDate(input string, now time.Time) (time.Time, error) {
	s := strings.Trim(strings.TrimSpace(input), `"'`)
	for _, l := range dateLayouts {
		m := l.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		var ys, ms, ds string
		if l.yearFirst {
			ys, ms, ds = m[1], m[2], m[3]
		} else {
			ds, ms, ys = m[1], m[2], m[3]
		}
		year := now.Year()
		if ys != "" {
			year, _ = strconv.Atoi(ys)
			if len(ys) == 2 {
				year += 2000
			}
		}
		day, _ := strconv.Atoi(ds)
		month, _ := strconv.Atoi(ms)
		return calendarDate(year, time.Month(month), day, input)
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, input)
}

// DisplayDate parses input and returns its canonical "DD MMM" form, or
// InvalidDate when the token is not a date.
func DisplayDate(input string, now time.Time) string {
	t, err := ParseDate(input, now)
	if err != nil {
		return InvalidDate
	}
	return FormatDisplay(t)
}

// FormatDisplay renders t as "DD MMM", e.g. "05 NOV".
func FormatDisplay(t time.Time) string {
	return fmt.Sprintf("%02d %s", t.Day(), monthAbbrev[t.Month()-1])
}

// ParseDisplayDate reads a canonical "DD MMM" value back into day and month.
func ParseDisplayDate(display string) (int, time.Month, error) {
	m := displayDate.FindStringSubmatch(strings.TrimSpace(display))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidDate, display)
	}
	month, ok := monthByName[strings.ToUpper(m[2])]
	if !ok {
		return 0, 0, fmt.Errorf("%w: unknown month %q", ErrInvalidDate, m[2])
	}
	day, _ := strconv.Atoi(m[1])
	if day < 1 || day > 31 {
		return 0, 0, fmt.Errorf("%w: day %d", ErrInvalidDate, day)
	}
	return day, month, nil
}

// leapYear is the reference year for yearless tokens so that 29/02 is accepted.
var leapYear = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// ParseDayMonth reads the day and month of either a "DD MMM" value or any
// token ParseDate accepts. The year, if present, only validates the day.
func ParseDayMonth(input string) (int, time.Month, error) {
	if day, month, err := ParseDisplayDate(input); err == nil {
		return day, month, nil
	}
	t, err := ParseDate(input, leapYear)
	if err != nil {
		return 0, 0, err
	}
	return t.Day(), t.Month(), nil
}

// NearestDate places day/month in the year (ref-1, ref or ref+1) that lies
// closest to ref. It reports false if the day does not exist in any of them.
func NearestDate(day int, month time.Month, ref time.Time) (time.Time, bool) {
	ref = DateOnly(ref)
	var best time.Time
	var bestDist time.Duration
	found := false
	for y := ref.Year() - 1; y <= ref.Year()+1; y++ {
		t, err := calendarDate(y, month, day, "")
		if err != nil {
			continue
		}
		dist := t.Sub(ref)
		if dist < 0 {
			dist = -dist
		}
		if !found || dist < bestDist {
			best, bestDist, found = t, dist, true
		}
	}
	return best, found
}

// DaysBetween returns the absolute number of whole days between a and b.
func DaysBetween(a, b time.Time) int {
	d := DateOnly(a).Sub(DateOnly(b)).Hours() / 24
	if d < 0 {
		d = -d
	}
	return int(d + 0.5)
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func calendarDate(year int, month time.Month, day int, input string) (time.Time, error) {
	if day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, input)
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes 31/04 into 01/05; reject anything that moved.
	if t.Day() != day || t.Month() != month {
		return time.Time{}, fmt.Errorf("%w: %q does not exist", ErrInvalidDate, input)
	}
	return t, nil
}
