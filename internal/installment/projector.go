// Package installment reconstructs the schedule behind an "N/M" statement line.
package installment

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/recon/internal/merchant"
	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/normalize"
)

var (
	ErrInvalidMarker = errors.New("invalid installment marker")
	ErrInvalidPeriod = errors.New("invalid billing period")
)

// yearRolloverMargin is how many months past the billing month a purchase
// month may be before it is read as belonging to the previous year.
const yearRolloverMargin = 2

var markerRe = regexp.MustCompile(`(?i)(?:\bparc(?:ela)?\.?\s*)?\b(\d{1,2})\s*/\s*(\d{1,2})\b`)

// Marker is an "N/M" installment marker.
type Marker struct {
	Current int
	Total   int
}

// ParseMarker finds the last valid "N/M" (optionally "PARC N/M") marker in
// description and returns it with the description stripped of it.
func ParseMarker(description string) (Marker, string, error) {
	locs := markerRe.FindAllStringSubmatchIndex(description, -1)
	if len(locs) == 0 {
		return Marker{}, description, fmt.Errorf("%w: none in %q", ErrInvalidMarker, description)
	}
	var firstErr error
	for i := len(locs) - 1; i >= 0; i-- {
		loc := locs[i]
		cur, _ := strconv.Atoi(description[loc[2]:loc[3]])
		total, _ := strconv.Atoi(description[loc[4]:loc[5]])
		m := Marker{Current: cur, Total: total}
		if err := m.Validate(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		rest := merchant.Clean(description[:loc[0]] + " " + description[loc[1]:])
		rest = strings.Trim(rest, " -")
		return m, rest, nil
	}
	return Marker{}, description, firstErr
}

// Validate checks 1 <= Current <= Total and Total >= 2.
func (m Marker) Validate() error {
	if m.Total < 2 || m.Current < 1 || m.Current > m.Total {
		return fmt.Errorf("%w: %d/%d", ErrInvalidMarker, m.Current, m.Total)
	}
	return nil
}

func (m Marker) String() string { return fmt.Sprintf("%d/%d", m.Current, m.Total) }

// Period is a monthly billing period.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod reads "YYYY-MM".
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

func (p Period) String() string { return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month)) }

// AddMonths returns the period n months after p (n may be negative).
func (p Period) AddMonths(n int) Period {
	t := time.Date(p.Year, p.Month+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	return Period{Year: t.Year(), Month: t.Month()}
}

// On returns the given day of the period, clamped to the month's last day.
func (p Period) On(day int) time.Time {
	last := time.Date(p.Year, p.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return time.Date(p.Year, p.Month, min(max(day, 1), last), 0, 0, 0, 0, time.UTC)
}

// InferPurchaseDate places a day/month purchase in the year implied by the
// statement being read. A purchase month more than two months after the
// billing month, or December seen on a January statement, is last year's.
func InferPurchaseDate(day int, month time.Month, billing Period) (time.Time, error) {
	year := billing.Year
	if int(month) > int(billing.Month)+yearRolloverMargin ||
		(billing.Month == time.January && month == time.December) {
		year--
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return time.Time{}, fmt.Errorf("%w: %02d/%02d/%d does not exist", normalize.ErrInvalidDate, day, int(month), year)
	}
	return t, nil
}

// Schedule lays out every installment of a series whose installment
// m.Current falls due in billing. Installment k is due on dueDay of
// billing - (Current-1) + (k-1) months.
func Schedule(m Marker, billing Period, dueDay int, amount decimal.Decimal) ([]model.Installment, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	first := billing.AddMonths(-(m.Current - 1))
	rows := make([]model.Installment, m.Total)
	for k := 1; k <= m.Total; k++ {
		rows[k-1] = model.Installment{
			Number:  k,
			Amount:  amount,
			DueDate: first.AddMonths(k - 1).On(dueDay),
			Paid:    false,
		}
	}
	return rows, nil
}

// Projection is the input of Project.
type Projection struct {
	ID       string
	Item     model.ExternalTransaction
	Billing  Period
	DueDay   int
	Category string
}

// Project turns one installment line read from the statement for billing into
// the full expense it belongs to. The line's amount is the per-installment
// amount; the expense total is that amount times the number of installments.
func Project(p Projection) (model.Expense, error) {
	m, desc, err := ParseMarker(p.Item.Description)
	if err != nil {
		return model.Expense{}, err
	}
	day, month, err := normalize.ParseDayMonth(p.Item.Date)
	if err != nil {
		return model.Expense{}, fmt.Errorf("reading purchase date: %w", err)
	}
	purchase, err := InferPurchaseDate(day, month, p.Billing)
	if err != nil {
		return model.Expense{}, err
	}
	rows, err := Schedule(m, p.Billing, p.DueDay, p.Item.Amount)
	if err != nil {
		return model.Expense{}, err
	}
	for i := range rows {
		rows[i].ExpenseID = p.ID
	}
	if desc == "" {
		desc = p.Item.Description
	}
	return model.Expense{
		ID:               p.ID,
		Description:      desc,
		Category:         p.Category,
		PurchaseDate:     purchase,
		Total:            p.Item.Amount.Mul(decimal.NewFromInt(int64(m.Total))),
		InstallmentCount: m.Total,
		Installments:     rows,
	}, nil
}
