// Package statement turns raw delimited statement exports into external transactions.
package statement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cleared-dev/recon/internal/merchant"
	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/normalize"
)

// ErrNoTransactions is wrapped by the error returned when a document yields no valid rows.
var ErrNoTransactions = errors.New("no valid transactions found")

// maxSamples is how many line diagnostics a NoTransactionsError carries.
const maxSamples = 3

// LineError explains why one line was skipped.
type LineError struct {
	Line   int
	Reason string
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// NoTransactionsError is returned when every data row of a document was rejected.
type NoTransactionsError struct {
	Rows    int         // data rows examined
	Samples []LineError // at most maxSamples
}

func (e *NoTransactionsError) Error() string {
	if len(e.Samples) == 0 {
		return fmt.Sprintf("%s (%d data rows)", ErrNoTransactions, e.Rows)
	}
	msgs := make([]string, len(e.Samples))
	for i, s := range e.Samples {
		msgs[i] = s.Error()
	}
	return fmt.Sprintf("%s (%d data rows): %s", ErrNoTransactions, e.Rows, strings.Join(msgs, "; "))
}

func (e *NoTransactionsError) Unwrap() error { return ErrNoTransactions }

// Result is the outcome of parsing one document.
type Result struct {
	Layout       Layout
	Transactions []model.ExternalTransaction
	Skipped      []LineError
}

// Config configures a Parser.
type Config struct {
	// Layout fixes the column roles; nil means detect them from the document.
	Layout *Layout
	// Now supplies the year for dates written without one. Defaults to time.Now.
	Now    func() time.Time
	Logger zerolog.Logger
}

// Parser reads statement documents. It holds no per-document state.
type Parser struct {
	layout *Layout
	now    func() time.Time
	log    zerolog.Logger
}

// New creates a Parser.
func New(cfg Config) *Parser {
	p := &Parser{layout: cfg.Layout, now: cfg.Now, log: cfg.Logger}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// Parse extracts every valid transaction from text. Malformed rows are skipped
// and reported in Result.Skipped; only a document with no valid row at all
// fails, with a *NoTransactionsError.
func (p *Parser) Parse(text string) (*Result, error) {
	now := p.now()

	var layout Layout
	if p.layout != nil {
		layout = *p.layout
		if err := layout.Validate(); err != nil {
			return nil, err
		}
	} else {
		detected, err := DetectLayout(text, now)
		if err != nil {
			return nil, err
		}
		layout = detected
	}

	lines := nonEmptyLines(text)
	res := &Result{Layout: layout}
	if len(lines) > 0 {
		// First non-empty line is the header.
		lines = lines[1:]
	}

	for _, ln := range lines {
		txn, reason := parseRow(ln, layout, now)
		if reason != "" {
			le := LineError{Line: ln.number, Reason: reason}
			res.Skipped = append(res.Skipped, le)
			p.log.Debug().Int("line", ln.number).Str("reason", reason).Msg("skipping statement row")
			continue
		}
		res.Transactions = append(res.Transactions, txn)
	}

	p.log.Info().
		Str("layout", layout.Name).
		Int("transactions", len(res.Transactions)).
		Int("skipped", len(res.Skipped)).
		Msg("parsed statement")

	if len(res.Transactions) == 0 {
		samples := res.Skipped
		if len(samples) > maxSamples {
			samples = samples[:maxSamples]
		}
		return nil, &NoTransactionsError{Rows: len(lines), Samples: append([]LineError(nil), samples...)}
	}
	return res, nil
}

// parseRow returns the transaction for ln, or a non-empty reason it was rejected.
func parseRow(ln line, layout Layout, now time.Time) (model.ExternalTransaction, string) {
	fields, err := SplitLine(ln.text, layout.Delimiter)
	if err != nil {
		return model.ExternalTransaction{}, err.Error()
	}
	if need := layout.minFields(); len(fields) < need {
		return model.ExternalTransaction{}, fmt.Sprintf("expected at least %d fields, got %d", need, len(fields))
	}

	var reasons []string

	date := normalize.DisplayDate(fields[layout.DateColumn], now)
	if date == normalize.InvalidDate {
		reasons = append(reasons, fmt.Sprintf("invalid date %q", fields[layout.DateColumn]))
	}

	amount, err := normalize.ParseSignedAmount(fields[layout.ValueColumn])
	switch {
	case err != nil:
		reasons = append(reasons, fmt.Sprintf("invalid amount %q", fields[layout.ValueColumn]))
	case !amount.IsPositive():
		reasons = append(reasons, fmt.Sprintf("non-positive amount %s", amount.StringFixed(2)))
	}

	parts := make([]string, 0, len(layout.DescriptionColumns))
	for _, c := range layout.DescriptionColumns {
		if f := strings.TrimSpace(fields[c]); f != "" {
			parts = append(parts, f)
		}
	}
	desc := merchant.Clean(strings.Join(parts, " "))
	if desc == "" {
		reasons = append(reasons, "empty description")
	}

	if len(reasons) > 0 {
		return model.ExternalTransaction{}, strings.Join(reasons, "; ")
	}
	return model.ExternalTransaction{
		Line:        ln.number,
		Date:        date,
		Description: desc,
		Amount:      amount.Round(2),
	}, ""
}
