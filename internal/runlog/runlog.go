// Package runlog keeps an append-only CSV history of reconciliation runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/recon/internal/model"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp    time.Time
	RunID        string
	Statement    string
	InvoiceItems int
	AppItems     int
	Reconciled   int
	Anomalies    int
	Errors       int
	Rate         float64
}

// Header is the CSV header for the run log.
const Header = "timestamp,run_id,statement,invoice_items,app_items,reconciled,anomalies,errors,rate"

const (
	numFields       = 9
	colTimestamp    = 0
	colRunID        = 1
	colStatement    = 2
	colInvoiceItems = 3
	colAppItems     = 4
	colReconciled   = 5
	colAnomalies    = 6
	colErrors       = 7
	colRate         = 8
)

// FromResult builds the log entry for a finished run.
func FromResult(ts time.Time, statement string, res *model.Result) Entry {
	return Entry{
		Timestamp:    ts,
		RunID:        res.RunID,
		Statement:    statement,
		InvoiceItems: res.Summary.InvoiceItems,
		AppItems:     res.Summary.AppItems,
		Reconciled:   res.Summary.Reconciled,
		Anomalies:    res.Summary.Anomalies,
		Errors:       res.Summary.Errors,
		Rate:         res.ReconciliationRate,
	}
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colStatement] = e.Statement
	row[colInvoiceItems] = strconv.Itoa(e.InvoiceItems)
	row[colAppItems] = strconv.Itoa(e.AppItems)
	row[colReconciled] = strconv.Itoa(e.Reconciled)
	row[colAnomalies] = strconv.Itoa(e.Anomalies)
	row[colErrors] = strconv.Itoa(e.Errors)
	row[colRate] = strconv.FormatFloat(e.Rate, 'f', 2, 64)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	counts := make([]int, 0, 5)
	for _, col := range []int{colInvoiceItems, colAppItems, colReconciled, colAnomalies, colErrors} {
		n, err := strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing count %q: %w", record[col], err)
		}
		counts = append(counts, n)
	}

	rate, err := strconv.ParseFloat(record[colRate], 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing rate %q: %w", record[colRate], err)
	}

	return Entry{
		Timestamp:    ts,
		RunID:        record[colRunID],
		Statement:    record[colStatement],
		InvoiceItems: counts[0],
		AppItems:     counts[1],
		Reconciled:   counts[2],
		Anomalies:    counts[3],
		Errors:       counts[4],
		Rate:         rate,
	}, nil
}

// Append writes entries to the log at path, creating the file and header if needed.
func Append(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating run log dir: %w", err)
	}

	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from the log at path.
// Returns an empty slice if the file does not exist.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
