// Package report renders reconciliation results.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cleared-dev/recon/internal/model"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want json or csv)", s)
	}
}

// Write renders res to w in the given format.
func Write(w io.Writer, res *model.Result, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, res)
	case FormatCSV:
		return WriteCSV(w, res)
	default:
		return fmt.Errorf("unknown report format %q", f)
	}
}

// WriteJSON writes res as indented JSON.
func WriteJSON(w io.Writer, res *model.Result) error {
	return EncodeJSON(w, res)
}

// EncodeJSON writes any report value as indented JSON.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// CSVHeader is the header row of the CSV report.
const CSVHeader = "status,line,date,description,amount,expense_id,installment,due_date,score,confidence"

const dateFormat = "2006-01-02"

// Row statuses in the CSV report.
const (
	StatusReconciled  = "reconciled"
	StatusInvoiceOnly = "invoice_only"
	StatusAppOnly     = "app_only"
	StatusAnomaly     = "anomaly"
)

// WriteCSV writes one row per reconciled pair, unreconciled item and anomaly.
func WriteCSV(w io.Writer, res *model.Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(CSVHeader, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	var rows [][]string
	for _, r := range res.Reconciled {
		due := ""
		if !r.App.Installment.DueDate.IsZero() {
			due = r.App.Installment.DueDate.Format(dateFormat)
		}
		rows = append(rows, []string{
			StatusReconciled,
			strconv.Itoa(r.Invoice.Line),
			r.Invoice.Date,
			r.Invoice.Description,
			r.Invoice.Amount.StringFixed(2),
			r.App.Expense.ID,
			strconv.Itoa(r.App.Installment.Number),
			due,
			strconv.Itoa(r.Score.Total),
			string(r.Confidence),
		})
	}
	for _, it := range res.UnreconciledInvoiceItems {
		rows = append(rows, []string{
			StatusInvoiceOnly, strconv.Itoa(it.Line), it.Date, it.Description, it.Amount.StringFixed(2),
			"", "", "", "", "",
		})
	}
	for _, app := range res.UnreconciledAppItems {
		due := ""
		if !app.DueDate.IsZero() {
			due = app.DueDate.Format(dateFormat)
		}
		rows = append(rows, []string{
			StatusAppOnly, "", "", app.Description, app.Amount.StringFixed(2),
			app.ExpenseID, strconv.Itoa(app.Number), due, "", "",
		})
	}
	for _, a := range res.Anomalies {
		rows = append(rows, []string{
			StatusAnomaly, "", a.Date, a.Description, a.Amount.StringFixed(2),
			"", "", "", strconv.FormatFloat(a.ZScore, 'f', 2, 64), string(a.Source),
		})
	}

	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Summary writes a short human-readable summary of res.
func Summary(w io.Writer, res *model.Result) error {
	s := res.Summary
	_, err := fmt.Fprintf(w,
		"run %s\n  statement items: %d (total %s)\n  ledger installments: %d\n  reconciled: %d (%d high, %d medium), total %s\n  rate: %.2f%%\n  unreconciled: %d statement, %d ledger\n  anomalies: %d\n  errors: %d\n",
		res.RunID,
		s.InvoiceItems, res.TotalInvoice.StringFixed(2),
		s.AppItems,
		s.Reconciled, s.HighConfidence, s.MediumConfidence, res.TotalReconciled.StringFixed(2),
		res.ReconciliationRate,
		s.UnreconciledInvoice, s.UnreconciledApp,
		s.Anomalies,
		s.Errors,
	)
	return err
}
