package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/recon/internal/model"
)

// Header is the CSV header for ledger.csv. Each row is one installment;
// the expense columns repeat on every row of the same expense.
const Header = "expense_id,description,category,purchase_date,total_amount,installment,installment_count,amount,due_date,paid"

const (
	numFields    = 10
	dateFormat   = "2006-01-02"
	colExpenseID = 0
	colDesc      = 1
	colCategory  = 2
	colPurchase  = 3
	colTotal     = 4
	colNumber    = 5
	colCount     = 6
	colAmount    = 7
	colDue       = 8
	colPaid      = 9
)

// Row is one installment together with its parent expense fields.
type Row struct {
	Expense     model.Expense // Installments is always nil
	Installment model.Installment
}

// ReadExpenses reads a ledger.csv and groups its rows into expenses, in order
// of first appearance.
func ReadExpenses(r io.Reader) ([]model.Expense, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var expenses []model.Expense
	index := make(map[string]int)
	for i, rec := range records[1:] {
		row, err := UnmarshalRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		pos, seen := index[row.Expense.ID]
		if !seen {
			pos = len(expenses)
			index[row.Expense.ID] = pos
			expenses = append(expenses, row.Expense)
		}
		expenses[pos].Installments = append(expenses[pos].Installments, row.Installment)
	}
	return expenses, nil
}

// WriteExpenses writes expenses to a ledger.csv writer (including header).
func WriteExpenses(w io.Writer, expenses []model.Expense) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	line := 2
	for _, exp := range expenses {
		for _, inst := range exp.Installments {
			if err := cw.Write(MarshalRow(exp, inst)); err != nil {
				return fmt.Errorf("writing row %d: %w", line, err)
			}
			line++
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRow converts one installment of exp to a CSV row.
func MarshalRow(exp model.Expense, inst model.Installment) []string {
	row := make([]string, numFields)
	row[colExpenseID] = exp.ID
	row[colDesc] = exp.Description
	row[colCategory] = exp.Category
	if !exp.PurchaseDate.IsZero() {
		row[colPurchase] = exp.PurchaseDate.Format(dateFormat)
	}
	row[colTotal] = exp.Total.StringFixed(2)
	row[colNumber] = strconv.Itoa(inst.Number)
	row[colCount] = strconv.Itoa(exp.InstallmentCount)
	row[colAmount] = inst.Amount.StringFixed(2)
	if !inst.DueDate.IsZero() {
		row[colDue] = inst.DueDate.Format(dateFormat)
	}
	row[colPaid] = strconv.FormatBool(inst.Paid)
	return row
}

// UnmarshalRow converts a CSV row to a Row. An empty or unreadable due date
// is kept as the zero time so the installment still takes part in matching.
func UnmarshalRow(record []string) (Row, error) {
	if len(record) != numFields {
		return Row{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	if record[colExpenseID] == "" {
		return Row{}, fmt.Errorf("missing expense_id")
	}

	var purchase time.Time
	if record[colPurchase] != "" {
		d, err := time.Parse(dateFormat, record[colPurchase])
		if err != nil {
			return Row{}, fmt.Errorf("parsing purchase_date %q: %w", record[colPurchase], err)
		}
		purchase = d
	}

	total, err := decimal.NewFromString(record[colTotal])
	if err != nil {
		return Row{}, fmt.Errorf("parsing total_amount %q: %w", record[colTotal], err)
	}

	number, err := strconv.Atoi(record[colNumber])
	if err != nil {
		return Row{}, fmt.Errorf("parsing installment %q: %w", record[colNumber], err)
	}

	count, err := strconv.Atoi(record[colCount])
	if err != nil {
		return Row{}, fmt.Errorf("parsing installment_count %q: %w", record[colCount], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return Row{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	due, _ := time.Parse(dateFormat, record[colDue])

	paid := false
	if record[colPaid] != "" {
		paid, err = strconv.ParseBool(record[colPaid])
		if err != nil {
			return Row{}, fmt.Errorf("parsing paid %q: %w", record[colPaid], err)
		}
	}

	return Row{
		Expense: model.Expense{
			ID:               record[colExpenseID],
			Description:      record[colDesc],
			Category:         record[colCategory],
			PurchaseDate:     purchase,
			Total:            total,
			InstallmentCount: count,
		},
		Installment: model.Installment{
			ExpenseID: record[colExpenseID],
			Number:    number,
			Amount:    amount,
			DueDate:   due,
			Paid:      paid,
		},
	}, nil
}
