package ledger

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/recon/internal/model"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestReadExpenses_Fixture(t *testing.T) {
	f, err := os.Open("../../testdata/ledger.csv")
	require.NoError(t, err)
	defer f.Close()

	expenses, err := ReadExpenses(f)
	require.NoError(t, err)
	require.Len(t, expenses, 4)

	nb := expenses[2]
	assert.Equal(t, "e-notebook", nb.ID)
	assert.Equal(t, "Notebook Dell", nb.Description)
	assert.Equal(t, 10, nb.InstallmentCount)
	assert.True(t, nb.Total.Equal(dec("3500")))
	assert.Equal(t, date(2024, 9, 12), nb.PurchaseDate)
	require.Len(t, nb.Installments, 3)
	assert.True(t, nb.Installments[0].Paid)
	assert.Equal(t, 3, nb.Installments[1].Number)
	assert.Equal(t, date(2024, 11, 12), nb.Installments[1].DueDate)
	assert.Equal(t, "e-notebook", nb.Installments[1].ExpenseID)
}

func TestWriteThenRead(t *testing.T) {
	expenses := []model.Expense{
		{
			ID:               "a",
			Description:      `Loja "Central", SP`,
			Category:         "casa",
			PurchaseDate:     date(2025, 1, 3),
			Total:            dec("300"),
			InstallmentCount: 3,
			Installments: []model.Installment{
				{ExpenseID: "a", Number: 1, Amount: dec("100"), DueDate: date(2025, 2, 5), Paid: true},
				{ExpenseID: "a", Number: 2, Amount: dec("100"), DueDate: date(2025, 3, 5)},
				{ExpenseID: "a", Number: 3, Amount: dec("100")},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteExpenses(&buf, expenses))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, Header, lines[0])
	assert.Equal(t, `a,"Loja ""Central"", SP",casa,2025-01-03,300.00,1,3,100.00,2025-02-05,true`, lines[1])
	assert.Equal(t, `a,"Loja ""Central"", SP",casa,2025-01-03,300.00,3,3,100.00,,false`, lines[3])

	got, err := ReadExpenses(&buf)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, expenses[0].Description, got[0].Description)
	require.Len(t, got[0].Installments, 3)
	assert.True(t, got[0].Installments[2].DueDate.IsZero())
	assert.True(t, got[0].Installments[0].Paid)
}

func TestReadExpenses_Empty(t *testing.T) {
	got, err := ReadExpenses(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = ReadExpenses(strings.NewReader(Header + "\n"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUnmarshalRow_Errors(t *testing.T) {
	valid := []string{"e1", "Desc", "", "2025-01-01", "10.00", "1", "1", "10.00", "2025-02-05", "false"}

	tests := []struct {
		name  string
		col   int
		value string
		want  string
	}{
		{"missing id", colExpenseID, "", "missing expense_id"},
		{"bad purchase date", colPurchase, "01/01/2025", "purchase_date"},
		{"bad total", colTotal, "x", "total_amount"},
		{"bad number", colNumber, "one", "installment"},
		{"bad count", colCount, "?", "installment_count"},
		{"bad amount", colAmount, "1,00", "amount"},
		{"bad paid", colPaid, "maybe", "paid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := append([]string(nil), valid...)
			rec[tt.col] = tt.value
			_, err := UnmarshalRow(rec)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := UnmarshalRow(valid[:5])
	require.Error(t, err)

	row, err := UnmarshalRow(valid)
	require.NoError(t, err)
	assert.Equal(t, "e1", row.Installment.ExpenseID)
}

func TestUnmarshalRow_UnreadableDueDateIsZero(t *testing.T) {
	row, err := UnmarshalRow([]string{"e1", "Desc", "", "", "10.00", "1", "1", "10.00", "31/02", ""})
	require.NoError(t, err)
	assert.True(t, row.Installment.DueDate.IsZero())
	assert.False(t, row.Installment.Paid)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteExpenses_ReportsFlushError(t *testing.T) {
	err := WriteExpenses(failingWriter{}, nil)
	assert.ErrorContains(t, err, "disk full")
}
