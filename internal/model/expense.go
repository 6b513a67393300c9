package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is an internally recorded purchase that fans out into one or more installments.
type Expense struct {
	ID               string          `json:"id"`
	Description      string          `json:"description"`
	Category         string          `json:"category,omitempty"`
	PurchaseDate     time.Time       `json:"purchaseDate"`
	Total            decimal.Decimal `json:"total"`
	InstallmentCount int             `json:"installmentCount"`
	Installments     []Installment   `json:"installments,omitempty"`
}

// Installment is one scheduled portion of an Expense.
type Installment struct {
	ExpenseID string          `json:"expenseId"`
	Number    int             `json:"number"` // 1-based
	Amount    decimal.Decimal `json:"amount"`
	DueDate   time.Time       `json:"dueDate"` // zero when the stored date could not be read
	Paid      bool            `json:"paid"`
}

// Clone returns a deep copy of e. The installment slice is never shared.
func (e Expense) Clone() Expense {
	c := e
	c.Installments = append([]Installment(nil), e.Installments...)
	return c
}

// InstallmentLabel describes installment n of e, e.g. "Notebook (parcela 3/10)".
func (e Expense) InstallmentLabel(n int) string {
	count := e.InstallmentCount
	if count < len(e.Installments) {
		count = len(e.Installments)
	}
	if count <= 1 {
		return e.Description
	}
	return fmt.Sprintf("%s (parcela %d/%d)", e.Description, n, count)
}
