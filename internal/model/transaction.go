package model

import (
	"github.com/shopspring/decimal"
)

// ExternalTransaction is one line item read from a statement export.
type ExternalTransaction struct {
	Line        int             `json:"line"`        // 1-based line in the source document, 0 if unknown
	Date        string          `json:"date"`        // canonical "DD MMM" form, or normalize.InvalidDate
	Description string          `json:"description"` // cleaned, original casing
	Amount      decimal.Decimal `json:"amount"`      // non-negative, rounded to cents
}
