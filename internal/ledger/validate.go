package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/recon/internal/model"
)

// ValidationError describes a single rule violation in the ledger.
type ValidationError struct {
	ExpenseID   string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("expense %s: %s", e.ExpenseID, e.Description)
}

// ValidateExpenses checks a set of expenses before they are written.
func ValidateExpenses(expenses []model.Expense) []ValidationError {
	var errs []ValidationError
	ids := make(map[string]bool)
	hundred := decimal.NewFromInt(100)

	for _, exp := range expenses {
		fail := func(format string, args ...any) {
			errs = append(errs, ValidationError{ExpenseID: exp.ID, Description: fmt.Sprintf(format, args...)})
		}

		if exp.ID == "" {
			fail("missing id")
		}
		if ids[exp.ID] {
			fail("duplicate id")
		}
		ids[exp.ID] = true

		if exp.Description == "" {
			fail("missing description")
		}
		if len(exp.Installments) == 0 {
			fail("no installments")
		}
		if exp.InstallmentCount < len(exp.Installments) {
			fail("installment_count %d is less than %d stored installments", exp.InstallmentCount, len(exp.Installments))
		}

		seen := make(map[int]bool)
		for _, inst := range exp.Installments {
			if inst.ExpenseID != exp.ID {
				fail("installment %d belongs to %q", inst.Number, inst.ExpenseID)
			}
			if inst.Number < 1 || inst.Number > exp.InstallmentCount {
				fail("installment %d outside 1..%d", inst.Number, exp.InstallmentCount)
			}
			if seen[inst.Number] {
				fail("installment %d repeated", inst.Number)
			}
			seen[inst.Number] = true

			if !inst.Amount.IsPositive() {
				fail("installment %d amount %s is not positive", inst.Number, inst.Amount)
			}
			if !inst.Amount.Mul(hundred).Equal(inst.Amount.Mul(hundred).Floor()) {
				fail("installment %d amount %s has more than 2 decimal places", inst.Number, inst.Amount)
			}
		}
	}
	return errs
}
