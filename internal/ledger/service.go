// Package ledger stores expenses and their installments in a plain CSV file.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/cleared-dev/recon/internal/model"
)

// ErrNotFound is returned when an expense ID is not in the ledger.
var ErrNotFound = errors.New("expense not found")

// Service provides the expense lifecycle on top of a ledger.csv file.
type Service struct {
	path  string
	newID func() string
}

// NewService creates a ledger Service for the file at path.
func NewService(path string) *Service {
	return &Service{path: path, newID: uuid.NewString}
}

// Path returns the ledger file location.
func (s *Service) Path() string { return s.path }

// Load reads every expense. A missing file is an empty ledger.
func (s *Service) Load() ([]model.Expense, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.Expense{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", s.path, err)
	}
	defer f.Close()

	expenses, err := ReadExpenses(f)
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", s.path, err)
	}
	if expenses == nil {
		expenses = []model.Expense{}
	}
	return expenses, nil
}

// Save stores exp, replacing every installment previously stored under its
// ID. An expense without an ID gets a new one. Returns the expense ID.
func (s *Service) Save(exp model.Expense) (string, error) {
	expenses, err := s.Load()
	if err != nil {
		return "", err
	}

	exp = exp.Clone()
	if exp.ID == "" {
		exp.ID = s.newID()
	}
	for i := range exp.Installments {
		exp.Installments[i].ExpenseID = exp.ID
	}

	pos := slices.IndexFunc(expenses, func(e model.Expense) bool { return e.ID == exp.ID })
	if pos >= 0 {
		expenses[pos] = exp
	} else {
		expenses = append(expenses, exp)
	}

	if err := s.write(expenses); err != nil {
		return "", err
	}
	return exp.ID, nil
}

// Delete removes an expense and all of its installments.
func (s *Service) Delete(id string) error {
	expenses, err := s.Load()
	if err != nil {
		return err
	}
	pos := slices.IndexFunc(expenses, func(e model.Expense) bool { return e.ID == id })
	if pos < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.write(slices.Delete(expenses, pos, pos+1))
}

// MarkPaid flags the installments named by matches as paid and returns how
// many changed. Matches whose installment is no longer stored are ignored.
func (s *Service) MarkPaid(matches []model.Reconciliation) (int, error) {
	expenses, err := s.Load()
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, m := range matches {
		for ei := range expenses {
			if expenses[ei].ID != m.App.Installment.ExpenseID {
				continue
			}
			for ii := range expenses[ei].Installments {
				inst := &expenses[ei].Installments[ii]
				if inst.Number == m.App.Installment.Number && !inst.Paid {
					inst.Paid = true
					changed++
				}
			}
		}
	}
	if changed == 0 {
		return 0, nil
	}
	if err := s.write(expenses); err != nil {
		return 0, err
	}
	return changed, nil
}

// Unpaid returns the expenses with their paid installments removed. Expenses
// with nothing left to pay are dropped.
func Unpaid(expenses []model.Expense) []model.Expense {
	out := make([]model.Expense, 0, len(expenses))
	for _, exp := range expenses {
		c := exp.Clone()
		c.Installments = slices.DeleteFunc(c.Installments, func(i model.Installment) bool { return i.Paid })
		if len(c.Installments) > 0 {
			out = append(out, c)
		}
	}
	return out
}

func (s *Service) write(expenses []model.Expense) error {
	if verrs := ValidateExpenses(expenses); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating ledger dir: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating ledger: %w", err)
	}
	if err := WriteExpenses(f, expenses); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing ledger: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing ledger: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing ledger: %w", err)
	}
	return nil
}
