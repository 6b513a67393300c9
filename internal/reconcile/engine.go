// Package reconcile pairs statement lines with ledger installments.
package reconcile

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/recon/internal/logger"
	"github.com/cleared-dev/recon/internal/match"
	"github.com/cleared-dev/recon/internal/merchant"
	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/normalize"
)

// ErrInvalidInput is reported when Reconcile is called without one of its inputs.
var ErrInvalidInput = errors.New("invalid reconciliation input")

// Scorer rates one statement line against one installment.
type Scorer interface {
	Score(item model.ExternalTransaction, parent model.Expense, inst model.Installment) model.MatchScore
	Eligible(score model.MatchScore) bool
	Confidence(score model.MatchScore) model.Confidence
}

// Options configures an Engine. Zero fields take defaults.
type Options struct {
	Matching match.Config
	Anomaly  AnomalyConfig
	// Catalog classifies establishments. A catalog with no patterns means
	// merchant.DefaultCatalog.
	Catalog merchant.Catalog
	// Scorer overrides the scorer built from Matching and Catalog.
	Scorer   Scorer
	Logger   zerolog.Logger
	NewRunID func() string
}

// Engine runs reconciliations. It keeps no state between runs and never
// modifies its inputs, so one Engine may serve concurrent callers.
type Engine struct {
	scorer  Scorer
	anomaly AnomalyConfig
	catalog merchant.Catalog
	log     zerolog.Logger
	newID   func() string
}

// New creates an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Matching == (match.Config{}) {
		opts.Matching = match.DefaultConfig()
	}
	if err := opts.Matching.Validate(); err != nil {
		return nil, fmt.Errorf("matching config: %w", err)
	}
	if opts.Anomaly == (AnomalyConfig{}) {
		opts.Anomaly = DefaultAnomalyConfig()
	}
	if err := opts.Anomaly.Validate(); err != nil {
		return nil, fmt.Errorf("anomaly config: %w", err)
	}
	if opts.Catalog.Len() == 0 {
		opts.Catalog = merchant.DefaultCatalog()
	}
	if opts.Scorer == nil {
		opts.Scorer = match.NewScorer(opts.Matching, opts.Catalog)
	}
	if opts.NewRunID == nil {
		opts.NewRunID = uuid.NewString
	}
	return &Engine{
		scorer:  opts.Scorer,
		anomaly: opts.Anomaly,
		catalog: opts.Catalog,
		log:     opts.Logger,
		newID:   opts.NewRunID,
	}, nil
}

type candidate struct {
	found   bool
	expense int
	inst    int
	score   model.MatchScore
}

// Reconcile matches every statement line against the ledger installments.
//
// Lines are processed in order and each takes the highest-scoring eligible
// installment still available; ties keep the first installment found. A
// matched installment leaves the pool, so no installment is matched twice.
// Failures on one line are recorded in Result.Errors and that line is left
// unreconciled. Nil items or expenses yield an empty result carrying
// ErrInvalidInput.
func (e *Engine) Reconcile(items []model.ExternalTransaction, expenses []model.Expense) *model.Result {
	res := &model.Result{
		RunID:                    e.newID(),
		Reconciled:               []model.Reconciliation{},
		UnreconciledInvoiceItems: []model.ExternalTransaction{},
		UnreconciledAppItems:     []model.AppItem{},
		Anomalies:                []model.Anomaly{},
		Errors:                   []model.ItemError{},
		TotalInvoice:             decimal.Zero,
		TotalReconciled:          decimal.Zero,
	}
	log := logger.WithFields(e.log, map[string]any{
		"run_id":   res.RunID,
		"items":    len(items),
		"expenses": len(expenses),
	})

	if items == nil || expenses == nil {
		res.Errors = append(res.Errors, model.ItemError{
			Index:   -1,
			Message: fmt.Sprintf("%s: statement items and ledger expenses are both required", ErrInvalidInput),
		})
		res.Summary.Errors = len(res.Errors)
		log.Warn().Msg("reconciliation called without inputs")
		return res
	}

	// Matched installments are removed from this copy, never from expenses.
	pool := make([]model.Expense, len(expenses))
	for i := range expenses {
		pool[i] = expenses[i].Clone()
		res.Summary.AppItems += len(expenses[i].Installments)
	}
	res.Summary.InvoiceItems = len(items)

	for i, it := range items {
		if it.Amount.IsPositive() {
			res.TotalInvoice = res.TotalInvoice.Add(it.Amount)
		}

		if err := validateItem(it); err != nil {
			res.UnreconciledInvoiceItems = append(res.UnreconciledInvoiceItems, it)
			res.Errors = append(res.Errors, model.ItemError{Index: i, Line: it.Line, Message: err.Error()})
			continue
		}

		best, err := e.bestCandidate(it, pool)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Int("line", it.Line).Msg("scoring failed")
			res.UnreconciledInvoiceItems = append(res.UnreconciledInvoiceItems, it)
			res.Errors = append(res.Errors, model.ItemError{Index: i, Line: it.Line, Message: err.Error()})
			continue
		}
		if !best.found {
			res.UnreconciledInvoiceItems = append(res.UnreconciledInvoiceItems, it)
			continue
		}

		exp := pool[best.expense]
		inst := exp.Installments[best.inst]
		matched := exp
		matched.Installments = nil
		conf := e.scorer.Confidence(best.score)
		res.Reconciled = append(res.Reconciled, model.Reconciliation{
			Invoice:    it,
			App:        model.AppMatch{Expense: matched, Installment: inst},
			Score:      best.score,
			Confidence: conf,
		})
		res.TotalReconciled = res.TotalReconciled.Add(it.Amount)
		pool[best.expense].Installments = slices.Delete(exp.Installments, best.inst, best.inst+1)

		switch conf {
		case model.ConfidenceHigh:
			res.Summary.HighConfidence++
		case model.ConfidenceMedium:
			res.Summary.MediumConfidence++
		}
	}

	for _, exp := range pool {
		for _, inst := range exp.Installments {
			res.UnreconciledAppItems = append(res.UnreconciledAppItems, model.AppItem{
				ExpenseID:   exp.ID,
				Number:      inst.Number,
				Description: exp.InstallmentLabel(inst.Number),
				Amount:      inst.Amount,
				DueDate:     inst.DueDate,
				Paid:        inst.Paid,
			})
		}
	}

	res.Anomalies = e.detectAnomalies(items, res.UnreconciledAppItems)
	res.ReconciliationRate = rate(res.TotalReconciled, res.TotalInvoice)

	res.Summary.Reconciled = len(res.Reconciled)
	res.Summary.UnreconciledInvoice = len(res.UnreconciledInvoiceItems)
	res.Summary.UnreconciledApp = len(res.UnreconciledAppItems)
	res.Summary.Anomalies = len(res.Anomalies)
	res.Summary.Errors = len(res.Errors)

	log.Info().
		Int("invoice_items", res.Summary.InvoiceItems).
		Int("reconciled", res.Summary.Reconciled).
		Int("unreconciled_app", res.Summary.UnreconciledApp).
		Int("anomalies", res.Summary.Anomalies).
		Float64("rate", res.ReconciliationRate).
		Msg("reconciliation finished")
	return res
}

// bestCandidate scans every remaining installment for the highest eligible
// score. A panic inside the scorer is returned as an error.
func (e *Engine) bestCandidate(it model.ExternalTransaction, pool []model.Expense) (best candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			best = candidate{}
			err = fmt.Errorf("scoring line %d: %v", it.Line, r)
		}
	}()

	for ei := range pool {
		for ii, inst := range pool[ei].Installments {
			s := e.scorer.Score(it, pool[ei], inst)
			if !e.scorer.Eligible(s) {
				continue
			}
			if !best.found || s.Total > best.score.Total {
				best = candidate{found: true, expense: ei, inst: ii, score: s}
			}
		}
	}
	return best, nil
}

func validateItem(it model.ExternalTransaction) error {
	if _, _, err := normalize.ParseDayMonth(it.Date); err != nil {
		return fmt.Errorf("line %d: %w", it.Line, err)
	}
	if !it.Amount.IsPositive() {
		return fmt.Errorf("line %d: amount %s is not positive", it.Line, it.Amount.StringFixed(2))
	}
	return nil
}

// rate returns reconciled/total as a percentage in [0, 100], 0 for an empty statement.
func rate(reconciled, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	hundred := decimal.NewFromInt(100)
	r := reconciled.Div(total).Mul(hundred).Round(2)
	if r.GreaterThan(hundred) {
		return 100
	}
	if r.IsNegative() {
		return 0
	}
	return r.InexactFloat64()
}
