package match

import (
	"math"

	"github.com/cleared-dev/recon/internal/merchant"
	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/normalize"
)

const (
	valuePenaltyPerUnit = 50
	datePenaltyPerDay   = 10
)

// Scorer computes match scores. It is safe for concurrent use.
type Scorer struct {
	cfg     Config
	catalog merchant.Catalog
}

// NewScorer creates a Scorer.
func NewScorer(cfg Config, catalog merchant.Catalog) *Scorer {
	return &Scorer{cfg: cfg, catalog: catalog}
}

// Config returns the thresholds the scorer was built with.
func (s *Scorer) Config() Config { return s.cfg }

// Score rates item against installment inst of parent.
//
// Value: full weight within ValueTolerance, otherwise weight*100 - diff*50.
// Date: full weight within DateToleranceDays, otherwise weight*100 - days*10;
// nothing when either date is unreadable. Description: full weight when both
// sides resolve to the same establishment, otherwise similarity*weight*100.
func (s *Scorer) Score(item model.ExternalTransaction, parent model.Expense, inst model.Installment) model.MatchScore {
	w := s.cfg.Weights
	var out model.MatchScore

	diff := item.Amount.Sub(inst.Amount).Abs().InexactFloat64()
	out.Details.ValueDiff = diff
	if diff <= s.cfg.ValueTolerance {
		out.Breakdown.Value = w.Value * 100
	} else {
		out.Breakdown.Value = math.Max(0, w.Value*100-diff*valuePenaltyPerUnit)
	}

	if days, ok := s.dayDistance(item, inst); ok {
		out.Details.DateDiff = days
		out.Details.DateComparable = true
		if days <= s.cfg.DateToleranceDays {
			out.Breakdown.Date = w.Date * 100
		} else {
			out.Breakdown.Date = math.Max(0, w.Date*100-float64(days)*datePenaltyPerDay)
		}
	}

	ext := s.catalog.Normalize(item.Description)
	app := s.catalog.Normalize(parent.Description)
	out.Details.Similarity = merchant.Similarity(ext.Text, app.Text)
	out.Details.SameEstablishment = ext.Establishment != "" && ext.Establishment == app.Establishment
	if out.Details.SameEstablishment {
		out.Breakdown.Description = w.Description * 100
	} else {
		out.Breakdown.Description = out.Details.Similarity * w.Description * 100
	}

	total := math.Round(out.Breakdown.Value + out.Breakdown.Date + out.Breakdown.Description)
	out.Total = int(math.Min(100, math.Max(0, total)))
	return out
}

// Eligible reports whether a score clears the minimum match threshold.
func (s *Scorer) Eligible(score model.MatchScore) bool {
	return score.Total >= s.cfg.MinScore
}

// dayDistance compares the item date, placed in the year nearest
// the due date, with the installment's due date.
func (s *Scorer) dayDistance(item model.ExternalTransaction, inst model.Installment) (int, bool) {
	if inst.DueDate.IsZero() {
		return 0, false
	}
	day, month, err := normalize.ParseDayMonth(item.Date)
	if err != nil {
		return 0, false
	}
	posted, ok := normalize.NearestDate(day, month, inst.DueDate)
	if !ok {
		return 0, false
	}
	return normalize.DaysBetween(posted, inst.DueDate), true
}

// Confidence returns the tier of score.
func (s *Scorer) Confidence(score model.MatchScore) model.Confidence {
	return s.cfg.Confidence(score.Total)
}
