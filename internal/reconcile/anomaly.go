package reconcile

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/normalize"
)

// AnomalyConfig controls unusual-amount detection.
type AnomalyConfig struct {
	// MinGroupSize is the smallest establishment group that is analysed.
	MinGroupSize int
	// ZThreshold is the z-score an amount must exceed to be flagged.
	ZThreshold float64
	// FallbackGroup collects items with no recognised establishment.
	FallbackGroup string
}

// DefaultAnomalyConfig returns the stock detection settings.
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{MinGroupSize: 3, ZThreshold: 2.0, FallbackGroup: "OUTROS"}
}

// Validate checks that the settings can be used.
func (c AnomalyConfig) Validate() error {
	var errs []error
	if c.MinGroupSize < 2 {
		errs = append(errs, errors.New("min group size must be at least 2"))
	}
	if c.ZThreshold <= 0 {
		errs = append(errs, errors.New("z threshold must be positive"))
	}
	if c.FallbackGroup == "" {
		errs = append(errs, errors.New("fallback group name is required"))
	}
	return errors.Join(errs...)
}

type anomalyCandidate struct {
	source      model.ItemSource
	date        string
	description string
	amount      decimal.Decimal
}

// detectAnomalies flags amounts that are outliers within their establishment
// group. Groups are analysed in order of first appearance.
func (e *Engine) detectAnomalies(items []model.ExternalTransaction, leftovers []model.AppItem) []model.Anomaly {
	var order []string
	groups := make(map[string][]anomalyCandidate)
	add := func(c anomalyCandidate) {
		name, ok := e.catalog.Classify(c.description)
		if !ok {
			name = e.anomaly.FallbackGroup
		}
		if _, seen := groups[name]; !seen {
			order = append(order, name)
		}
		groups[name] = append(groups[name], c)
	}

	for _, it := range items {
		add(anomalyCandidate{source: model.SourceInvoice, date: it.Date, description: it.Description, amount: it.Amount})
	}
	for _, app := range leftovers {
		add(anomalyCandidate{
			source:      model.SourceApp,
			date:        normalize.FormatDisplay(app.DueDate),
			description: app.Description,
			amount:      app.Amount,
		})
	}

	anomalies := []model.Anomaly{}
	for _, name := range order {
		members := groups[name]
		if len(members) < e.anomaly.MinGroupSize {
			continue
		}
		mean, std := meanStd(members)
		if std == 0 {
			continue
		}
		for _, m := range members {
			z := math.Abs(m.amount.InexactFloat64()-mean) / std
			if z <= e.anomaly.ZThreshold {
				continue
			}
			anomalies = append(anomalies, model.Anomaly{
				Source:        m.source,
				Date:          m.date,
				Description:   m.description,
				Amount:        m.amount,
				Type:          model.AnomalyUnusualAmount,
				Establishment: name,
				ExpectedRange: [2]float64{round2(mean - std), round2(mean + std)},
				Confidence:    math.Min(z/3, 1),
				ZScore:        round2(z),
			})
		}
	}
	return anomalies
}

// meanStd returns the mean and population standard deviation of the amounts.
func meanStd(members []anomalyCandidate) (float64, float64) {
	var sum float64
	for _, m := range members {
		sum += m.amount.InexactFloat64()
	}
	mean := sum / float64(len(members))
	var sq float64
	for _, m := range members {
		d := m.amount.InexactFloat64() - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(members)))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
