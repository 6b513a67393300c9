// Package match scores how likely a statement line and a ledger installment
// describe the same charge.
package match

import (
	"errors"
	"fmt"

	"github.com/cleared-dev/recon/internal/model"
)

// Weights are the share of the 100-point score given to each component.
type Weights struct {
	Value       float64
	Date        float64
	Description float64
}

// Config holds the matching thresholds. It is a plain value: copies are
// independent, and With is the only way to derive an altered one.
type Config struct {
	ValueTolerance      float64 // currency units
	DateToleranceDays   int
	MinScore            int // scores below this never match
	HighConfidenceScore int
	Weights             Weights
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		ValueTolerance:      0.02,
		DateToleranceDays:   3,
		MinScore:            60,
		HighConfidenceScore: 80,
		Weights: Weights{
			Value:       0.4,
			Date:        0.3,
			Description: 0.3,
		},
	}
}

// Overrides lists the fields to replace; nil fields keep their current value.
type Overrides struct {
	ValueTolerance      *float64
	DateToleranceDays   *int
	MinScore            *int
	HighConfidenceScore *int
	ValueWeight         *float64
	DateWeight          *float64
	DescriptionWeight   *float64
}

// With returns a copy of c with o merged in. The receiver is never modified.
func (c Config) With(o Overrides) (Config, error) {
	if o.ValueTolerance != nil {
		c.ValueTolerance = *o.ValueTolerance
	}
	if o.DateToleranceDays != nil {
		c.DateToleranceDays = *o.DateToleranceDays
	}
	if o.MinScore != nil {
		c.MinScore = *o.MinScore
	}
	if o.HighConfidenceScore != nil {
		c.HighConfidenceScore = *o.HighConfidenceScore
	}
	if o.ValueWeight != nil {
		c.Weights.Value = *o.ValueWeight
	}
	if o.DateWeight != nil {
		c.Weights.Date = *o.DateWeight
	}
	if o.DescriptionWeight != nil {
		c.Weights.Description = *o.DescriptionWeight
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks that every threshold is in range.
func (c Config) Validate() error {
	var errs []error
	if c.ValueTolerance < 0 {
		errs = append(errs, fmt.Errorf("value tolerance %v is negative", c.ValueTolerance))
	}
	if c.DateToleranceDays < 0 {
		errs = append(errs, fmt.Errorf("date tolerance %d is negative", c.DateToleranceDays))
	}
	if c.MinScore < 0 || c.MinScore > 100 {
		errs = append(errs, fmt.Errorf("min score %d outside 0..100", c.MinScore))
	}
	if c.HighConfidenceScore < 0 || c.HighConfidenceScore > 100 {
		errs = append(errs, fmt.Errorf("high confidence score %d outside 0..100", c.HighConfidenceScore))
	}
	weights := []struct {
		name string
		w    float64
	}{
		{"value", c.Weights.Value},
		{"date", c.Weights.Date},
		{"description", c.Weights.Description},
	}
	for _, w := range weights {
		if w.w < 0 || w.w > 1 {
			errs = append(errs, fmt.Errorf("%s weight %v outside 0..1", w.name, w.w))
		}
	}
	if sum := c.Weights.Value + c.Weights.Date + c.Weights.Description; sum > 1+1e-9 {
		errs = append(errs, fmt.Errorf("weights sum to %v, more than 1", sum))
	}
	return errors.Join(errs...)
}

// Confidence maps a score to its tier. Scores below MinScore are always low.
func (c Config) Confidence(score int) model.Confidence {
	switch {
	case score < c.MinScore:
		return model.ConfidenceLow
	case score >= c.HighConfidenceScore:
		return model.ConfidenceHigh
	default:
		return model.ConfidenceMedium
	}
}
