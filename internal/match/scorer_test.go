package match

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/cleared-dev/recon/internal/merchant"
	"github.com/cleared-dev/recon/internal/model"
)

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func item(date, desc, amount string) model.ExternalTransaction {
	return model.ExternalTransaction{Date: date, Description: desc, Amount: decimal.RequireFromString(amount)}
}

func installment(amount string, due time.Time) model.Installment {
	return model.Installment{Number: 1, Amount: decimal.RequireFromString(amount), DueDate: due}
}

func newScorer() *Scorer {
	return NewScorer(DefaultConfig(), merchant.DefaultCatalog())
}

func TestScore_PerfectMatch(t *testing.T) {
	s := newScorer()
	got := s.Score(item("05 NOV", "UBER TRIP 123", "23.50"), model.Expense{Description: "Uber"}, installment("23.50", day(2024, 11, 5)))

	assert.Equal(t, 100, got.Total)
	assert.InDelta(t, 40, got.Breakdown.Value, 1e-9)
	assert.InDelta(t, 30, got.Breakdown.Date, 1e-9)
	assert.InDelta(t, 30, got.Breakdown.Description, 1e-9)
	assert.True(t, got.Details.SameEstablishment)
	assert.True(t, got.Details.DateComparable)
	assert.Equal(t, 0, got.Details.DateDiff)
	assert.Equal(t, 0.0, got.Details.ValueDiff)
	assert.True(t, s.Eligible(got))
}

func TestScore_ValueComponent(t *testing.T) {
	s := newScorer()
	parent := model.Expense{Description: "Netflix"}
	due := day(2024, 11, 5)

	tests := []struct {
		amount string
		want   float64
	}{
		{"39.90", 40},
		{"39.92", 40}, // within tolerance
		{"40.00", 35},
		{"40.40", 15},
		{"41.00", 0},
		{"10.00", 0},
	}
	for _, tt := range tests {
		got := s.Score(item("05 NOV", "NETFLIX.COM", "39.90"), parent, installment(tt.amount, due))
		assert.InDelta(t, tt.want, got.Breakdown.Value, 1e-6, "amount %s", tt.amount)
	}
}

func TestScore_DateComponent(t *testing.T) {
	s := newScorer()
	parent := model.Expense{Description: "Netflix"}

	tests := []struct {
		due  time.Time
		want float64
	}{
		{day(2024, 11, 5), 30},
		{day(2024, 11, 8), 30},
		{day(2024, 11, 2), 30},
		{day(2024, 11, 9), 0},
		{day(2024, 12, 5), 0},
	}
	for _, tt := range tests {
		got := s.Score(item("05 NOV", "NETFLIX", "39.90"), parent, installment("39.90", tt.due))
		assert.InDelta(t, tt.want, got.Breakdown.Date, 1e-6, "due %s", tt.due)
	}
}

func TestScore_DateAcrossYearBoundary(t *testing.T) {
	s := newScorer()
	got := s.Score(item("30 DEZ", "NETFLIX", "39.90"), model.Expense{Description: "Netflix"}, installment("39.90", day(2025, 1, 2)))
	assert.True(t, got.Details.DateComparable)
	assert.Equal(t, 3, got.Details.DateDiff)
	assert.InDelta(t, 30, got.Breakdown.Date, 1e-6)
}

func TestScore_UnreadableDates(t *testing.T) {
	s := newScorer()
	parent := model.Expense{Description: "Netflix"}

	got := s.Score(item("Data Inválida", "NETFLIX", "39.90"), parent, installment("39.90", day(2024, 11, 5)))
	assert.False(t, got.Details.DateComparable)
	assert.Equal(t, 0.0, got.Breakdown.Date)
	assert.Equal(t, 70, got.Total)

	got = s.Score(item("05 NOV", "NETFLIX", "39.90"), parent, installment("39.90", time.Time{}))
	assert.False(t, got.Details.DateComparable)
	assert.Equal(t, 70, got.Total)
}

func TestScore_DescriptionSimilarity(t *testing.T) {
	s := newScorer()
	due := day(2024, 11, 5)

	got := s.Score(item("05 NOV", "Padaria Pão Quente", "12.00"), model.Expense{Description: "padaria pão quente"}, installment("12.00", due))
	assert.False(t, got.Details.SameEstablishment)
	assert.Equal(t, 1.0, got.Details.Similarity)
	assert.Equal(t, 100, got.Total)

	got = s.Score(item("05 NOV", "abcd", "12.00"), model.Expense{Description: "abxy"}, installment("12.00", due))
	assert.InDelta(t, 0.5, got.Details.Similarity, 1e-9)
	assert.InDelta(t, 15, got.Breakdown.Description, 1e-9)
	assert.Equal(t, 85, got.Total)
}

func TestScore_DifferentEstablishmentsUseSimilarity(t *testing.T) {
	s := newScorer()
	got := s.Score(item("05 NOV", "UBER TRIP", "20.00"), model.Expense{Description: "iFood"}, installment("20.00", day(2024, 11, 5)))
	assert.False(t, got.Details.SameEstablishment)
	assert.Less(t, got.Breakdown.Description, 30.0)
}

func TestScore_BelowThresholdNotEligible(t *testing.T) {
	s := newScorer()
	got := s.Score(item("05 NOV", "UBER", "20.00"), model.Expense{Description: "Aluguel"}, installment("900.00", day(2024, 8, 1)))
	assert.Less(t, got.Total, 60)
	assert.False(t, s.Eligible(got))
}

func TestScore_CustomWeights(t *testing.T) {
	w := 1.0
	zero := 0.0
	cfg, err := DefaultConfig().With(Overrides{ValueWeight: &w, DateWeight: &zero, DescriptionWeight: &zero})
	if !assert.NoError(t, err) {
		return
	}
	s := NewScorer(cfg, merchant.DefaultCatalog())
	got := s.Score(item("05 JAN", "x", "10.00"), model.Expense{Description: "y"}, installment("10.00", day(2024, 6, 1)))
	assert.Equal(t, 100, got.Total)
}
