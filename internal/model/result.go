package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Confidence is the coarse tier derived from a match score.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ScoreBreakdown holds the weighted contribution of each component.
type ScoreBreakdown struct {
	Value       float64 `json:"value"`
	Date        float64 `json:"date"`
	Description float64 `json:"description"`
}

// ScoreDetails holds the raw measurements behind a score.
type ScoreDetails struct {
	ValueDiff         float64 `json:"valueDiff"`
	DateDiff          int     `json:"dateDiff"` // days; meaningful only when DateComparable
	DateComparable    bool    `json:"dateComparable"`
	Similarity        float64 `json:"similarity"`
	SameEstablishment bool    `json:"sameEstablishment"`
}

// MatchScore is the similarity between one external item and one installment, 0..100.
type MatchScore struct {
	Total     int            `json:"total"`
	Breakdown ScoreBreakdown `json:"breakdown"`
	Details   ScoreDetails   `json:"details"`
}

// AppMatch is the internal side of a reconciled pair.
type AppMatch struct {
	Expense     Expense     `json:"expense"`
	Installment Installment `json:"installment"`
}

// Reconciliation pairs an external item with the installment it was matched to.
type Reconciliation struct {
	Invoice    ExternalTransaction `json:"invoice"`
	App        AppMatch            `json:"app"`
	Score      MatchScore          `json:"matchScore"`
	Confidence Confidence          `json:"confidence"`
}

// AppItem is an installment that no external item claimed.
type AppItem struct {
	ExpenseID   string          `json:"expenseId"`
	Number      int             `json:"number"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"dueDate"`
	Paid        bool            `json:"paid"`
}

// ItemSource tells which side of a reconciliation an anomaly candidate came from.
type ItemSource string

const (
	SourceInvoice ItemSource = "invoice"
	SourceApp     ItemSource = "app"
)

// AnomalyType classifies a flagged item.
type AnomalyType string

const AnomalyUnusualAmount AnomalyType = "unusual_amount"

// Anomaly is an item whose amount is a statistical outlier within its establishment group.
type Anomaly struct {
	Source        ItemSource      `json:"source"`
	Date          string          `json:"date"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Type          AnomalyType     `json:"anomalyType"`
	Establishment string          `json:"establishment"`
	ExpectedRange [2]float64      `json:"expectedRange"`
	Confidence    float64         `json:"confidence"`
	ZScore        float64         `json:"zScore"`
}

// ItemError records a non-fatal failure while handling one external item.
type ItemError struct {
	Index   int    `json:"index"` // position in the external item list, -1 for run-level errors
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

// Summary holds the headline counts of a run.
type Summary struct {
	InvoiceItems        int `json:"invoiceItems"`
	AppItems            int `json:"appItems"`
	Reconciled          int `json:"reconciled"`
	HighConfidence      int `json:"highConfidence"`
	MediumConfidence    int `json:"mediumConfidence"`
	UnreconciledInvoice int `json:"unreconciledInvoice"`
	UnreconciledApp     int `json:"unreconciledApp"`
	Anomalies           int `json:"anomalies"`
	Errors              int `json:"errors"`
}

// Result is the outcome of one reconciliation run.
type Result struct {
	RunID                    string                `json:"runId"`
	Reconciled               []Reconciliation      `json:"reconciled"`
	UnreconciledInvoiceItems []ExternalTransaction `json:"unreconciledInvoiceItems"`
	UnreconciledAppItems     []AppItem             `json:"unreconciledAppItems"`
	TotalInvoice             decimal.Decimal       `json:"totalInvoice"`
	TotalReconciled          decimal.Decimal       `json:"totalReconciled"`
	ReconciliationRate       float64               `json:"reconciliationRate"` // percent, 0..100
	Anomalies                []Anomaly             `json:"anomalies"`
	Summary                  Summary               `json:"summary"`
	Errors                   []ItemError           `json:"errors"`
}
