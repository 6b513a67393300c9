package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/recon/internal/merchant"
	"github.com/cleared-dev/recon/internal/model"
)

func merchantCatalog() merchant.Catalog { return merchant.DefaultCatalog() }

func repeat(n int, desc, amount string) []model.ExternalTransaction {
	out := make([]model.ExternalTransaction, n)
	for i := range out {
		out[i] = item(i+2, "05 NOV", desc, amount)
	}
	return out
}

func TestAnomalies_FlagsOutlier(t *testing.T) {
	e := newEngine(t)
	items := append(repeat(9, "UBER *TRIP", "10.00"), item(20, "06 NOV", "UBER *TRIP", "100.00"))

	res := e.Reconcile(items, []model.Expense{})

	require.Len(t, res.Anomalies, 1)
	a := res.Anomalies[0]
	assert.Equal(t, model.SourceInvoice, a.Source)
	assert.Equal(t, model.AnomalyUnusualAmount, a.Type)
	assert.Equal(t, "UBER", a.Establishment)
	assert.Equal(t, "06 NOV", a.Date)
	assert.InDelta(t, 3.0, a.ZScore, 1e-9)
	assert.InDelta(t, 1.0, a.Confidence, 1e-9)
	assert.Equal(t, [2]float64{-8, 46}, a.ExpectedRange)
	assert.Equal(t, 1, res.Summary.Anomalies)
}

func TestAnomalies_SmallGroupsNeverFlagged(t *testing.T) {
	e := newEngine(t)
	items := []model.ExternalTransaction{
		item(2, "05 NOV", "UBER *TRIP", "10.00"),
		item(3, "05 NOV", "UBER *TRIP", "1000.00"),
	}

	res := e.Reconcile(items, []model.Expense{})

	assert.Empty(t, res.Anomalies)
}

func TestAnomalies_IdenticalAmountsNeverFlagged(t *testing.T) {
	e := newEngine(t)

	res := e.Reconcile(repeat(6, "IFOOD *PEDIDO", "42.00"), []model.Expense{})

	assert.Empty(t, res.Anomalies)
}

func TestAnomalies_UnknownEstablishmentsShareFallbackGroup(t *testing.T) {
	e := newEngine(t)
	items := []model.ExternalTransaction{
		item(2, "05 NOV", "Padaria", "10.00"),
		item(3, "05 NOV", "Mercadinho", "10.00"),
		item(4, "05 NOV", "Farmacia", "10.00"),
		item(5, "05 NOV", "Posto", "10.00"),
		item(6, "05 NOV", "Livraria", "10.00"),
		item(7, "05 NOV", "Sapataria", "10.00"),
		item(8, "05 NOV", "Otica", "10.00"),
		item(9, "05 NOV", "Bar", "10.00"),
		item(10, "05 NOV", "Restaurante", "10.00"),
		item(11, "05 NOV", "Joalheria", "100.00"),
	}

	res := e.Reconcile(items, []model.Expense{})

	require.Len(t, res.Anomalies, 1)
	assert.Equal(t, "OUTROS", res.Anomalies[0].Establishment)
	assert.Equal(t, "Joalheria", res.Anomalies[0].Description)
}

func TestAnomalies_IncludesLeftoverInstallments(t *testing.T) {
	e := newEngine(t)
	items := repeat(9, "NETFLIX.COM", "10.00")
	expenses := []model.Expense{expense("n1", "Netflix", "100.00", day(2025, 1, 1))}

	res := e.Reconcile(items, expenses)

	require.Len(t, res.UnreconciledAppItems, 1)
	require.Len(t, res.Anomalies, 1)
	a := res.Anomalies[0]
	assert.Equal(t, model.SourceApp, a.Source)
	assert.Equal(t, "01 JAN", a.Date)
	assert.Equal(t, "NETFLIX", a.Establishment)
}
