package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/recon/internal/ledger"
	"github.com/cleared-dev/recon/internal/runlog"
)

const (
	nubankFixture    = "../../testdata/statement_nubank.csv"
	semicolonFixture = "../../testdata/statement_semicolon.csv"
	ledgerFixture    = "../../testdata/ledger.csv"
)

func TestMain(m *testing.M) {
	clock = func() time.Time { return time.Date(2024, 11, 20, 9, 0, 0, 0, time.UTC) }
	os.Exit(m.Run())
}

// runRecon executes the CLI in-process with a config file that does not exist,
// so every command runs on the defaults.
func runRecon(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "recon.yaml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func copyLedger(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(ledgerFixture)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "ledger.csv")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// row returns the whitespace-separated fields of the first output line starting with prefix.
func row(out, prefix string) []string {
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, prefix) {
			return strings.Fields(line)
		}
	}
	return nil
}

func TestVersion(t *testing.T) {
	out, err := runRecon(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "dev (commit: none, built: unknown)")
}

func TestInit_CreatesWorkspace(t *testing.T) {
	dir := t.TempDir()
	out, err := runRecon(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized recon workspace")

	for _, d := range []string{"statements", "reports", "logs"} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir())
	}

	cfg, err := os.ReadFile(filepath.Join(dir, "recon.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "min_score: 60")

	data, err := os.ReadFile(filepath.Join(dir, "ledger.csv"))
	require.NoError(t, err)
	assert.Equal(t, ledger.Header+"\n", string(data))
}

func TestInit_RefusesToOverwriteConfig(t *testing.T) {
	dir := t.TempDir()
	_, err := runRecon(t, "init", dir)
	require.NoError(t, err)

	_, err = runRecon(t, "init", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = runRecon(t, "init", dir, "--force")
	require.NoError(t, err)
}

func TestParse_Table(t *testing.T) {
	out, err := runRecon(t, "parse", nubankFixture)
	require.NoError(t, err)

	assert.Equal(t, []string{"2", "05", "NOV", "UBER", "TRIP", "123", "23.50"}, row(out, "2 "))
	assert.Contains(t, out, "Padaria do Zé, Centro")
	assert.Contains(t, out, "4 transactions, 1 skipped (layout auto)")
	assert.Contains(t, out, "skipped line 5: non-positive amount -500.00")
}

func TestParse_PresetJSON(t *testing.T) {
	out, err := runRecon(t, "parse", semicolonFixture, "--preset", "semicolon", "--format", "json")
	require.NoError(t, err)

	var txs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &txs))
	require.Len(t, txs, 2)
	assert.Equal(t, "05 NOV", txs[0]["date"])
	assert.Equal(t, "UBER *TRIP", txs[0]["description"])
	assert.Equal(t, "1234.56", txs[1]["amount"])
}

func TestParse_Errors(t *testing.T) {
	_, err := runRecon(t, "parse", nubankFixture, "--preset", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown preset "nope"`)

	_, err = runRecon(t, "parse", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestProbe(t *testing.T) {
	out, err := runRecon(t, "probe", semicolonFixture)
	require.NoError(t, err)

	assert.Equal(t, "failed:", row(out, "nubank ")[1])
	semi := row(out, "semicolon ")
	require.NotNil(t, semi)
	assert.Equal(t, []string{"semicolon", "ok", "2", "3"}, semi)
	assert.Equal(t, "failed:", row(out, "pipe ")[1])
	assert.Equal(t, "ok", row(out, "auto ")[1])
}

func TestProject_FromFlags(t *testing.T) {
	out, err := runRecon(t, "project",
		"--description", "GELADEIRA PARC 3/10",
		"--date", "05/09/2025",
		"--amount", "R$ 150,00",
		"--period", "2025-11",
		"--due-day", "5")
	require.NoError(t, err)

	assert.Contains(t, out, "GELADEIRA: 10 x 150.00 = 1500.00 (purchased 2025-09-05)")
	assert.Equal(t, []string{"1/10", "2025-09-05", "150.00"}, row(out, "1/10"))
	assert.Equal(t, []string{"3/10", "2025-11-05", "150.00"}, row(out, "3/10"))
	assert.Equal(t, []string{"10/10", "2026-06-05", "150.00"}, row(out, "10/10"))
}

func TestProject_Errors(t *testing.T) {
	_, err := runRecon(t, "project", "--description", "GELADEIRA PARC 3/10", "--date", "05/09/2025", "--amount", "150")
	require.Error(t, err, "period is required")

	_, err = runRecon(t, "project", "--description", "GELADEIRA", "--date", "05/09/2025", "--amount", "150", "--period", "2025-11")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid installment marker")

	_, err = runRecon(t, "project", "--description", "GELADEIRA 3/10", "--period", "2025-11")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--description, --date and --amount are required")
}

func TestProject_StatementSavedToLedger(t *testing.T) {
	ledgerPath := filepath.Join(t.TempDir(), "ledger.csv")
	out, err := runRecon(t, "project", "--statement", nubankFixture, "--period", "2024-11", "--save", "--ledger", ledgerPath)
	require.NoError(t, err)
	assert.Contains(t, out, "NOTEBOOK DELL: 10 x 350.00 = 3500.00")

	expenses, err := ledger.NewService(ledgerPath).Load()
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	exp := expenses[0]
	assert.NotEmpty(t, exp.ID)
	assert.Contains(t, out, exp.ID)
	require.Len(t, exp.Installments, 10)
	assert.Equal(t, time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC), exp.Installments[2].DueDate)
	assert.Equal(t, exp.ID, exp.Installments[9].ExpenseID)
}

func TestReconcile_Summary(t *testing.T) {
	ledgerPath := copyLedger(t)
	runLog := filepath.Join(t.TempDir(), "logs", "runs.csv")

	out, err := runRecon(t, "reconcile", nubankFixture, "--ledger", ledgerPath, "--run-log", runLog, "--mark-paid")
	require.NoError(t, err)

	assert.Contains(t, out, "statement items: 4 (total 425.70)")
	assert.Contains(t, out, "ledger installments: 5")
	assert.Contains(t, out, "reconciled: 3 (3 high, 0 medium), total 413.40")
	assert.Contains(t, out, "rate: 97.11%")
	assert.Contains(t, out, "unreconciled: 1 statement, 2 ledger")

	expenses, err := ledger.NewService(ledgerPath).Load()
	require.NoError(t, err)
	paid := map[string]bool{}
	for _, exp := range expenses {
		for _, inst := range exp.Installments {
			paid[exp.ID+"#"+string(rune('0'+inst.Number))] = inst.Paid
		}
	}
	assert.True(t, paid["e-uber#1"])
	assert.True(t, paid["e-netflix#1"])
	assert.True(t, paid["e-notebook#3"])
	assert.False(t, paid["e-notebook#4"])
	assert.False(t, paid["e-gym#1"])

	entries, err := runlog.Read(runLog)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "statement_nubank.csv", entries[0].Statement)
	assert.Equal(t, 3, entries[0].Reconciled)
	assert.InDelta(t, 97.11, entries[0].Rate, 0.001)
}

func TestReconcile_JSONReportFile(t *testing.T) {
	ledgerPath := copyLedger(t)
	reportPath := filepath.Join(t.TempDir(), "reports", "nov.json")

	out, err := runRecon(t, "reconcile", nubankFixture, "--ledger", ledgerPath, "--run-log", "", "--format", "json", "-o", reportPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var doc struct {
		ReconciliationRate float64 `json:"reconciliationRate"`
		Reconciled         []struct {
			Score struct {
				Total int `json:"total"`
			} `json:"matchScore"`
			App struct {
				Expense struct {
					ID string `json:"id"`
				} `json:"expense"`
			} `json:"app"`
		} `json:"reconciled"`
		UnreconciledAppItems []struct {
			Description string `json:"description"`
		} `json:"unreconciledAppItems"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.InDelta(t, 97.11, doc.ReconciliationRate, 0.001)
	require.Len(t, doc.Reconciled, 3)
	assert.Equal(t, "e-notebook", doc.Reconciled[2].App.Expense.ID)
	assert.Equal(t, 87, doc.Reconciled[2].Score.Total)
	require.Len(t, doc.UnreconciledAppItems, 2)
	assert.Equal(t, "Notebook Dell (parcela 4/10)", doc.UnreconciledAppItems[0].Description)

	// The ledger is untouched without --mark-paid.
	before, err := os.ReadFile(ledgerFixture)
	require.NoError(t, err)
	after, err := os.ReadFile(ledgerPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestReconcile_DateToleranceOverride(t *testing.T) {
	ledgerPath := copyLedger(t)

	out, err := runRecon(t, "reconcile", nubankFixture, "--ledger", ledgerPath, "--run-log", "", "--format", "csv", "--date-tolerance", "0")
	require.NoError(t, err)

	// Netflix posted one day before its due date now loses 10 date points.
	assert.Contains(t, out, "reconciled,3,07 NOV,Netflix.com,39.90,e-netflix,1,2024-11-08,90,high")
}

func TestReconcile_Errors(t *testing.T) {
	ledgerPath := copyLedger(t)

	_, err := runRecon(t, "reconcile", nubankFixture, "--ledger", ledgerPath, "--run-log", "", "--format", "xml")
	require.Error(t, err)

	_, err = runRecon(t, "reconcile", nubankFixture, "--ledger", ledgerPath, "--run-log", "", "--min-score", "150")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matching overrides")
}

func TestLedger_ListAndDelete(t *testing.T) {
	ledgerPath := copyLedger(t)

	out, err := runRecon(t, "ledger", "list", "--ledger", ledgerPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"e-notebook", "Notebook", "Dell", "3500.00", "1", "2"}, row(out, "e-notebook"))

	out, err = runRecon(t, "ledger", "delete", "e-gym", "--ledger", ledgerPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted e-gym")

	expenses, err := ledger.NewService(ledgerPath).Load()
	require.NoError(t, err)
	assert.Len(t, expenses, 3)

	_, err = runRecon(t, "ledger", "delete", "e-gym", "--ledger", ledgerPath)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}
