package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/recon/internal/ledger"
	"github.com/cleared-dev/recon/internal/match"
	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/reconcile"
	"github.com/cleared-dev/recon/internal/report"
	"github.com/cleared-dev/recon/internal/runlog"
)

const formatSummary = "summary"

type reconcileOptions struct {
	ledgerPath     string
	preset         string
	format         string
	output         string
	runLog         string
	markPaid       bool
	includePaid    bool
	minScore       int
	valueTolerance float64
	dateTolerance  int
}

func newReconcileCommand() *cobra.Command {
	var opts reconcileOptions

	cmd := &cobra.Command{
		Use:   "reconcile <statement>",
		Short: "Match a statement against the ledger's installments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.ledgerPath, "ledger", ledgerFile, "ledger file")
	cmd.Flags().StringVar(&opts.preset, "preset", "", "statement layout preset (default from config)")
	cmd.Flags().StringVar(&opts.format, "format", formatSummary, "output format: summary, json or csv")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.Flags().StringVar(&opts.runLog, "run-log", runLogFile, "append a run record to this file (empty to disable)")
	cmd.Flags().BoolVar(&opts.markPaid, "mark-paid", false, "mark matched installments as paid in the ledger")
	cmd.Flags().BoolVar(&opts.includePaid, "include-paid", false, "also match installments already marked paid")
	cmd.Flags().IntVar(&opts.minScore, "min-score", 0, "minimum score for a match (overrides config)")
	cmd.Flags().Float64Var(&opts.valueTolerance, "value-tolerance", 0, "amount difference scored as exact (overrides config)")
	cmd.Flags().IntVar(&opts.dateTolerance, "date-tolerance", 0, "days apart scored as the same date (overrides config)")

	return cmd
}

func runReconcile(cmd *cobra.Command, statementPath string, opts reconcileOptions) error {
	cfg := configFrom(cmd)
	log := loggerFrom(cmd)

	format := opts.format
	if format != formatSummary {
		f, err := report.ParseFormat(format)
		if err != nil {
			return err
		}
		format = string(f)
	}

	parsed, err := parseStatement(cmd, statementPath, opts.preset)
	if err != nil {
		return err
	}

	svc := ledger.NewService(opts.ledgerPath)
	expenses, err := svc.Load()
	if err != nil {
		return err
	}
	if !opts.includePaid {
		expenses = ledger.Unpaid(expenses)
	}

	mcfg, err := cfg.MatchConfig()
	if err != nil {
		return err
	}
	mcfg, err = mcfg.With(matchOverrides(cmd, opts))
	if err != nil {
		return fmt.Errorf("matching overrides: %w", err)
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return err
	}

	engine, err := reconcile.New(reconcile.Options{
		Matching: mcfg,
		Anomaly:  cfg.AnomalySettings(),
		Catalog:  catalog,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	res := engine.Reconcile(parsed.Transactions, expenses)

	if err := writeReport(cmd.OutOrStdout(), opts.output, format, res); err != nil {
		return err
	}

	if opts.markPaid {
		n, err := svc.MarkPaid(res.Reconciled)
		if err != nil {
			return fmt.Errorf("marking installments paid: %w", err)
		}
		log.Info().Int("installments", n).Msg("marked paid")
	}

	if opts.runLog != "" {
		entry := runlog.FromResult(clock(), filepath.Base(statementPath), res)
		if err := runlog.Append(opts.runLog, []runlog.Entry{entry}); err != nil {
			log.Warn().Err(err).Msg("failed to write run log")
		}
	}

	return nil
}

// matchOverrides collects the matching flags the user actually set.
func matchOverrides(cmd *cobra.Command, opts reconcileOptions) match.Overrides {
	var o match.Overrides
	if cmd.Flags().Changed("min-score") {
		o.MinScore = &opts.minScore
	}
	if cmd.Flags().Changed("value-tolerance") {
		o.ValueTolerance = &opts.valueTolerance
	}
	if cmd.Flags().Changed("date-tolerance") {
		o.DateToleranceDays = &opts.dateTolerance
	}
	return o
}

func writeReport(stdout io.Writer, path, format string, res *model.Result) error {
	w := stdout
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating report dir: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == formatSummary {
		return report.Summary(w, res)
	}
	return report.Write(w, res, report.Format(format))
}
