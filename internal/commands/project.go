package commands

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/recon/internal/installment"
	"github.com/cleared-dev/recon/internal/ledger"
	"github.com/cleared-dev/recon/internal/model"
	"github.com/cleared-dev/recon/internal/normalize"
)

type projectOptions struct {
	description string
	date        string
	amount      string
	period      string
	category    string
	statement   string
	preset      string
	ledgerPath  string
	dueDay      int
	save        bool
}

func newProjectCommand() *cobra.Command {
	var opts projectOptions

	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project the full installment schedule of a purchase",
		Long: `Project rebuilds the whole installment schedule of a purchase from one
statement line carrying an "N/M" marker (e.g. "NOTEBOOK PARC 3/10").

Give the line with --description, --date and --amount, or pass --statement to
project every installment line of a statement file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProject(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.description, "description", "", "statement description with an N/M marker")
	cmd.Flags().StringVar(&opts.date, "date", "", "purchase date as printed on the statement")
	cmd.Flags().StringVar(&opts.amount, "amount", "", "installment amount")
	cmd.Flags().StringVar(&opts.period, "period", "", "billing period of the statement (YYYY-MM)")
	cmd.Flags().StringVar(&opts.category, "category", "", "category stored with the expense")
	cmd.Flags().StringVar(&opts.statement, "statement", "", "project every installment line of this statement")
	cmd.Flags().StringVar(&opts.preset, "preset", "", "statement layout preset (default from config)")
	cmd.Flags().StringVar(&opts.ledgerPath, "ledger", ledgerFile, "ledger file used with --save")
	cmd.Flags().IntVar(&opts.dueDay, "due-day", 0, "day of month installments fall due (default from config)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "store the projected expenses in the ledger")
	_ = cmd.MarkFlagRequired("period")
	cmd.MarkFlagsMutuallyExclusive("statement", "description")

	return cmd
}

func runProject(cmd *cobra.Command, opts projectOptions) error {
	cfg := configFrom(cmd)
	log := loggerFrom(cmd)

	billing, err := installment.ParsePeriod(opts.period)
	if err != nil {
		return err
	}
	dueDay := opts.dueDay
	if dueDay == 0 {
		dueDay = cfg.Statement.DueDay
	}

	items, err := projectInputs(cmd, opts)
	if err != nil {
		return err
	}

	var expenses []model.Expense
	for _, it := range items {
		exp, err := installment.Project(installment.Projection{
			Item:     it,
			Billing:  billing,
			DueDay:   dueDay,
			Category: opts.category,
		})
		if errors.Is(err, installment.ErrInvalidMarker) && opts.statement != "" {
			continue
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", it.Line, err)
		}
		expenses = append(expenses, exp)
	}
	if len(expenses) == 0 {
		return errors.New("no installment purchases found")
	}

	if opts.save {
		svc := ledger.NewService(opts.ledgerPath)
		for i := range expenses {
			id, err := svc.Save(expenses[i])
			if err != nil {
				return err
			}
			expenses[i].ID = id
			log.Info().Str("expense_id", id).Str("ledger", svc.Path()).Msg("saved projected expense")
		}
	}

	out := cmd.OutOrStdout()
	for i, exp := range expenses {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := printSchedule(out, exp); err != nil {
			return err
		}
	}
	return nil
}

// projectInputs returns the statement lines to project.
func projectInputs(cmd *cobra.Command, opts projectOptions) ([]model.ExternalTransaction, error) {
	if opts.statement != "" {
		res, err := parseStatement(cmd, opts.statement, opts.preset)
		if err != nil {
			return nil, err
		}
		return res.Transactions, nil
	}

	if opts.description == "" || opts.date == "" || opts.amount == "" {
		return nil, errors.New("--description, --date and --amount are required without --statement")
	}
	amount, err := normalize.ParseAmount(opts.amount)
	if err != nil {
		return nil, err
	}
	date := normalize.DisplayDate(opts.date, clock())
	if date == normalize.InvalidDate {
		return nil, fmt.Errorf("%w: %q", normalize.ErrInvalidDate, opts.date)
	}
	return []model.ExternalTransaction{{
		Date:        date,
		Description: opts.description,
		Amount:      amount.Round(2),
	}}, nil
}

func printSchedule(w io.Writer, exp model.Expense) error {
	if exp.ID != "" {
		fmt.Fprintf(w, "%s  ", exp.ID)
	}
	fmt.Fprintf(w, "%s: %d x %s = %s (purchased %s)\n",
		exp.Description,
		exp.InstallmentCount,
		exp.Installments[0].Amount.StringFixed(2),
		exp.Total.StringFixed(2),
		exp.PurchaseDate.Format("2006-01-02"))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tDUE\tAMOUNT\n")
	for _, inst := range exp.Installments {
		fmt.Fprintf(tw, "%d/%d\t%s\t%s\n", inst.Number, exp.InstallmentCount, inst.DueDate.Format("2006-01-02"), inst.Amount.StringFixed(2))
	}
	return tw.Flush()
}
