package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/recon/internal/ledger"
)

func newLedgerCommand() *cobra.Command {
	var ledgerPath string

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and edit the expense ledger",
	}
	ledgerCmd.PersistentFlags().StringVar(&ledgerPath, "ledger", ledgerFile, "ledger file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses and their installment progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			expenses, err := ledger.NewService(ledgerPath).Load()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "ID\tDESCRIPTION\tTOTAL\tPAID\tOPEN\n")
			for _, exp := range expenses {
				paid := 0
				for _, inst := range exp.Installments {
					if inst.Paid {
						paid++
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n",
					exp.ID, exp.Description, exp.Total.StringFixed(2), paid, len(exp.Installments)-paid)
			}
			return tw.Flush()
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <expense-id>",
		Short: "Delete an expense and all of its installments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ledger.NewService(ledgerPath).Delete(args[0]); err != nil {
				return err
			}
			log := loggerFrom(cmd)
			log.Info().Str("expense_id", args[0]).Msg("deleted expense")
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	ledgerCmd.AddCommand(listCmd, deleteCmd)
	return ledgerCmd
}
