package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/recon/internal/report"
)

func newParseCommand() *cobra.Command {
	var preset string
	var format string

	cmd := &cobra.Command{
		Use:   "parse <statement>",
		Short: "Preview the transactions read from a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := parseStatement(cmd, args[0], preset)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == string(report.FormatJSON) {
				return report.EncodeJSON(out, res.Transactions)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "LINE\tDATE\tDESCRIPTION\tAMOUNT\n")
			for _, tx := range res.Transactions {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", tx.Line, tx.Date, tx.Description, tx.Amount.StringFixed(2))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintf(out, "\n%d transactions, %d skipped (layout %s)\n", len(res.Transactions), len(res.Skipped), res.Layout.Name)
			for _, s := range res.Skipped {
				fmt.Fprintf(out, "  skipped %s\n", s.Error())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "statement layout preset (default from config)")
	cmd.Flags().StringVar(&format, "format", "table", "output format: table or json")

	return cmd
}
