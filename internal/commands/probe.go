package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/recon/internal/statement"
)

func newProbeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <statement>",
		Short: "Try every layout preset and auto-detection on a statement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readStatement(args[0])
			if err != nil {
				return err
			}
			reg, err := configFrom(cmd).Registry()
			if err != nil {
				return err
			}

			reports := statement.Probe(text, reg, clock)

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "LAYOUT\tRESULT\tTRANSACTIONS\tSKIPPED\n")
			for _, r := range reports {
				result := "ok"
				if !r.OK {
					result = "failed: " + r.Err
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", r.Layout, result, r.Transactions, r.Skipped)
			}
			return tw.Flush()
		},
	}
}
