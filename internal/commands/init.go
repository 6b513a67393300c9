package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/recon/internal/config"
	"github.com/cleared-dev/recon/internal/ledger"
)

const (
	ledgerFile = "ledger.csv"
	runLogFile = "logs/runs.csv"
)

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a reconciliation workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(absDir, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Initialized recon workspace at %s\n", absDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing recon.yaml")

	return cmd
}

func runInit(dir string, force bool) error {
	// Create directory structure.
	for _, d := range []string{"statements", "reports", "logs"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write recon.yaml.
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
	}
	if err := config.Save(cfgPath, config.Default()); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write an empty ledger unless one is already there.
	ledgerPath := filepath.Join(dir, ledgerFile)
	if _, err := os.Stat(ledgerPath); errors.Is(err, fs.ErrNotExist) {
		f, err := os.Create(ledgerPath)
		if err != nil {
			return fmt.Errorf("creating ledger: %w", err)
		}
		defer f.Close()
		if err := ledger.WriteExpenses(f, nil); err != nil {
			return fmt.Errorf("writing ledger: %w", err)
		}
	}

	// Keep reports and statements out of version control.
	gitignore := "statements/\nreports/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	return nil
}
