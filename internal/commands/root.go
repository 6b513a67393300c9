package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/recon/internal/buildinfo"
	"github.com/cleared-dev/recon/internal/config"
	"github.com/cleared-dev/recon/internal/logger"
	"github.com/cleared-dev/recon/internal/statement"
)

// clock is the time source for undated statement rows and run log timestamps.
var clock = time.Now

type configKey struct{}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var cfgPath string
	var logLevel string

	rootCmd := &cobra.Command{
		Use:     "recon",
		Short:   "Reconcile card statements against an installment ledger",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrDefault(cfgPath)
			if err != nil {
				return err
			}
			level := cfg.Log.Level
			if logLevel != "" {
				level = logLevel
			}
			log, err := logger.New(cmd.ErrOrStderr(), logger.Options{Level: level, Console: true})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = logger.WithContext(ctx, log)
			cmd.SetContext(context.WithValue(ctx, configKey{}, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.FileName, "path to recon.yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides the config file)")

	rootCmd.AddCommand(
		newInitCommand(),
		newParseCommand(),
		newProbeCommand(),
		newProjectCommand(),
		newReconcileCommand(),
		newLedgerCommand(),
	)

	return rootCmd
}

func configFrom(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func loggerFrom(cmd *cobra.Command) zerolog.Logger {
	return logger.FromContext(cmd.Context())
}

// readStatement loads a statement file as UTF-8 text.
func readStatement(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading statement: %w", err)
	}
	text, err := statement.Decode(raw)
	if err != nil {
		return "", fmt.Errorf("decoding statement %s: %w", path, err)
	}
	return text, nil
}

// newParser builds a parser for preset, falling back to the configured default.
func newParser(cfg *config.Config, preset string, log zerolog.Logger) (*statement.Parser, error) {
	if preset == "" {
		preset = cfg.Statement.DefaultPreset
	}
	pc := statement.Config{Now: clock, Logger: log}
	if preset != "" && !strings.EqualFold(preset, statement.AutoLayout) {
		reg, err := cfg.Registry()
		if err != nil {
			return nil, err
		}
		l, ok := reg.Get(preset)
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", preset)
		}
		pc.Layout = &l
	}
	return statement.New(pc), nil
}

// parseStatement reads and parses the statement at path.
func parseStatement(cmd *cobra.Command, path, preset string) (*statement.Result, error) {
	text, err := readStatement(path)
	if err != nil {
		return nil, err
	}
	p, err := newParser(configFrom(cmd), preset, loggerFrom(cmd))
	if err != nil {
		return nil, err
	}
	res, err := p.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return res, nil
}
