// itcbench runs a portfolio of timetabling solver configurations
// against the ITC2021 instances, reconciles their outputs with the
// RobinX reference bounds and validator, and emits one analysis table.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"itcbench/internal/portfolio"
)

var (
	logger *zap.Logger

	flagLogLevel  string
	flagPortfolio string
)

func main() {
	root := &cobra.Command{
		Use:           "itcbench",
		Short:         "solver experiment pipeline for ITC2021 timetabling instances",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = buildLogger(flagLogLevel)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flagPortfolio, "portfolio", "", "portfolio YAML file (built-in portfolio when empty)")

	root.AddCommand(newRunCmd())
	root.AddCommand(newBoundsCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newPipelineCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		// Setup mistakes exit 2, everything else 1; nothing was
		// scheduled when a ConfigurationError surfaces.
		var cfgErr *portfolio.ConfigurationError
		if errors.As(err, &cfgErr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("bad log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func loadPortfolio() (*portfolio.Config, error) {
	if flagPortfolio == "" {
		return portfolio.Default(), nil
	}
	return portfolio.Load(flagPortfolio)
}
