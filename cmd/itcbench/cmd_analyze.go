package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"itcbench/internal/analyze"
	"itcbench/internal/bounds"
	"itcbench/internal/itc"
	"itcbench/internal/result"
	"itcbench/internal/robinx"
	"itcbench/internal/runner"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		instancesDir string
		resultsDir   string
		boundsDir    string
		solutionsDir string
		outFile      string
		reportFile   string
		validate     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "reconcile raw results with reference bounds into the analysis table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPortfolio()
			if err != nil {
				return err
			}
			instances, err := itc.Discover(instancesDir)
			if err != nil {
				return err
			}
			results, err := result.LoadDir(resultsDir, logger)
			if err != nil {
				return err
			}
			table, err := bounds.ExtractDir(boundsDir, logger)
			if err != nil {
				return err
			}

			var validator robinx.Validator
			if validate {
				validator = &robinx.RobinX{Bin: cfg.Solvers.ValidatorBin, Logger: logger}
			}
			an := analyze.Analyzer{
				Bounds:       table,
				Validator:    validator,
				SolutionsDir: solutionsDir,
				Logger:       logger,
			}
			rows, err := an.Reconcile(cmd.Context(), instances, results)
			if err != nil {
				return err
			}
			if err := analyze.WriteCSV(outFile, rows); err != nil {
				return err
			}

			// Offline analysis has no scheduler tally; the status
			// census still covers every loaded result.
			summary := analyze.Summarize(uuid.NewString(), rows, results, runner.Tally{})
			if reportFile != "" {
				if err := summary.WriteReport(reportFile); err != nil {
					return err
				}
			}
			fmt.Print(summary.String())
			fmt.Println("\nAnalysis table:", outFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&instancesDir, "instances", "Instances", "directory with instance XML files")
	cmd.Flags().StringVar(&resultsDir, "results", "results", "directory with raw solver outputs")
	cmd.Flags().StringVar(&boundsDir, "bounds", "Bounds", "directory with RobinX bound files")
	cmd.Flags().StringVar(&solutionsDir, "solutions", "xml_solutions", "directory for generated solution XML files")
	cmd.Flags().StringVar(&outFile, "out", "complete_analysis.csv", "analysis CSV path")
	cmd.Flags().StringVar(&reportFile, "report", "", "optional plain-text report path")
	cmd.Flags().BoolVar(&validate, "validate", true, "cross-check best solutions with the RobinX validator")
	return cmd
}
