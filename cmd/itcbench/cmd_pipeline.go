package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"itcbench/internal/analyze"
	"itcbench/internal/bounds"
	"itcbench/internal/itc"
	"itcbench/internal/result"
	"itcbench/internal/robinx"
	"itcbench/internal/runner"
)

// pipeline chains the full workflow: bounds extraction, the job matrix
// run, reconciliation with validation, and the report. Bounds
// extraction is independent of the runs, so the two proceed in
// parallel.
func newPipelineCmd() *cobra.Command {
	var (
		instancesDir string
		boundsDir    string
		workDir      string
		slots        int
	)

	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "run the complete experiment pipeline end to end",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPortfolio()
			if err != nil {
				return err
			}
			instances, err := itc.Discover(instancesDir)
			if err != nil {
				return err
			}
			resultsDir := filepath.Join(workDir, "results")
			jobs, err := runner.BuildMatrix(instances, cfg, resultsDir)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(workDir, 0o755); err != nil {
				return fmt.Errorf("create work dir: %w", err)
			}

			runID := uuid.NewString()
			logger.Info("pipeline starting",
				zap.String("run_id", runID),
				zap.Int("instances", len(instances)),
				zap.Int("jobs", len(jobs)))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var (
				table    *bounds.Table
				outcomes []runner.Outcome
				tally    runner.Tally
			)
			eg, egCtx := errgroup.WithContext(ctx)
			eg.Go(func() error {
				var err error
				table, err = bounds.ExtractDir(boundsDir, logger)
				if err != nil {
					return fmt.Errorf("bounds stage: %w", err)
				}
				return table.WriteCSV(filepath.Join(workDir, "reference_bounds.csv"))
			})
			eg.Go(func() error {
				sched := runner.Scheduler{Slots: slots, Logger: logger}
				exec := &runner.ProcessExecutor{Config: cfg, Logger: logger}
				outcomes, tally = sched.Run(egCtx, jobs, exec)
				return nil
			})
			if err := eg.Wait(); err != nil {
				return err
			}

			results := result.FromOutcomes(outcomes)

			an := analyze.Analyzer{
				Bounds:       table,
				Validator:    &robinx.RobinX{Bin: cfg.Solvers.ValidatorBin, Logger: logger},
				SolutionsDir: filepath.Join(workDir, "xml_solutions"),
				Logger:       logger,
			}
			// Reconciliation runs even after a cancelled schedule so
			// completed work is never thrown away.
			rows, err := an.Reconcile(cmd.Context(), instances, results)
			if err != nil {
				return err
			}
			if err := analyze.WriteCSV(filepath.Join(workDir, "complete_analysis.csv"), rows); err != nil {
				return err
			}

			summary := analyze.Summarize(runID, rows, results, tally)
			if err := summary.WriteReport(filepath.Join(workDir, "pipeline_report.txt")); err != nil {
				return err
			}
			fmt.Print(summary.String())
			fmt.Println("\nArtifacts in:", workDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&instancesDir, "instances", "Instances", "directory with instance XML files")
	cmd.Flags().StringVar(&boundsDir, "bounds", "Bounds", "directory with RobinX bound files")
	cmd.Flags().StringVar(&workDir, "work", "experiment", "working directory for all artifacts")
	cmd.Flags().IntVar(&slots, "slots", runtime.NumCPU(), "concurrent execution slots")
	return cmd
}
