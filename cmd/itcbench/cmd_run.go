package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"itcbench/internal/itc"
	"itcbench/internal/runner"
)

func newRunCmd() *cobra.Command {
	var (
		instancesDir string
		outDir       string
		slots        int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "execute the (instances × configurations) job matrix",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadPortfolio()
			if err != nil {
				return err
			}
			instances, err := itc.Discover(instancesDir)
			if err != nil {
				return err
			}
			jobs, err := runner.BuildMatrix(instances, cfg, outDir)
			if err != nil {
				return err
			}

			runID := uuid.NewString()
			logger.Info("job matrix built",
				zap.String("run_id", runID),
				zap.Int("instances", len(instances)),
				zap.Int("jobs", len(jobs)),
				zap.Int("slots", slots),
				zap.Duration("worst_case_wall_clock", runner.EstimateWallClock(jobs, slots)))

			// Ctrl-C stops dispatching; in-flight runs drain through
			// their own deadlines.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sched := runner.Scheduler{Slots: slots, Logger: logger}
			exec := &runner.ProcessExecutor{Config: cfg, Logger: logger}
			_, tally := sched.Run(ctx, jobs, exec)

			fmt.Printf("Jobs: %d completed, %d timed out, %d crashed, %d never started\n",
				tally.Completed, tally.TimedOut, tally.Crashed, tally.NeverStarted)
			fmt.Println("Raw outputs in:", outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&instancesDir, "instances", "Instances", "directory with inst{N}_{e|m|l|t}.xml files")
	cmd.Flags().StringVar(&outDir, "out", "results", "directory for raw solver outputs")
	cmd.Flags().IntVar(&slots, "slots", runtime.NumCPU(), "concurrent execution slots")
	return cmd
}
