package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"itcbench/internal/bounds"
)

func newBoundsCmd() *cobra.Command {
	var (
		boundsDir string
		outFile   string
	)

	cmd := &cobra.Command{
		Use:   "bounds",
		Short: "extract reference bounds from the RobinX bound corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := bounds.ExtractDir(boundsDir, logger)
			if err != nil {
				return err
			}
			if err := table.WriteCSV(outFile); err != nil {
				return err
			}
			fmt.Printf("Extracted bounds for %d instances (%d ambiguous) -> %s\n",
				len(table.Bounds), len(table.Ambiguous), outFile)
			for _, amb := range table.Ambiguous {
				fmt.Println("  warning:", amb.Error())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&boundsDir, "bounds", "Bounds", "directory with ITC2021_*_Bound.xml files")
	cmd.Flags().StringVar(&outFile, "out", "reference_bounds.csv", "output CSV path")
	return cmd
}
