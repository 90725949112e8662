package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/recvkit/recv"
)

var (
	tableMin     int
	tableInitial int
	tableMax     int
)

func init() {
	cmd := newTableCmd()
	cmd.Flags().IntVar(&tableMin, "min", recv.DefaultMinimum, "Lower bound on guessed capacities")
	cmd.Flags().IntVar(&tableInitial, "initial", recv.DefaultInitial, "First guess before any feedback")
	cmd.Flags().IntVar(&tableMax, "max", recv.DefaultMaximum, "Upper bound on guessed capacities")
	rootCmd.AddCommand(cmd)
}

func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Show the capacity table",
		Long: `The table command prints every capacity the predictor can guess and
marks where a configuration's bounds and first guess land in the table.

Example:
  recvstat table
  recvstat table --min 256 --max 8192
  recvstat table --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTable()
		},
	}
	return cmd
}

type CapacityTable struct {
	Minimum int
	Initial int
	Maximum int

	Floor   int // smallest capacity the configuration can guess
	Seed    int // capacity of the first guess
	Ceiling int // largest capacity the configuration can guess

	Sizes []int
}

func runTable() error {
	alloc, err := recv.NewAdaptiveAllocator(tableMin, tableInitial, tableMax)
	if err != nil {
		return err
	}

	report := CapacityTable{
		Minimum: tableMin,
		Initial: tableInitial,
		Maximum: tableMax,
		Floor:   alloc.FloorCapacity(),
		Seed:    recv.CeilingSize(alloc.Initial()),
		Ceiling: alloc.CeilCapacity(),
		Sizes:   recv.TableSizes(),
	}

	if jsonOut {
		return printJSON(report)
	}

	printInfo("Capacity table: %d entries\n", len(report.Sizes))
	printInfo("Configuration: min %s, initial %s, max %s\n",
		formatCount(int64(report.Minimum)),
		formatCount(int64(report.Initial)),
		formatCount(int64(report.Maximum)))
	printInfo("Resolved: floor %s, seed %s, ceiling %s\n\n",
		formatCount(int64(report.Floor)),
		formatCount(int64(report.Seed)),
		formatCount(int64(report.Ceiling)))

	for i, size := range report.Sizes {
		mark := ""
		switch {
		case size == report.Floor && size == report.Ceiling:
			mark = "  <- floor, ceiling"
		case size == report.Floor && size == report.Seed:
			mark = "  <- floor, seed"
		case size == report.Seed && size == report.Ceiling:
			mark = "  <- seed, ceiling"
		case size == report.Floor:
			mark = "  <- floor"
		case size == report.Seed:
			mark = "  <- seed"
		case size == report.Ceiling:
			mark = "  <- ceiling"
		}
		printInfo("  [%2d] %15s%s\n", i, formatCount(int64(size)), mark)
	}

	return nil
}
