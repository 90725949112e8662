package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/recvkit/recv"
)

var (
	simFixed   int
	simMin     int
	simInitial int
	simMax     int
)

func init() {
	cmd := newSimulateCmd()
	cmd.Flags().IntVar(&simFixed, "fixed", 0, "Replay with a constant guess of this size instead of the adaptive predictor")
	cmd.Flags().IntVar(&simMin, "min", recv.DefaultMinimum, "Lower bound on guessed capacities")
	cmd.Flags().IntVar(&simInitial, "initial", recv.DefaultInitial, "First guess before any feedback")
	cmd.Flags().IntVar(&simMax, "max", recv.DefaultMaximum, "Upper bound on guessed capacities")
	rootCmd.AddCommand(cmd)
}

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate <trace-file|->",
		Short: "Replay a read trace through the predictor",
		Long: `The simulate command replays a recorded read trace and reports how the
predictor's guesses track it. A trace holds one number per line, the bytes
the source had ready at that moment; blank lines and # comments are skipped.
Each sample costs one read, and the simulated source delivers at most the
guessed capacity.

Example:
  recvstat simulate trace.txt
  recvstat simulate --fixed 4096 trace.txt
  cat trace.txt | recvstat simulate --json -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(args)
		},
	}
	return cmd
}

type SimStep struct {
	Step       int
	Available  int
	Guess      int
	Read       int
	Wasted     int
	Undersized bool
}

type SimReport struct {
	Trace     string
	Allocator string

	Steps []SimStep

	BytesAvailable  int64
	BytesRead       int64
	BytesAllocated  int64
	BytesWasted     int64
	UndersizedReads int
	Efficiency      float64 // read bytes per allocated byte, as a percentage

	FinalGuess int
}

func runSimulate(args []string) error {
	name := args[0]

	var src io.Reader
	if name == "-" {
		src = os.Stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("failed to open trace: %w", err)
		}
		defer f.Close()
		src = f
	}

	samples, err := parseTrace(src)
	if err != nil {
		return fmt.Errorf("failed to parse trace %s: %w", name, err)
	}
	if len(samples) == 0 {
		return fmt.Errorf("trace %s holds no samples", name)
	}

	alloc, label, err := simAllocator()
	if err != nil {
		return err
	}

	tracker, err := recv.NewCycleTracker(1, true)
	if err != nil {
		return err
	}
	handle := alloc.NewHandle(tracker)

	report := SimReport{
		Trace:     name,
		Allocator: label,
		Steps:     make([]SimStep, 0, len(samples)),
	}

	for i, avail := range samples {
		tracker.Reset()
		guess := handle.Guess()
		tracker.SetAttemptedBytesRead(guess)

		n := min(avail, guess)
		tracker.IncMessagesRead(1)
		tracker.LastBytesRead(n)
		handle.LastBytesRead(n)
		handle.ReadComplete()

		step := SimStep{
			Step:       i + 1,
			Available:  avail,
			Guess:      guess,
			Read:       n,
			Wasted:     guess - n,
			Undersized: avail > guess,
		}
		report.Steps = append(report.Steps, step)

		report.BytesAvailable += int64(avail)
		report.BytesRead += int64(n)
		report.BytesAllocated += int64(guess)
		report.BytesWasted += int64(step.Wasted)
		if step.Undersized {
			report.UndersizedReads++
		}
	}

	report.Efficiency = float64(report.BytesRead) * 100.0 / float64(report.BytesAllocated)
	report.FinalGuess = handle.Guess()

	if jsonOut {
		return printJSON(report)
	}

	for _, st := range report.Steps {
		flag := ""
		if st.Undersized {
			flag = "  short"
		}
		printVerbose("  step %4d: available %10s  guess %8s  read %8s  wasted %8s%s\n",
			st.Step,
			formatCount(int64(st.Available)),
			formatCount(int64(st.Guess)),
			formatCount(int64(st.Read)),
			formatCount(int64(st.Wasted)),
			flag)
	}

	printInfo("Trace: %s (%s samples)\n", name, formatCount(int64(len(samples))))
	printInfo("Allocator: %s\n\n", report.Allocator)
	printInfo("Bytes available: %s\n", formatBytes(report.BytesAvailable))
	printInfo("Bytes read:      %s\n", formatBytes(report.BytesRead))
	printInfo("Bytes allocated: %s\n", formatBytes(report.BytesAllocated))
	printInfo("Bytes wasted:    %s\n", formatBytes(report.BytesWasted))
	printInfo("Undersized reads: %s of %s\n",
		formatCount(int64(report.UndersizedReads)),
		formatCount(int64(len(report.Steps))))
	printInfo("Allocation efficiency: %.1f%%\n", report.Efficiency)
	printInfo("Final guess: %s\n", formatCount(int64(report.FinalGuess)))

	return nil
}

// simAllocator builds the predictor the flags ask for.
func simAllocator() (recv.Allocator, string, error) {
	if simFixed > 0 {
		alloc, err := recv.NewFixedAllocator(simFixed)
		if err != nil {
			return nil, "", err
		}
		return alloc, fmt.Sprintf("fixed(%d)", simFixed), nil
	}

	alloc, err := recv.NewAdaptiveAllocator(simMin, simInitial, simMax)
	if err != nil {
		return nil, "", err
	}
	return alloc, "adaptive", nil
}

// parseTrace reads one byte count per line, skipping blanks and # comments.
func parseTrace(r io.Reader) ([]int, error) {
	var samples []int

	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		n, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %q is not a byte count", lineNo, line)
		}
		if n < 0 {
			return nil, fmt.Errorf("line %d: negative byte count %d", lineNo, n)
		}
		samples = append(samples, n)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}
