package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/cobra"

	"github.com/joshuapare/recvkit/pool"
	"github.com/joshuapare/recvkit/recv"
	"github.com/joshuapare/recvkit/stream"
)

var (
	readFixed    int
	readMin      int
	readInitial  int
	readMax      int
	readMaxReads int
)

func init() {
	cmd := newReadCmd()
	cmd.Flags().IntVar(&readFixed, "fixed", 0, "Read with a constant guess of this size instead of the adaptive predictor")
	cmd.Flags().IntVar(&readMin, "min", recv.DefaultMinimum, "Lower bound on guessed capacities")
	cmd.Flags().IntVar(&readInitial, "initial", recv.DefaultInitial, "First guess before any feedback")
	cmd.Flags().IntVar(&readMax, "max", recv.DefaultMaximum, "Upper bound on guessed capacities")
	cmd.Flags().IntVar(&readMaxReads, "max-reads", 0, "Reads grouped into one cycle (0 for the default)")
	rootCmd.AddCommand(cmd)
}

func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read [file]",
		Short: "Read data through the adaptive stream reader",
		Long: `The read command streams a file (or stdin when no file is given) through
the adaptive reader and reports how the buffer sizing behaved: the guess
trajectory, buffer pool traffic, throughput, and a 64-bit content digest so
runs over the same data are comparable.

Example:
  recvstat read big.log
  recvstat read --fixed 4096 big.log
  cat big.log | recvstat read --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(args)
		},
	}
	return cmd
}

type GuessChange struct {
	Read  int64 // read count at which the guess moved
	Guess int
}

type ReadReport struct {
	Source    string
	Allocator string

	BytesRead int64
	Reads     int64
	Cycles    int64

	DurationMS float64
	Throughput string // human-readable bytes per second

	Digest     string // xxhash64 of the streamed content
	FinalGuess int

	Trajectory []GuessChange

	Pool pool.Stats
}

func runRead(args []string) error {
	name := "-"
	if len(args) == 1 {
		name = args[0]
	}

	var src io.Reader
	if name == "-" {
		src = os.Stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		src = f
	}

	alloc, label, err := readAllocator()
	if err != nil {
		return err
	}

	bufs := pool.New()
	r, err := stream.NewReader(src, stream.Options{
		Allocator:          alloc,
		MaxMessagesPerRead: readMaxReads,
		Pool:               bufs,
	})
	if err != nil {
		return err
	}
	defer r.Close()

	printVerbose("Reading %s with %s sizing\n", name, label)

	digest := xxhash.New()
	trajectory := []GuessChange{{Read: 0, Guess: r.Stats().Guess}}
	lastGuess := r.Stats().Guess

	start := time.Now()
	for {
		b, err := r.Next()
		if len(b) > 0 {
			digest.Write(b)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}

		if stats := r.Stats(); stats.Guess != lastGuess {
			trajectory = append(trajectory, GuessChange{Read: stats.Reads, Guess: stats.Guess})
			lastGuess = stats.Guess
		}
	}
	elapsed := time.Since(start)

	stats := r.Stats()
	throughput := "n/a"
	if secs := elapsed.Seconds(); secs > 0 {
		throughput = formatBytes(int64(float64(stats.BytesRead)/secs)) + "/s"
	}

	report := ReadReport{
		Source:     name,
		Allocator:  label,
		BytesRead:  stats.BytesRead,
		Reads:      stats.Reads,
		Cycles:     stats.Cycles,
		DurationMS: float64(elapsed.Microseconds()) / 1000.0,
		Throughput: throughput,
		Digest:     fmt.Sprintf("%016x", digest.Sum64()),
		FinalGuess: stats.Guess,
		Trajectory: trajectory,
		Pool:       bufs.Stats(),
	}

	if jsonOut {
		return printJSON(report)
	}

	printInfo("Source: %s\n", report.Source)
	printInfo("Allocator: %s\n\n", report.Allocator)
	printInfo("Bytes read: %s (%s bytes)\n", formatBytes(report.BytesRead), formatCount(report.BytesRead))
	printInfo("Reads: %s across %s cycles\n", formatCount(report.Reads), formatCount(report.Cycles))
	printInfo("Elapsed: %.1f ms (%s)\n", report.DurationMS, report.Throughput)
	printInfo("Digest: %s\n\n", report.Digest)

	printInfo("Guess trajectory:\n")
	for _, gc := range report.Trajectory {
		printInfo("  after read %s: %s\n", formatCount(gc.Read), formatCount(int64(gc.Guess)))
	}
	printInfo("  final: %s\n\n", formatCount(int64(report.FinalGuess)))

	printInfo("Buffer pool:\n")
	printInfo("  Gets: %s  Puts: %s  Misses: %s\n",
		formatCount(report.Pool.Gets),
		formatCount(report.Pool.Puts),
		formatCount(report.Pool.Misses))
	printInfo("  Drops: %s  Oversize: %s\n",
		formatCount(report.Pool.Drops),
		formatCount(report.Pool.Oversize))
	printInfo("  Large free: %s  Released: %s\n",
		formatBytes(report.Pool.FreeLargeBytes),
		formatBytes(report.Pool.ReleasedBytes))

	return nil
}

// readAllocator builds the predictor the flags ask for.
func readAllocator() (recv.Allocator, string, error) {
	if readFixed > 0 {
		alloc, err := recv.NewFixedAllocator(readFixed)
		if err != nil {
			return nil, "", err
		}
		return alloc, fmt.Sprintf("fixed(%d)", readFixed), nil
	}

	alloc, err := recv.NewAdaptiveAllocator(readMin, readInitial, readMax)
	if err != nil {
		return nil, "", err
	}
	return alloc, "adaptive", nil
}
