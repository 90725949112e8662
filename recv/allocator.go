package recv

// ReadMeter supplies the read-cycle bookkeeping a prediction handle consults.
// *CycleTracker is the standard implementation; hosts that keep their own
// accounting can satisfy it directly.
type ReadMeter interface {
	// AttemptedBytesRead returns the capacity offered to the most recent read.
	AttemptedBytesRead() int

	// TotalBytesRead returns the bytes delivered so far in the current cycle.
	TotalBytesRead() int
}

// Handle predicts receive buffer capacities for a single stream.
//
// Implementations:
//   - AdaptiveHandle: guesses follow the observed read sizes
//   - FixedHandle: constant guess, feedback ignored
//
// A handle is not safe for concurrent use. Drive it from one read loop, or
// synchronize externally.
type Handle interface {
	// Guess returns the capacity the next read should be offered.
	Guess() int

	// LastBytesRead informs the handle that an individual read returned n bytes.
	LastBytesRead(n int)

	// ReadComplete marks the end of a read cycle, folding the cycle's byte
	// total into the next prediction.
	ReadComplete()
}

// Allocator hands out prediction handles. One handle per stream; handles
// from the same allocator share configuration but never mutable state.
type Allocator interface {
	// NewHandle returns a fresh handle consulting m for cycle bookkeeping.
	NewHandle(m ReadMeter) Handle
}
