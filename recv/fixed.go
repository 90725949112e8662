package recv

import "fmt"

// FixedAllocator produces handles that always guess the same capacity. It is
// the degenerate predictor, useful for hosts whose message sizes are known up
// front and as the baseline when measuring the adaptive one.
type FixedAllocator struct {
	size int
}

var _ Allocator = (*FixedAllocator)(nil)

// NewFixedAllocator returns an allocator whose handles always guess size.
func NewFixedAllocator(size int) (*FixedAllocator, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFixedSize, size)
	}
	return &FixedAllocator{size: size}, nil
}

// Size returns the capacity every handle guesses.
func (a *FixedAllocator) Size() int { return a.size }

// NewHandle returns a handle guessing the fixed size. The meter is accepted
// for interface parity and never consulted.
func (a *FixedAllocator) NewHandle(ReadMeter) Handle {
	return &FixedHandle{size: a.size}
}

// FixedHandle guesses a constant capacity and ignores read feedback.
type FixedHandle struct {
	size     int
	lastRead int
}

var _ Handle = (*FixedHandle)(nil)

// Guess returns the fixed capacity.
func (h *FixedHandle) Guess() int { return h.size }

// LastBytesRead records n for introspection only.
func (h *FixedHandle) LastBytesRead(n int) { h.lastRead = n }

// ReadComplete does nothing; the guess never moves.
func (h *FixedHandle) ReadComplete() {}

// LastRead returns the byte count of the most recent individual read.
func (h *FixedHandle) LastRead() int { return h.lastRead }
