package recv

import "fmt"

// Prediction step sizes, in table indices. A guess climbs faster than it
// falls: one filled cycle moves it up IndexIncrement entries, while shrinking
// takes two consecutive quiet cycles and moves it down IndexDecrement.
const (
	// IndexIncrement is the index step applied when a cycle's bytes reach the
	// current guess.
	IndexIncrement = 4

	// IndexDecrement is the index step applied when two consecutive cycles
	// stay under the shrink threshold.
	IndexDecrement = 1
)

// Default capacity bounds for NewDefaultAdaptiveAllocator.
const (
	DefaultMinimum = 64
	DefaultInitial = 1024
	DefaultMaximum = 65536
)

// AdaptiveAllocator produces handles whose guesses track the observed read
// sizes of their stream, between a configured minimum and maximum capacity.
type AdaptiveAllocator struct {
	minIndex int
	maxIndex int
	initial  int

	minimum int
	maximum int
}

var _ Allocator = (*AdaptiveAllocator)(nil)

// NewAdaptiveAllocator builds an allocator whose handles guess between
// minimum and maximum bytes, starting at initial. The effective bounds snap
// inward to table entries: the floor becomes the smallest entry >= minimum,
// the ceiling the largest entry <= maximum.
func NewAdaptiveAllocator(minimum, initial, maximum int) (*AdaptiveAllocator, error) {
	if minimum <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMinimum, minimum)
	}
	if initial < minimum {
		return nil, fmt.Errorf("%w: initial %d, minimum %d", ErrInvalidInitial, initial, minimum)
	}
	if maximum < initial {
		return nil, fmt.Errorf("%w: maximum %d, initial %d", ErrInvalidMaximum, maximum, initial)
	}

	minIndex := tableIndex(minimum)
	if sizeTable[minIndex] < minimum {
		minIndex++
	}
	maxIndex := tableIndex(maximum)
	if sizeTable[maxIndex] > maximum {
		maxIndex--
	}

	return &AdaptiveAllocator{
		minIndex: minIndex,
		maxIndex: maxIndex,
		initial:  initial,
		minimum:  minimum,
		maximum:  maximum,
	}, nil
}

// NewDefaultAdaptiveAllocator returns an allocator with the standard bounds:
// 64 byte minimum, 1024 byte initial guess, 65536 byte maximum.
func NewDefaultAdaptiveAllocator() *AdaptiveAllocator {
	a, err := NewAdaptiveAllocator(DefaultMinimum, DefaultInitial, DefaultMaximum)
	if err != nil {
		// The default bounds satisfy the validation rules.
		panic(err)
	}
	return a
}

// NewHandle returns a fresh prediction handle consulting m, seeded at the
// allocator's initial capacity.
func (a *AdaptiveAllocator) NewHandle(m ReadMeter) Handle {
	idx := tableIndex(a.initial)
	return &AdaptiveHandle{
		meter:     m,
		minIndex:  a.minIndex,
		maxIndex:  a.maxIndex,
		index:     idx,
		nextGuess: sizeTable[idx],
	}
}

// Minimum returns the configured minimum capacity.
func (a *AdaptiveAllocator) Minimum() int { return a.minimum }

// Initial returns the configured starting capacity.
func (a *AdaptiveAllocator) Initial() int { return a.initial }

// Maximum returns the configured maximum capacity.
func (a *AdaptiveAllocator) Maximum() int { return a.maximum }

// FloorCapacity returns the smallest capacity a handle of this allocator can
// guess, the table entry the minimum resolved to.
func (a *AdaptiveAllocator) FloorCapacity() int { return sizeTable[a.minIndex] }

// CeilCapacity returns the largest capacity a handle of this allocator can
// guess, the table entry the maximum resolved to.
func (a *AdaptiveAllocator) CeilCapacity() int { return sizeTable[a.maxIndex] }

// AdaptiveHandle sizes receive buffers for one stream from its read history.
// Guesses move along the shared capacity table: up by IndexIncrement when a
// cycle keeps pace with the guess, down by IndexDecrement after two
// consecutive cycles under the shrink threshold. A single quiet cycle only
// arms the decrease; mixed readings in between leave it armed.
type AdaptiveHandle struct {
	meter ReadMeter

	minIndex int
	maxIndex int

	index           int // current position in the capacity table
	nextGuess       int // sizeTable[index] after the latest adjustment
	lastRead        int
	decreasePending bool // one shrink-worthy reading seen; the next one shrinks
}

var _ Handle = (*AdaptiveHandle)(nil)

// Guess returns the capacity the next read should be offered. It never
// allocates and never mutates the handle.
func (h *AdaptiveHandle) Guess() int { return h.nextGuess }

// LastBytesRead informs the handle that an individual read returned n bytes.
// A read that used the entire attempted capacity feeds the prediction
// immediately, so a later read in the same cycle already sees a larger guess.
func (h *AdaptiveHandle) LastBytesRead(n int) {
	if n == h.meter.AttemptedBytesRead() {
		h.record(n)
	}
	h.lastRead = n
}

// ReadComplete folds the finished cycle's byte total into the prediction.
func (h *AdaptiveHandle) ReadComplete() {
	h.record(h.meter.TotalBytesRead())
}

// record adjusts the table position for a reading of actual bytes.
func (h *AdaptiveHandle) record(actual int) {
	if actual <= sizeTable[max(0, h.index-IndexDecrement-1)] {
		if h.decreasePending {
			h.index = max(h.index-IndexDecrement, h.minIndex)
			h.nextGuess = sizeTable[h.index]
			h.decreasePending = false
		} else {
			h.decreasePending = true
		}
	} else if actual >= h.nextGuess {
		h.index = min(h.index+IndexIncrement, h.maxIndex)
		h.nextGuess = sizeTable[h.index]
		h.decreasePending = false
	}
	// Readings between the two thresholds change nothing, an armed decrease
	// included.
}

// Index returns the handle's current position in the capacity table.
func (h *AdaptiveHandle) Index() int { return h.index }

// LastRead returns the byte count of the most recent individual read.
func (h *AdaptiveHandle) LastRead() int { return h.lastRead }
