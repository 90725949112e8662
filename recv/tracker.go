package recv

import (
	"fmt"
	"math"

	"github.com/joshuapare/recvkit/internal/overflow"
)

// CycleTracker accounts for one read cycle at a time: how many reads ran, how
// many bytes arrived, and whether the loop should keep going. It implements
// ReadMeter for the prediction handles.
//
// The zero value is not usable; construct with NewCycleTracker and call Reset
// before each cycle.
type CycleTracker struct {
	maxMessagesPerRead   int
	respectMaybeMoreData bool

	totalMessages int
	totalBytes    int
	attempted     int
	lastRead      int
}

var _ ReadMeter = (*CycleTracker)(nil)

// NewCycleTracker returns a tracker allowing at most maxMessagesPerRead reads
// per cycle. With respectMaybeMoreData set, a read that leaves its buffer
// unfilled ends the cycle early; without it the loop always runs to the read
// limit.
func NewCycleTracker(maxMessagesPerRead int, respectMaybeMoreData bool) (*CycleTracker, error) {
	if maxMessagesPerRead <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMaxMessages, maxMessagesPerRead)
	}
	return &CycleTracker{
		maxMessagesPerRead:   maxMessagesPerRead,
		respectMaybeMoreData: respectMaybeMoreData,
	}, nil
}

// Reset clears the per-cycle counters.
func (t *CycleTracker) Reset() {
	t.totalMessages = 0
	t.totalBytes = 0
	t.attempted = 0
	t.lastRead = 0
}

// SetAttemptedBytesRead records the capacity offered to the upcoming read.
func (t *CycleTracker) SetAttemptedBytesRead(n int) { t.attempted = n }

// AttemptedBytesRead returns the capacity offered to the most recent read.
func (t *CycleTracker) AttemptedBytesRead() int { return t.attempted }

// IncMessagesRead counts n completed reads against the cycle limit.
func (t *CycleTracker) IncMessagesRead(n int) { t.totalMessages += n }

// MessagesRead returns the number of reads counted this cycle.
func (t *CycleTracker) MessagesRead() int { return t.totalMessages }

// LastBytesRead records the outcome of an individual read. Only positive
// counts accumulate into the cycle total, which saturates at the top of the
// int range instead of wrapping.
func (t *CycleTracker) LastBytesRead(n int) {
	t.lastRead = n
	if n <= 0 {
		return
	}

	sum, ok := overflow.Add(t.totalBytes, n)
	if !ok {
		sum = math.MaxInt
	}
	t.totalBytes = sum
}

// LastRead returns the byte count of the most recent read.
func (t *CycleTracker) LastRead() int { return t.lastRead }

// TotalBytesRead returns the bytes delivered so far this cycle.
func (t *CycleTracker) TotalBytesRead() int { return t.totalBytes }

// MaxMessagesPerRead returns the per-cycle read limit.
func (t *CycleTracker) MaxMessagesPerRead() int { return t.maxMessagesPerRead }

// ContinueReading reports whether the loop should attempt another read in the
// current cycle: the last read must not have signaled a drained source (when
// the tracker respects that signal), the read limit must not be reached, and
// the cycle must have delivered at least one byte.
func (t *CycleTracker) ContinueReading() bool {
	return (!t.respectMaybeMoreData || t.attempted == t.lastRead) &&
		t.totalMessages < t.maxMessagesPerRead &&
		t.TotalBytesRead() > 0
}
