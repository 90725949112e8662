package stream

import (
	"errors"
	"fmt"
	"io"

	"github.com/joshuapare/recvkit/recv"
)

// maxConsecutiveEmptyReads bounds how many (0, nil) results a single Next
// call tolerates from the source before giving up with io.ErrNoProgress.
const maxConsecutiveEmptyReads = 100

var (
	// ErrNilSource indicates NewReader was handed no source.
	ErrNilSource = errors.New("stream: nil source reader")

	// ErrClosed is returned by Next after Close.
	ErrClosed = errors.New("stream: reader closed")

	errNegativeRead = errors.New("stream: source returned negative count from Read")
)

// ReaderStats counts a Reader's lifetime activity.
type ReaderStats struct {
	BytesRead int64 // bytes handed to the caller
	Reads     int64 // reads issued against the source
	Cycles    int64 // completed read cycles
	Guess     int   // capacity the next read will be offered
}

// Reader pulls from an io.Reader through predicted buffer sizes. Each Next
// call performs one sized read; cycle bookkeeping and buffer recycling are
// handled internally.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	src     io.Reader
	handle  recv.Handle
	tracker *recv.CycleTracker
	pool    BufferPool

	cur     []byte // buffer lent out by the last Next
	err     error  // terminal error, handed out after its data
	inCycle bool

	bytesRead int64
	reads     int64
	cycles    int64
}

// NewReader returns a Reader over src configured by opts.
func NewReader(src io.Reader, opts Options) (*Reader, error) {
	if src == nil {
		return nil, ErrNilSource
	}

	opts = opts.withDefaults()

	tracker, err := recv.NewCycleTracker(opts.MaxMessagesPerRead, !opts.IgnoreMaybeMoreData)
	if err != nil {
		return nil, fmt.Errorf("stream: %w", err)
	}

	return &Reader{
		src:     src,
		handle:  opts.Allocator.NewHandle(tracker),
		tracker: tracker,
		pool:    opts.Pool,
	}, nil
}

// Next performs one read against the source and returns the bytes it
// delivered. The slice is valid until the following Next or Close call.
//
// A read that returns data alongside an error delivers the data first; the
// error comes from the next call. Once Next has returned a non-nil error,
// every later call returns the same error. End of stream is io.EOF; a
// source that keeps returning (0, nil) yields io.ErrNoProgress.
func (r *Reader) Next() ([]byte, error) {
	r.recycle()

	if r.err != nil {
		return nil, r.err
	}

	for empties := 0; ; {
		if !r.inCycle {
			r.tracker.Reset()
			r.inCycle = true
		}

		buf := r.pool.Get(r.handle.Guess())
		r.tracker.SetAttemptedBytesRead(len(buf))

		n, err := r.src.Read(buf)
		if n < 0 {
			panic(errNegativeRead)
		}

		r.reads++
		r.tracker.IncMessagesRead(1)
		r.tracker.LastBytesRead(n)
		r.handle.LastBytesRead(n)

		if err != nil || !r.tracker.ContinueReading() {
			r.handle.ReadComplete()
			r.inCycle = false
			r.cycles++
		}

		if n > 0 {
			r.bytesRead += int64(n)
			r.cur = buf
			if err != nil {
				// Deliver the bytes now, the error on the next call.
				r.err = err
			}
			return buf[:n], nil
		}

		r.pool.Put(buf)

		if err != nil {
			r.err = err
			return nil, r.err
		}

		empties++
		if empties >= maxConsecutiveEmptyReads {
			r.err = io.ErrNoProgress
			return nil, r.err
		}
	}
}

// Close reclaims the buffer lent out by the last Next. Further Next calls
// report ErrClosed, or the earlier terminal error when one already ended the
// stream. Close is idempotent and always returns nil.
func (r *Reader) Close() error {
	r.recycle()
	if r.err == nil {
		r.err = ErrClosed
	}
	return nil
}

// Stats returns lifetime counters and the size the next read would be
// offered.
func (r *Reader) Stats() ReaderStats {
	return ReaderStats{
		BytesRead: r.bytesRead,
		Reads:     r.reads,
		Cycles:    r.cycles,
		Guess:     r.handle.Guess(),
	}
}

// recycle returns the previously lent buffer to the pool.
func (r *Reader) recycle() {
	if r.cur != nil {
		r.pool.Put(r.cur)
		r.cur = nil
	}
}
