package stream

import (
	"github.com/joshuapare/recvkit/pool"
	"github.com/joshuapare/recvkit/recv"
)

// defaultMaxMessagesPerRead bounds one cycle when the options leave the
// limit unset.
const defaultMaxMessagesPerRead = 16

// sharedPool serves every Reader whose options name no pool of their own.
var sharedPool = pool.New()

// BufferPool supplies the receive buffers a Reader offers to its source.
// *pool.Pool implements it; any recycler honoring the same contract works.
type BufferPool interface {
	// Get returns a buffer with len(b) == size, possibly recycled.
	Get(size int) []byte

	// Put hands a buffer back once the Reader is done with it.
	Put(b []byte)
}

// Options configures a Reader. The zero value is usable: a default adaptive
// allocator, sixteen reads per cycle, cycles that end on an unfilled read,
// and the shared package pool.
type Options struct {
	// Allocator supplies the prediction handle. nil means a default
	// adaptive allocator with a 64 byte floor, a 1024 byte seed, and a
	// 65536 byte ceiling.
	Allocator recv.Allocator

	// MaxMessagesPerRead bounds the reads grouped into one cycle. Zero
	// means sixteen; negative values are rejected.
	MaxMessagesPerRead int

	// IgnoreMaybeMoreData keeps a cycle open after a read that left its
	// buffer unfilled, until the read limit or an error ends it. Left
	// false, an unfilled buffer ends the cycle early, since the source
	// likely has nothing more to give right now.
	IgnoreMaybeMoreData bool

	// Pool supplies receive buffers. nil means a pool shared across the
	// package.
	Pool BufferPool
}

// withDefaults fills in the zero-value choices.
func (o Options) withDefaults() Options {
	if o.Allocator == nil {
		o.Allocator = recv.NewDefaultAdaptiveAllocator()
	}
	if o.MaxMessagesPerRead == 0 {
		o.MaxMessagesPerRead = defaultMaxMessagesPerRead
	}
	if o.Pool == nil {
		o.Pool = sharedPool
	}
	return o
}
