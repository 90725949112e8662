// Package recv predicts receive buffer capacities for streams whose message
// sizes are not known in advance.
//
// # Overview
//
// Reading from a socket or pipe forces a choice before any bytes arrive: how
// large a buffer to offer the read. Too small wastes syscalls on large
// payloads; too large wastes memory on small ones. This package keeps a
// per-stream prediction that converges on the observed traffic, growing
// quickly when reads fill the buffer and shrinking cautiously when they stop.
//
// # Capacity Table
//
// All predictions come from one fixed ladder of capacities:
//
//	16, 32, 48, ... 496        (steps of 16)
//	512, 1024, 2048, ... 2^30  (doubling)
//
// The fine-grained low end sizes small-message traffic without much slack;
// the doubling high end reaches bulk-transfer sizes in a few steps. Guesses
// only ever move along this ladder, so buffers recycled by capacity class
// always match future guesses.
//
// # Allocators and Handles
//
// An Allocator holds validated configuration and spawns one Handle per
// stream:
//
//	alloc, err := recv.NewAdaptiveAllocator(64, 1024, 65536)
//	if err != nil {
//	    return err
//	}
//
//	tracker, err := recv.NewCycleTracker(16, true)
//	if err != nil {
//	    return err
//	}
//
//	h := alloc.NewHandle(tracker)
//
// The read loop then drives the handle, one cycle per readiness event:
//
//	tracker.Reset()
//	for {
//	    buf := make([]byte, h.Guess())
//	    tracker.SetAttemptedBytesRead(len(buf))
//
//	    n, err := conn.Read(buf)
//	    tracker.IncMessagesRead(1)
//	    tracker.LastBytesRead(n)
//	    h.LastBytesRead(n)
//
//	    // ... consume buf[:n], handle err ...
//
//	    if err != nil || !tracker.ContinueReading() {
//	        break
//	    }
//	}
//	h.ReadComplete()
//
// Package stream wraps this loop for plain io.Reader sources.
//
// # Prediction Rules
//
// After each cycle (and after any single read that used its whole buffer) the
// handle records the byte count against its current table position:
//
//   - At or above the current guess: the position climbs IndexIncrement
//     entries, capped at the configured maximum.
//   - At or below the entry one decrement below the current position: the
//     first such reading arms a pending decrease, the second in a row moves
//     the position down IndexDecrement entries, floored at the minimum.
//   - In between: nothing changes, an armed decrease stays armed.
//
// An undersized guess costs extra read calls, so growth takes the larger
// step; an oversized guess only costs slack memory, so shrinking waits for
// two quiet cycles in a row.
//
// # Cycle Bookkeeping
//
// CycleTracker counts the reads and bytes of the current cycle and decides
// when the loop should stop: after maxMessagesPerRead reads, after a read
// that left its buffer unfilled (when respectMaybeMoreData is set), or when
// the cycle delivered nothing. Handles consult it through the ReadMeter
// interface, so hosts with their own loop accounting can plug that in
// instead.
//
// # Thread Safety
//
// Allocators are immutable after construction and safe to share. Handles and
// trackers belong to a single stream and are not synchronized; drive each
// from one goroutine.
package recv
