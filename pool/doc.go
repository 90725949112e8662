// Package pool recycles receive buffers in the capacity classes produced by
// package recv.
//
// A read loop returns buffers in the same classes it will request again, so
// recycling by class keeps the hit rate high once a stream's prediction
// settles. Classes up to 64 KiB ride per-class sync.Pools on the Go heap.
// Larger classes park idle buffers in explicit free lists backed by OS
// reservations outside the heap, and surplus beyond a retention limit is
// handed straight back to the operating system.
package pool
