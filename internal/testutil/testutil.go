// Package testutil provides deterministic io.Reader implementations for
// exercising read loops in tests.
package testutil

import "io"

// Step is one scripted read result.
type Step struct {
	N   int   // bytes to deliver, capped by the buffer offered
	Err error // error returned alongside
}

// ScriptedReader replays a fixed sequence of read results. Reads past the
// end of the script return io.EOF. Payload bytes are a rolling counter
// across the whole stream, so reassembled output can be checked for ordering
// and loss.
type ScriptedReader struct {
	steps []Step
	pos   int
	next  byte
}

// NewScriptedReader returns a reader replaying steps in order.
func NewScriptedReader(steps ...Step) *ScriptedReader {
	return &ScriptedReader{steps: steps}
}

func (r *ScriptedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.steps) {
		return 0, io.EOF
	}

	st := r.steps[r.pos]
	r.pos++

	n := min(st.N, len(p))
	for i := range n {
		p[i] = r.next
		r.next++
	}
	return n, st.Err
}

// ChunkedReader serves total bytes in chunks of at most chunk per read, then
// io.EOF. Payload bytes are the same rolling counter ScriptedReader uses.
type ChunkedReader struct {
	remaining int
	chunk     int
	next      byte
}

// NewChunkedReader returns a reader serving total bytes, at most chunk at a
// time.
func NewChunkedReader(total, chunk int) *ChunkedReader {
	return &ChunkedReader{remaining: total, chunk: chunk}
}

func (r *ChunkedReader) Read(p []byte) (int, error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}

	n := min(r.chunk, len(p), r.remaining)
	for i := range n {
		p[i] = r.next
		r.next++
	}
	r.remaining -= n
	return n, nil
}

// Pattern returns the first n bytes of the rolling counter payload the
// readers produce.
func Pattern(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i)
	}
	return out
}
