// Package stream drives adaptively sized read cycles over plain io.Reader
// sources.
//
// A Reader asks a prediction handle how large a buffer to offer, fills a
// pooled buffer of that size from the source, and feeds the outcome back
// into the predictor. Buffer sizes converge on the traffic while the buffers
// themselves recycle through their capacity classes.
//
// Next returns the bytes of one read at a time. The returned slice is only
// valid until the following Next or Close call; the Reader reclaims it
// afterwards. Callers that need the data longer must copy it out.
package stream
