//go:build !linux && !darwin

package pool

// slabAlloc reserves size bytes on the Go heap. Platforms without the mmap
// path lean on the garbage collector instead.
func slabAlloc(size int) ([]byte, error) {
	return make([]byte, size), nil
}

// slabRelease drops the slab for the garbage collector.
func slabRelease([]byte) error {
	return nil
}
