//go:build linux || darwin

package pool

import "golang.org/x/sys/unix"

// slabAlloc reserves size bytes of anonymous memory outside the Go heap.
// Keeping large idle buffers off the heap spares the garbage collector from
// scanning them.
func slabAlloc(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
}

// slabRelease hands a slab's memory back to the operating system. The slice
// must cover the full reservation.
func slabRelease(b []byte) error {
	return unix.Munmap(b)
}
