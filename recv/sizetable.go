package recv

// Table region boundaries. Capacities below geometricFloor advance in
// linearStep increments; from geometricFloor on they double.
const (
	linearStep     = 16
	geometricFloor = 512
)

// sizeTable holds every capacity a handle may guess, smallest first.
// Computed once at package init and never mutated afterwards.
var sizeTable = newSizeTable()

// newSizeTable computes the capacity ladder.
func newSizeTable() []int {
	sizes := make([]int, 0, 64)

	// Phase 1: linear region, 16 up to (not including) 512 in steps of 16.
	for size := linearStep; size < geometricFloor; size += linearStep {
		sizes = append(sizes, size)
	}

	// Phase 2: geometric region, 512 doubling for as long as the value still
	// fits in an int32. The loop runs in int32 so the stop condition is the
	// sign flip itself; the final entry is 2^30.
	for size := int32(geometricFloor); size > 0; size <<= 1 {
		sizes = append(sizes, int(size))
	}

	return sizes
}

// tableIndex returns the index of size in the table, or when size falls
// between entries, the index of the smallest entry that exceeds it. Sizes
// below the first entry map to index 0, sizes above the last entry to the
// last index.
func tableIndex(size int) int {
	lo, hi := 0, len(sizeTable)-1

	for lo <= hi {
		mid := (lo + hi) / 2
		if size <= sizeTable[mid] {
			// Smallest entry that still covers size wins.
			if mid == 0 || size > sizeTable[mid-1] {
				return mid
			}
			hi = mid - 1
		} else {
			lo = mid + 1
		}
	}

	// Larger than every entry: clamp to the top capacity.
	return len(sizeTable) - 1
}

// TableSizes returns a copy of the capacity table, smallest first. The table
// is fixed at build time; the copy is safe to modify.
func TableSizes() []int {
	out := make([]int, len(sizeTable))
	copy(out, sizeTable)
	return out
}

// CeilingSize returns the smallest tabled capacity that holds size. Sizes
// above the top capacity clamp to it.
func CeilingSize(size int) int {
	return sizeTable[tableIndex(size)]
}
