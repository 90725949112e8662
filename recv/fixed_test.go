package recv

import (
	"errors"
	"testing"
)

// Test_FixedAllocator_ConstantGuess verifies feedback never moves the guess.
func Test_FixedAllocator_ConstantGuess(t *testing.T) {
	a, err := NewFixedAllocator(2048)
	if err != nil {
		t.Fatal(err)
	}
	if a.Size() != 2048 {
		t.Fatalf("expected size 2048, got %d", a.Size())
	}

	m := &meterStub{attempted: 2048, total: 1 << 20}
	h := a.NewHandle(m)

	if h.Guess() != 2048 {
		t.Fatalf("expected guess 2048, got %d", h.Guess())
	}

	// Filled reads and huge cycle totals are ignored.
	h.LastBytesRead(2048)
	h.ReadComplete()
	if h.Guess() != 2048 {
		t.Fatalf("guess moved to %d after feedback", h.Guess())
	}

	fh, ok := h.(*FixedHandle)
	if !ok {
		t.Fatalf("expected *FixedHandle, got %T", h)
	}
	if fh.LastRead() != 2048 {
		t.Fatalf("expected last read 2048, got %d", fh.LastRead())
	}
}

// Test_NewFixedAllocator_RejectsNonPositive verifies size validation.
func Test_NewFixedAllocator_RejectsNonPositive(t *testing.T) {
	for _, size := range []int{0, -1, -4096} {
		a, err := NewFixedAllocator(size)
		if err == nil {
			t.Fatalf("expected error for size %d", size)
		}
		if !errors.Is(err, ErrInvalidFixedSize) {
			t.Fatalf("expected ErrInvalidFixedSize, got %v", err)
		}
		if a != nil {
			t.Fatalf("expected nil allocator for size %d", size)
		}
	}
}
