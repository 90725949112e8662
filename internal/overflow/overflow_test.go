package overflow

import (
	"math"
	"testing"
)

// Test_Add_Bounds checks sums near both int limits.
func Test_Add_Bounds(t *testing.T) {
	cases := []struct {
		name   string
		a, b   int
		want   int
		wantOK bool
	}{
		{"plain", 3, 4, 7, true},
		{"exactly max", math.MaxInt - 1, 1, math.MaxInt, true},
		{"past max", math.MaxInt, 1, 0, false},
		{"exactly min", math.MinInt + 1, -1, math.MinInt, true},
		{"past min", math.MinInt, -1, 0, false},
		{"negatives cancel", -5, 5, 0, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Add(tc.a, tc.b)
			if ok != tc.wantOK {
				t.Fatalf("Add(%d, %d): expected ok=%v, got %v", tc.a, tc.b, tc.wantOK, ok)
			}
			if ok && got != tc.want {
				t.Fatalf("Add(%d, %d): expected %d, got %d", tc.a, tc.b, tc.want, got)
			}
		})
	}
}

// Test_Mul_Bounds checks products near the int limits, including the MinInt
// negation corner.
func Test_Mul_Bounds(t *testing.T) {
	cases := []struct {
		name   string
		a, b   int
		want   int
		wantOK bool
	}{
		{"plain", 1024, 8, 8192, true},
		{"zero", 0, math.MaxInt, 0, true},
		{"exactly max", math.MaxInt, 1, math.MaxInt, true},
		{"past max", math.MaxInt/2 + 1, 2, 0, false},
		{"negative fits", -1 << 30, 2, -1 << 31, true},
		{"min times minus one", math.MinInt, -1, 0, false},
		{"minus one times min", -1, math.MinInt, 0, false},
		{"both negative overflow", math.MinInt, math.MinInt, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Mul(tc.a, tc.b)
			if ok != tc.wantOK {
				t.Fatalf("Mul(%d, %d): expected ok=%v, got %v", tc.a, tc.b, tc.wantOK, ok)
			}
			if ok && got != tc.want {
				t.Fatalf("Mul(%d, %d): expected %d, got %d", tc.a, tc.b, tc.want, got)
			}
		})
	}
}
