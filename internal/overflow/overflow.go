// Package overflow provides checked int arithmetic for size and count math.
package overflow

import "math"

// Add returns a+b and ok = false when the sum would overflow int.
func Add(a, b int) (int, bool) {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return 0, false
	case b < 0 && a < math.MinInt-b:
		return 0, false
	default:
		return a + b, true
	}
}

// Mul returns a*b and ok = false when the product would overflow int.
func Mul(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	// MinInt negation is the one case the quotient check below cannot see.
	if (a == math.MinInt && b == -1) || (b == math.MinInt && a == -1) {
		return 0, false
	}

	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}
