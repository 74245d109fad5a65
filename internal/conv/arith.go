package conv

import "math"

// AddInt returns a+b for non-negative operands and reports whether the sum
// fits in an int.
func AddInt(a, b int) (int, bool) {
	if a < 0 || b < 0 || a > math.MaxInt-b {
		return 0, false
	}
	return a + b, true
}

// MulInt returns a*b for non-negative operands and reports whether the
// product fits in an int.
func MulInt(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

// RoundUp rounds n up to the next multiple of m (m > 0) and reports whether
// the result fits in an int.
func RoundUp(n, m int) (int, bool) {
	if n < 0 || m <= 0 {
		return 0, false
	}
	rem := n % m
	if rem == 0 {
		return n, true
	}
	return AddInt(n, m-rem)
}
