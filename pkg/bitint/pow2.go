/*
Package bitint provides the power-of-two helpers used to size FFT
workspaces and sample buffers.

All functions are allocation free and constant time, so they can be
called from the render path when the transform size changes.

NextPowerOfTwo relies on bits.Len of (size-1): for an exact power of two
the highest set bit of size-1 sits one position below the bit of size,
so shifting 1 by that length returns size unchanged. For every other
value it rounds up.

	size  size-1  bits.Len  result
	8     0111    3         8
	9     1000    4         16
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size.
// Non-positive inputs return 1.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// PrevPowerOfTwo returns the largest power of two <= size.
// Non-positive inputs return 1.
func PrevPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << (bits.Len(uint(size)) - 1)
}

// IsPowerOfTwo reports whether n is a positive power of two.
// (n & (n-1)) clears the lowest set bit, which leaves zero only when a
// single bit was set.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// ClampPowerOfTwo rounds n to the nearest power of two and clamps the
// result into [lo, hi]. lo and hi must themselves be powers of two.
// Ties round up, so 768 becomes 1024.
func ClampPowerOfTwo(n, lo, hi int) int {
	if n <= lo {
		return lo
	}
	if n >= hi {
		return hi
	}
	if IsPowerOfTwo(n) {
		return n
	}
	up := NextPowerOfTwo(n)
	down := up >> 1
	if n-down < up-n {
		return down
	}
	return up
}
