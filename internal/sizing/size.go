// Package sizing provides safe size arithmetic and conversions to prevent overflow.
package sizing

import "math"

// ToInt converts an int64 to int, returning overflowErr if it is negative
// or doesn't fit.
func ToInt(size int64, overflowErr error) (int, error) {
	if size < 0 || uint64(size) > uint64(math.MaxInt) {
		return 0, overflowErr
	}
	return int(size), nil
}

// AddInt64 adds two non-negative int64 values, returning (result, false) on
// overflow or when either operand is negative.
func AddInt64(a, b int64) (int64, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a > math.MaxInt64-b {
		return 0, false
	}
	return a + b, true
}

// WithinBounds reports whether the range [offset, offset+length) lies inside
// a source of the given size.
func WithinBounds(offset, length, sourceSize int64) bool {
	end, ok := AddInt64(offset, length)
	if !ok {
		return false
	}
	return sourceSize >= 0 && end <= sourceSize
}
