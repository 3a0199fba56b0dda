// Package align provides the alignment arithmetic shared by the allocators
// and the page table. All helpers require power-of-two alignments; callers
// validate or hard-code the alignment before reaching this package.
package align

// Up returns n aligned up to the next multiple of a.
// a must be a nonzero power of two.
//
// Example:
//
//	Up(0, 8)  = 0
//	Up(1, 8)  = 8
//	Up(8, 8)  = 8
//	Up(9, 8)  = 16
func Up(n, a uint64) uint64 {
	return (n + a - 1) &^ (a - 1)
}

// Down returns n aligned down to the previous multiple of a.
// a must be a nonzero power of two.
//
// Example:
//
//	Down(0, 4096)    = 0
//	Down(4095, 4096) = 0
//	Down(4096, 4096) = 4096
//	Down(8191, 4096) = 4096
func Down(n, a uint64) uint64 {
	return n &^ (a - 1)
}

// IsAligned reports whether n is a multiple of a.
// a must be a nonzero power of two.
func IsAligned(n, a uint64) bool {
	return n&(a-1) == 0
}

// IsPowerOfTwo reports whether a is a nonzero power of two.
func IsPowerOfTwo(a uint64) bool {
	return a != 0 && a&(a-1) == 0
}

// CeilDiv returns n divided by d, rounded up. d must be nonzero.
// Unlike Up it does not require d to be a power of two, so it is the
// one to use for page counts with arbitrary page sizes.
func CeilDiv(n, d uint64) uint64 {
	return (n + d - 1) / d
}
