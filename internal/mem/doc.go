// Package mem provides Go-heap allocation utilities.
//
// # Aligned Allocation
//
// AllocAligned over-allocates and slices at an aligned offset, so callers can
// reinterpret the bytes as any pointer-free element type with the requested
// alignment.
package mem
