package mem

import (
	"unsafe"
)

// DefaultAlignment is the alignment used when a caller passes align <= 0.
const DefaultAlignment = 8

// AllocAligned allocates a zeroed byte slice of the given size whose first
// byte sits at an address divisible by align. align must be a power of two.
//
// The returned slice has len == cap == size. The underlying array is kept
// alive by the returned slice. AllocAligned returns nil for size <= 0.
func AllocAligned(size, align int) []byte {
	if size <= 0 {
		return nil
	}
	if align <= 0 {
		align = DefaultAlignment
	}

	// Allocate size + alignment to ensure we can find an aligned offset
	buf := make([]byte, size+align)

	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // unsafe is required for memory alignment
	mask := uintptr(align - 1)
	offset := int((uintptr(align) - (addr & mask)) & mask)

	return buf[offset : offset+size : offset+size]
}

// IsAligned reports whether the first byte of b is aligned to align.
func IsAligned(b []byte, align int) bool {
	if len(b) == 0 || align <= 1 {
		return true
	}
	addr := uintptr(unsafe.Pointer(&b[0])) //nolint:gosec // unsafe is required for memory alignment
	return addr&uintptr(align-1) == 0
}
