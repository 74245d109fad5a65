// Package rawmem provides growable, typed memory regions over
// interchangeable storage.
//
// Every backend implements [RawMem]: a contiguous run of Capacity() slots
// whose first len(Allocated()) slots are initialized. Generic code grows,
// shrinks, reads and writes elements without knowing where the bytes live.
//
// # Backends
//
//   - [Alloc]: memory from an [Allocator] ([GoAllocator] on the Go heap,
//     [SystemAllocator] in off-heap anonymous mappings, [LimitedAllocator]
//     under a byte budget)
//   - [FileMapped]: a shared mapping of a file, extended and remapped on growth
//   - [TempFile]: a FileMapped region over a file removed on Close
//   - [Buffered]: an in-memory copy written back to a file on Sync
//   - [PreAlloc]: a fixed-size region over a caller-supplied slice
//
// # Quick Start
//
//	m, _ := rawmem.NewGlobal[uint64]()
//	defer m.Close()
//
//	_ = rawmem.GrowFilled[uint64](m, 10, 42)
//	_ = rawmem.GrowFromSlice[uint64](m, []uint64{1, 2, 3})
//	_ = m.Shrink(5) // removes 5 elements from the tail
//	fmt.Println(m.Allocated()) // [42 42 42 42 42 42 42 42]
//
// # Growth
//
// Grow hands the fill callback an [Uninit] view over the new tail. The
// length only advances once every slot of the view has been written, so a
// failed or panicking fill never exposes partially initialized elements.
// When capacity runs out the backend requests max(2*capacity, required)
// elements. Sizes beyond [MaxBytes] fail with [ErrCapacityOverflow] before
// any state changes.
//
// # Element Types
//
// Byte-backed regions store elements outside memory the garbage collector
// scans, so their element type must be pointer-free: no pointers, strings,
// slices, maps, channels, funcs or interfaces. Constructors return
// [ErrUnsupportedType] otherwise. [PreAlloc] accepts any type.
//
// # Persistence
//
// A mapped file holds the native bytes of its elements with no header.
// Reopening it on the same architecture with the same element type yields
// the same content; byte order and padding are not normalized.
//
// # Slice Validity
//
// Grow and Shrink may move the storage. Slices returned by Allocated and
// AllocatedMut are valid only until the next mutating call; fetch them again
// afterwards.
//
// # Type Erasure
//
// [ErasedMem] is the backend-independent view every region satisfies.
// [Box] owns a region behind it:
//
//	regions := []*rawmem.Box[float32]{
//	    rawmem.NewBox[float32](heap),
//	    rawmem.NewBox[float32](mapped),
//	}
//	for _, r := range regions {
//	    _ = r.GrowZeroed(128)
//	}
//
// # Thread Safety
//
// Regions provide no locking. Concurrent readers of Allocated are safe as
// long as no mutation is in flight; mutation needs external synchronization.
package rawmem
