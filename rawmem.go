package rawmem

import (
	"io"
	"math"
	"reflect"
	"unsafe"

	"github.com/hupe1980/rawmem/internal/conv"
)

// MaxBytes is the largest byte size a region may span.
const MaxBytes = math.MaxInt

// Fill initializes the slots of a view handed out by Grow.
// It must write every slot before returning.
type Fill[T any] func(u *Uninit[T])

// ErasedMem is the part of the region contract that can be driven without
// knowing the concrete backend. Every RawMem satisfies it.
type ErasedMem[T any] interface {
	// Allocated returns the initialized prefix. Callers must not write
	// through it. The slice is valid until the next mutating call.
	Allocated() []T

	// AllocatedMut returns the initialized prefix for writing.
	// The slice is valid until the next mutating call.
	AllocatedMut() []T

	// Grow appends addition elements initialized by fill.
	Grow(addition int, fill Fill[T]) error

	// Shrink removes amount elements from the tail.
	Shrink(amount int) error

	// SizeHint reports a fixed upper bound on the element count, if any.
	SizeHint() (int, bool)
}

// RawMem is a growable typed memory region.
//
// Invariants, at every observable point:
//
//   - 0 <= len(Allocated()) <= Capacity()
//   - Capacity() * sizeof(T) <= MaxBytes
//   - a failed Grow or Shrink leaves Allocated() exactly as before
type RawMem[T any] interface {
	ErasedMem[T]

	// Capacity returns the number of elements storable without reallocating.
	Capacity() int

	// Close releases the backing resources. It is idempotent.
	io.Closer
}

func sizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

func alignOf[T any]() int {
	var zero T
	return int(unsafe.Alignof(zero))
}

// checkGrow validates an append of addition elements to length elements of
// the given size and returns the required length.
func checkGrow(length, addition, size int) (int, error) {
	if addition < 0 {
		panic("rawmem: negative grow addition")
	}
	required, ok := conv.AddInt(length, addition)
	if !ok {
		return 0, ErrCapacityOverflow
	}
	if size > 0 {
		if _, ok := conv.MulInt(required, size); !ok {
			return 0, ErrCapacityOverflow
		}
	}
	return required, nil
}

// checkShrink validates removing amount elements from length.
func checkShrink(length, amount int) error {
	if amount < 0 {
		panic("rawmem: negative shrink amount")
	}
	if amount > length {
		return &OverGrowError{Requested: amount, Available: length}
	}
	return nil
}

// nextCapacity applies the growth policy: double the current capacity, but
// never less than required and never beyond what MaxBytes permits.
func nextCapacity(capacity, required, size int) int {
	limit := MaxBytes / size
	newCap := required
	if capacity <= limit/2 && 2*capacity > newCap {
		newCap = 2 * capacity
	}
	return min(newCap, limit)
}

// CheckPointerFree returns ErrUnsupportedType if T holds Go pointers and
// therefore cannot live in memory the garbage collector does not scan.
func CheckPointerFree[T any]() error {
	if !pointerFree(reflect.TypeFor[T]()) {
		return ErrUnsupportedType
	}
	return nil
}

func pointerFree(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return pointerFree(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !pointerFree(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// castSlice reinterprets b as a slice of T. b must be aligned for T.
func castSlice[T any](b []byte, size int) []T {
	if len(b) < size {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), len(b)/size)
}

// asBytes reinterprets s as its native byte representation.
func asBytes[T any](s []T, size int) []byte {
	if len(s) == 0 || size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*size)
}

// AsBytes returns the native byte representation of s without copying.
// T must be pointer-free.
func AsBytes[T any](s []T) []byte {
	return asBytes(s, sizeOf[T]())
}

// FromBytes reinterprets b as a slice of T without copying. A trailing
// partial element is ignored. T must be pointer-free and b aligned for T.
func FromBytes[T any](b []byte) []T {
	size := sizeOf[T]()
	if size == 0 {
		return nil
	}
	return castSlice[T](b, size)
}
