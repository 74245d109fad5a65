package rawmem

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityOverflow is returned when the byte size of a region would exceed MaxBytes.
	ErrCapacityOverflow = errors.New("rawmem: capacity overflow")

	// ErrOverGrow is matched by *OverGrowError.
	ErrOverGrow = errors.New("rawmem: shrink exceeds length")

	// ErrOverAlloc is matched by *OverAllocError.
	ErrOverAlloc = errors.New("rawmem: fixed capacity exhausted")

	// ErrAlloc is matched by *AllocError.
	ErrAlloc = errors.New("rawmem: allocation failed")

	// ErrSystem is matched by *SystemError.
	ErrSystem = errors.New("rawmem: system call failed")

	// ErrUnsupportedType is returned by constructors of byte-backed regions
	// when the element type contains Go pointers.
	ErrUnsupportedType = errors.New("rawmem: element type contains pointers")

	// ErrClosed is returned by operations on a closed region.
	ErrClosed = errors.New("rawmem: region is closed")

	// ErrIncompleteFill is the panic value raised when a fill callback
	// returns before initializing every slot of its view.
	ErrIncompleteFill = errors.New("rawmem: fill left slots uninitialized")
)

// OverGrowError indicates a shrink by more elements than are initialized.
type OverGrowError struct {
	Requested int
	Available int
}

func (e *OverGrowError) Error() string {
	return fmt.Sprintf("rawmem: cannot shrink by %d elements, length is %d", e.Requested, e.Available)
}

func (e *OverGrowError) Is(target error) bool { return target == ErrOverGrow }

// OverAllocError indicates that a fixed-size region cannot hold the requested length.
type OverAllocError struct {
	Requested int
	Available int
}

func (e *OverAllocError) Error() string {
	return fmt.Sprintf("rawmem: need %d elements, fixed capacity is %d", e.Requested, e.Available)
}

func (e *OverAllocError) Is(target error) bool { return target == ErrOverAlloc }

// AllocError reports an allocator failure for the given layout.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type AllocError struct {
	Layout Layout
	cause  error
}

func (e *AllocError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("rawmem: allocation of %d bytes (align %d) failed", e.Layout.Size, e.Layout.Align)
	}
	return fmt.Sprintf("rawmem: allocation of %d bytes (align %d) failed: %v", e.Layout.Size, e.Layout.Align, e.cause)
}

func (e *AllocError) Unwrap() error { return e.cause }

func (e *AllocError) Is(target error) bool { return target == ErrAlloc }

// SystemError wraps an OS error raised while operating on a file or mapping.
type SystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *SystemError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("rawmem: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("rawmem: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *SystemError) Unwrap() error { return e.Err }

func (e *SystemError) Is(target error) bool { return target == ErrSystem }

func systemError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &SystemError{Op: op, Path: path, Err: err}
}
