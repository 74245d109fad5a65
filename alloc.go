package rawmem

import (
	"context"
	"math"
)

// Alloc is a region in memory obtained from an Allocator.
type Alloc[T any] struct {
	alloc  Allocator
	buf    []byte
	data   []T // len(data) is the capacity
	length int
	size   int
	align  int
	closed bool

	logger  *Logger
	metrics MetricsCollector
}

// NewAlloc returns an empty region whose storage comes from a. T must be
// pointer-free. WithController wraps a in a LimitedAllocator.
func NewAlloc[T any](a Allocator, optFns ...Option) (*Alloc[T], error) {
	if err := CheckPointerFree[T](); err != nil {
		return nil, err
	}
	o := applyOptions(optFns)
	if a == nil {
		a = Global
	}
	if o.controller != nil {
		a = NewLimitedAllocator(a, o.controller)
	}

	m := &Alloc[T]{
		alloc:   a,
		size:    sizeOf[T](),
		align:   alignOf[T](),
		logger:  o.logger.WithBackend("alloc"),
		metrics: o.metricsCollector,
	}
	if m.size == 0 {
		// Zero-sized elements need no storage; make does not allocate for them.
		m.data = make([]T, math.MaxInt)
	}
	return m, nil
}

// NewGlobal returns an empty region on the Go heap.
func NewGlobal[T any](optFns ...Option) (*Alloc[T], error) {
	return NewAlloc[T](Global, optFns...)
}

// NewSystem returns an empty region in off-heap anonymous memory.
func NewSystem[T any](optFns ...Option) (*Alloc[T], error) {
	return NewAlloc[T](System, optFns...)
}

func (m *Alloc[T]) layout(capacity int) Layout {
	return Layout{Size: capacity * m.size, Align: m.align}
}

// Allocated implements ErasedMem.
func (m *Alloc[T]) Allocated() []T {
	return m.data[:m.length:m.length]
}

// AllocatedMut implements ErasedMem.
func (m *Alloc[T]) AllocatedMut() []T {
	return m.data[:m.length:m.length]
}

// Capacity implements RawMem.
func (m *Alloc[T]) Capacity() int {
	return len(m.data)
}

// Len returns the number of initialized elements.
func (m *Alloc[T]) Len() int {
	return m.length
}

// SizeHint implements ErasedMem. Allocator-backed regions are unbounded.
func (m *Alloc[T]) SizeHint() (int, bool) {
	return 0, false
}

// Grow implements ErasedMem.
func (m *Alloc[T]) Grow(addition int, fill Fill[T]) error {
	if m.closed {
		return ErrClosed
	}
	required, err := checkGrow(m.length, addition, m.size)
	if err != nil {
		m.metrics.RecordGrow(addition, false, err)
		return err
	}

	reallocated := required > len(m.data)
	if reallocated {
		if err := m.reserve(required); err != nil {
			m.metrics.RecordGrow(addition, true, err)
			return err
		}
	}

	initTail(m.data[m.length:required], fill)
	m.length = required
	m.metrics.RecordGrow(addition, reallocated, nil)
	return nil
}

// reserve replaces the storage with room for at least required elements.
func (m *Alloc[T]) reserve(required int) error {
	oldCap := len(m.data)
	newCap := nextCapacity(oldCap, required, m.size)
	newLayout := m.layout(newCap)

	var (
		b   []byte
		err error
	)
	if m.buf == nil {
		b, err = m.alloc.Allocate(newLayout)
	} else {
		b, err = m.alloc.Grow(m.buf, m.layout(oldCap), newLayout)
	}
	if err == nil && len(b) < newLayout.Size {
		err = errShortBlock
	}
	if err != nil {
		err = &AllocError{Layout: newLayout, cause: err}
		m.logger.LogGrow(context.Background(), oldCap, newCap, err)
		return err
	}

	m.buf = b
	m.data = castSlice[T](b[:newLayout.Size], m.size)
	m.logger.LogGrow(context.Background(), oldCap, newCap, nil)
	return nil
}

// Shrink implements ErasedMem. Removed elements are zeroed; capacity is kept.
func (m *Alloc[T]) Shrink(amount int) error {
	if m.closed {
		return ErrClosed
	}
	if err := checkShrink(m.length, amount); err != nil {
		return err
	}
	clear(m.data[m.length-amount : m.length])
	m.length -= amount
	m.metrics.RecordShrink(amount)
	m.logger.LogShrink(context.Background(), amount, m.length)
	return nil
}

// ShrinkToFit returns unused capacity to the allocator.
func (m *Alloc[T]) ShrinkToFit() error {
	if m.closed {
		return ErrClosed
	}
	if m.size == 0 || m.buf == nil || m.length == len(m.data) {
		return nil
	}
	oldLayout, newLayout := m.layout(len(m.data)), m.layout(m.length)
	b, err := m.alloc.Shrink(m.buf, oldLayout, newLayout)
	if err != nil {
		return &AllocError{Layout: newLayout, cause: err}
	}
	m.buf = b
	if len(b) == 0 {
		m.buf, m.data = nil, nil
		return nil
	}
	m.data = castSlice[T](b[:newLayout.Size], m.size)
	return nil
}

// Close implements RawMem. The storage is returned to the allocator once.
func (m *Alloc[T]) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if m.buf != nil {
		m.alloc.Deallocate(m.buf, m.layout(len(m.data)))
	}
	length := m.length
	m.buf, m.data, m.length = nil, nil, 0
	m.metrics.RecordRelease(nil)
	m.logger.LogRelease(context.Background(), length, nil)
	return nil
}
