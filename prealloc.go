package rawmem

// PreAlloc is a fixed-size region over a caller-supplied slice. It never
// reallocates: growing past len(buf) fails with an *OverAllocError.
//
// Unlike the byte-backed regions it accepts any element type.
type PreAlloc[T any] struct {
	buf    []T
	length int
	closed bool
}

// NewPreAlloc returns an empty region over buf. The region does not own
// buf; its contents are overwritten by Grow.
func NewPreAlloc[T any](buf []T) *PreAlloc[T] {
	return &PreAlloc[T]{buf: buf[:len(buf):len(buf)]}
}

// Allocated implements ErasedMem.
func (p *PreAlloc[T]) Allocated() []T {
	return p.buf[:p.length:p.length]
}

// AllocatedMut implements ErasedMem.
func (p *PreAlloc[T]) AllocatedMut() []T {
	return p.buf[:p.length:p.length]
}

// Capacity implements RawMem.
func (p *PreAlloc[T]) Capacity() int {
	return len(p.buf)
}

// SizeHint implements ErasedMem and reports the fixed size.
func (p *PreAlloc[T]) SizeHint() (int, bool) {
	return len(p.buf), true
}

// Grow implements ErasedMem.
func (p *PreAlloc[T]) Grow(addition int, fill Fill[T]) error {
	if p.closed {
		return ErrClosed
	}
	required, err := checkGrow(p.length, addition, sizeOf[T]())
	if err != nil {
		return err
	}
	if required > len(p.buf) {
		return &OverAllocError{Requested: required, Available: len(p.buf)}
	}
	initTail(p.buf[p.length:required], fill)
	p.length = required
	return nil
}

// Shrink implements ErasedMem. Removed elements are zeroed so the slice no
// longer keeps what they referenced alive.
func (p *PreAlloc[T]) Shrink(amount int) error {
	if p.closed {
		return ErrClosed
	}
	if err := checkShrink(p.length, amount); err != nil {
		return err
	}
	clear(p.buf[p.length-amount : p.length])
	p.length -= amount
	return nil
}

// Close implements RawMem. It zeroes the content and detaches from buf.
func (p *PreAlloc[T]) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	clear(p.buf[:p.length])
	p.buf, p.length = nil, 0
	return nil
}
