package rawmem

// Box owns a region of any backend behind the backend-independent
// ErasedMem view. Calls are forwarded unchanged.
type Box[T any] struct {
	mem    RawMem[T]
	closed bool
}

var _ ErasedMem[int] = (*Box[int])(nil)

// NewBox takes ownership of m.
func NewBox[T any](m RawMem[T]) *Box[T] {
	return &Box[T]{mem: m}
}

// Allocated implements ErasedMem.
func (b *Box[T]) Allocated() []T { return b.mem.Allocated() }

// AllocatedMut implements ErasedMem.
func (b *Box[T]) AllocatedMut() []T { return b.mem.AllocatedMut() }

// Grow implements ErasedMem.
func (b *Box[T]) Grow(addition int, fill Fill[T]) error { return b.mem.Grow(addition, fill) }

// Shrink implements ErasedMem.
func (b *Box[T]) Shrink(amount int) error { return b.mem.Shrink(amount) }

// SizeHint implements ErasedMem.
func (b *Box[T]) SizeHint() (int, bool) { return b.mem.SizeHint() }

// GrowFilled appends n copies of v.
func (b *Box[T]) GrowFilled(n int, v T) error { return GrowFilled[T](b, n, v) }

// GrowFromSlice appends a copy of src.
func (b *Box[T]) GrowFromSlice(src []T) error { return GrowFromSlice[T](b, src) }

// GrowWith appends n elements produced by producer.
func (b *Box[T]) GrowWith(n int, producer func(i int) T) error {
	return GrowWith[T](b, n, producer)
}

// GrowZeroed appends n zeroed elements.
func (b *Box[T]) GrowZeroed(n int) error { return GrowZeroed[T](b, n) }

// Close ends ownership and closes the boxed region once.
func (b *Box[T]) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.mem.Close()
}
