package rawmem

// Uninit is a write-only view over slots that are not yet part of a
// region's content. Slots are written strictly in order; Initialized
// reports how many have been written.
//
// A view is only valid inside the Fill callback it was passed to.
type Uninit[T any] struct {
	buf []T
	n   int
}

// Len returns the number of slots in the view.
func (u *Uninit[T]) Len() int { return len(u.buf) }

// Initialized returns the number of slots written so far.
func (u *Uninit[T]) Initialized() int { return u.n }

// Remaining returns the number of slots still to be written.
func (u *Uninit[T]) Remaining() int { return len(u.buf) - u.n }

// Push writes v into the next slot. It panics if the view is full.
func (u *Uninit[T]) Push(v T) {
	if u.n >= len(u.buf) {
		panic("rawmem: push on a full Uninit view")
	}
	u.buf[u.n] = v
	u.n++
}

// Fill writes v into every remaining slot.
func (u *Uninit[T]) Fill(v T) {
	for i := u.n; i < len(u.buf); i++ {
		u.buf[i] = v
	}
	u.n = len(u.buf)
}

// FillWith writes f(i) into every remaining slot, where i is the slot
// index counted from the start of the view.
func (u *Uninit[T]) FillWith(f func(i int) T) {
	for u.n < len(u.buf) {
		u.buf[u.n] = f(u.n)
		u.n++
	}
}

// CopyFrom copies as many elements of src as fit and returns the count.
func (u *Uninit[T]) CopyFrom(src []T) int {
	n := copy(u.buf[u.n:], src)
	u.n += n
	return n
}

// Zero writes the zero value into every remaining slot.
func (u *Uninit[T]) Zero() {
	clear(u.buf[u.n:])
	u.n = len(u.buf)
}

// initTail runs fill over tail. It returns normally only if every slot was
// written; otherwise the written slots are cleared again and the panic (or
// ErrIncompleteFill) propagates.
func initTail[T any](tail []T, fill Fill[T]) {
	u := &Uninit[T]{buf: tail}
	done := false
	defer func() {
		if !done {
			clear(tail[:u.n])
		}
		u.buf, u.n = nil, 0
	}()

	if fill != nil {
		fill(u)
	}
	if u.n != len(tail) {
		panic(ErrIncompleteFill)
	}
	done = true
}
