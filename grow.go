package rawmem

// GrowFilled appends n copies of v.
func GrowFilled[T any](m ErasedMem[T], n int, v T) error {
	return m.Grow(n, func(u *Uninit[T]) { u.Fill(v) })
}

// GrowFromSlice appends a copy of src.
func GrowFromSlice[T any](m ErasedMem[T], src []T) error {
	return m.Grow(len(src), func(u *Uninit[T]) { u.CopyFrom(src) })
}

// GrowWith appends n elements, the i-th produced by producer(i).
func GrowWith[T any](m ErasedMem[T], n int, producer func(i int) T) error {
	return m.Grow(n, func(u *Uninit[T]) { u.FillWith(producer) })
}

// GrowZeroed appends n zero values. The all-zero bit pattern is the zero
// value of every Go type.
func GrowZeroed[T any](m ErasedMem[T], n int) error {
	return m.Grow(n, func(u *Uninit[T]) { u.Zero() })
}

// GrowWithin appends a copy of Allocated()[start:end]. The source is read
// after any relocation caused by the grow. Out-of-range bounds panic.
func GrowWithin[T any](m ErasedMem[T], start, end int) error {
	_ = m.Allocated()[start:end]
	return m.Grow(end-start, func(u *Uninit[T]) {
		// The source lies within the old length, so it never overlaps u.
		u.CopyFrom(m.Allocated()[start:end])
	})
}
