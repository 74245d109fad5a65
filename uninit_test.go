package rawmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUninit_Operations(t *testing.T) {
	buf := make([]int, 8)
	u := &Uninit[int]{buf: buf}

	assert.Equal(t, 8, u.Len())
	assert.Equal(t, 0, u.Initialized())

	u.Push(7)
	assert.Equal(t, 1, u.Initialized())

	n := u.CopyFrom([]int{1, 2})
	assert.Equal(t, 2, n)
	assert.Equal(t, 5, u.Remaining())

	u.FillWith(func(i int) int { return i * 10 })
	assert.Equal(t, 8, u.Initialized())
	assert.Equal(t, []int{7, 1, 2, 30, 40, 50, 60, 70}, buf)

	assert.Panics(t, func() { u.Push(1) })
	assert.Equal(t, 0, u.CopyFrom([]int{9}))
}

func TestUninit_FillAndZero(t *testing.T) {
	buf := []int{5, 5, 5, 5}
	u := &Uninit[int]{buf: buf}
	u.Push(1)
	u.Zero()
	assert.Equal(t, []int{1, 0, 0, 0}, buf)

	buf = make([]int, 3)
	u = &Uninit[int]{buf: buf}
	u.Fill(4)
	assert.Equal(t, []int{4, 4, 4}, buf)
}

func TestInitTail_Complete(t *testing.T) {
	tail := make([]int, 3)
	initTail(tail, func(u *Uninit[int]) { u.Fill(1) })
	assert.Equal(t, []int{1, 1, 1}, tail)

	// An empty tail needs no callback.
	initTail[int](nil, nil)
}

func TestInitTail_IncompleteFillPanics(t *testing.T) {
	tail := make([]int, 4)
	assert.PanicsWithValue(t, ErrIncompleteFill, func() {
		initTail(tail, func(u *Uninit[int]) {
			u.Push(1)
			u.Push(2)
		})
	})
	// Partially written slots are cleared again.
	assert.Equal(t, []int{0, 0, 0, 0}, tail)

	assert.PanicsWithValue(t, ErrIncompleteFill, func() {
		initTail[int](tail, nil)
	})
}

func TestInitTail_PanicPropagates(t *testing.T) {
	tail := make([]int, 2)
	assert.PanicsWithValue(t, "boom", func() {
		initTail(tail, func(u *Uninit[int]) {
			u.Push(3)
			panic("boom")
		})
	})
	assert.Equal(t, []int{0, 0}, tail)
}

func TestInitTail_ViewNotRetained(t *testing.T) {
	var kept *Uninit[int]
	tail := make([]int, 1)
	initTail(tail, func(u *Uninit[int]) {
		kept = u
		u.Push(1)
	})
	require.NotNil(t, kept)
	assert.Equal(t, 0, kept.Len())
	assert.Panics(t, func() { kept.Push(2) })
	assert.Equal(t, []int{1}, tail)
}

func TestNextCapacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		required int
		size     int
		want     int
	}{
		{"empty", 0, 10, 8, 10},
		{"double", 10, 11, 8, 20},
		{"required wins", 10, 50, 8, 50},
		{"no doubling near limit", MaxBytes/16 + 1, MaxBytes/16 + 2, 8, MaxBytes/16 + 2},
		{"byte elements", 1, 2, 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := nextCapacity(tt.capacity, tt.required, tt.size)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, tt.required)
		})
	}
}

func TestCheckGrow(t *testing.T) {
	required, err := checkGrow(3, 4, 8)
	require.NoError(t, err)
	assert.Equal(t, 7, required)

	_, err = checkGrow(0, MaxBytes, 8)
	assert.ErrorIs(t, err, ErrCapacityOverflow)

	_, err = checkGrow(MaxBytes, 1, 0)
	assert.ErrorIs(t, err, ErrCapacityOverflow)

	// Zero-sized elements only overflow the count.
	required, err = checkGrow(1, MaxBytes-1, 0)
	require.NoError(t, err)
	assert.Equal(t, MaxBytes, required)

	assert.Panics(t, func() { _, _ = checkGrow(0, -1, 8) })
}

func TestCheckPointerFree(t *testing.T) {
	type flat struct {
		A uint32
		B [4]float64
		C struct{ D int8 }
	}
	type withString struct {
		A int
		S string
	}

	assert.NoError(t, CheckPointerFree[uint64]())
	assert.NoError(t, CheckPointerFree[flat]())
	assert.NoError(t, CheckPointerFree[struct{}]())
	assert.NoError(t, CheckPointerFree[[3]complex128]())

	assert.ErrorIs(t, CheckPointerFree[*int](), ErrUnsupportedType)
	assert.ErrorIs(t, CheckPointerFree[string](), ErrUnsupportedType)
	assert.ErrorIs(t, CheckPointerFree[[]byte](), ErrUnsupportedType)
	assert.ErrorIs(t, CheckPointerFree[withString](), ErrUnsupportedType)
	assert.ErrorIs(t, CheckPointerFree[[2]map[int]int](), ErrUnsupportedType)
	assert.ErrorIs(t, CheckPointerFree[any](), ErrUnsupportedType)
}

func TestAsBytesFromBytes(t *testing.T) {
	src := []uint32{1, 2, 3}
	b := AsBytes(src)
	require.Len(t, b, 12)

	back := FromBytes[uint32](b)
	assert.Equal(t, src, back)

	assert.Nil(t, AsBytes([]uint32{}))
	assert.Nil(t, FromBytes[uint32](b[:3]))
	assert.Nil(t, FromBytes[struct{}](b))
}
