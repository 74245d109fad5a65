package rawmem_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rawmem"
	"github.com/hupe1980/rawmem/testutil"
)

func TestAlloc_EndToEnd(t *testing.T) {
	m, err := rawmem.NewGlobal[uint64]()
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, rawmem.GrowFilled[uint64](m, 10, 42))
	want := make([]uint64, 10)
	for i := range want {
		want[i] = 42
	}
	assert.Equal(t, want, m.Allocated())

	require.NoError(t, rawmem.GrowFromSlice[uint64](m, []uint64{1, 2, 3}))
	require.Len(t, m.Allocated(), 13)
	assert.Equal(t, []uint64{1, 2, 3}, m.Allocated()[10:])

	require.NoError(t, m.Shrink(5))
	require.Len(t, m.Allocated(), 8)
	assert.Equal(t, want[:8], m.Allocated())
}

func TestAlloc_ConvenienceOperations(t *testing.T) {
	m, err := rawmem.NewGlobal[int32]()
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, rawmem.GrowWith[int32](m, 4, func(i int) int32 { return int32(i * i) }))
	assert.Equal(t, []int32{0, 1, 4, 9}, m.Allocated())

	require.NoError(t, rawmem.GrowZeroed[int32](m, 2))
	assert.Equal(t, []int32{0, 1, 4, 9, 0, 0}, m.Allocated())

	require.NoError(t, rawmem.GrowWithin[int32](m, 1, 4))
	assert.Equal(t, []int32{0, 1, 4, 9, 0, 0, 1, 4, 9}, m.Allocated())

	assert.Panics(t, func() { _ = rawmem.GrowWithin[int32](m, 5, 100) })
	assert.Len(t, m.Allocated(), 9)
}

func TestAlloc_GrowWithinAfterRelocation(t *testing.T) {
	m, err := rawmem.NewGlobal[uint16]()
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, rawmem.GrowFromSlice[uint16](m, []uint16{1, 2, 3, 4}))
	require.Equal(t, 4, m.Capacity())

	// The copy needs more room than the capacity, forcing a relocation.
	require.NoError(t, rawmem.GrowWithin[uint16](m, 0, 4))
	assert.Equal(t, []uint16{1, 2, 3, 4, 1, 2, 3, 4}, m.Allocated())
	assert.GreaterOrEqual(t, m.Capacity(), 8)
}

func TestAlloc_GrowthPolicy(t *testing.T) {
	m, err := rawmem.NewGlobal[uint64]()
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 0, m.Capacity())
	require.NoError(t, rawmem.GrowZeroed[uint64](m, 3))
	assert.Equal(t, 3, m.Capacity())

	require.NoError(t, rawmem.GrowZeroed[uint64](m, 1))
	assert.Equal(t, 6, m.Capacity())

	require.NoError(t, rawmem.GrowZeroed[uint64](m, 20))
	assert.Equal(t, 24, m.Capacity())

	// Shrink keeps the capacity.
	require.NoError(t, m.Shrink(24))
	assert.Equal(t, 24, m.Capacity())
	assert.Empty(t, m.Allocated())
}

func TestAlloc_ShrinkErrors(t *testing.T) {
	m, err := rawmem.NewGlobal[uint64]()
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, rawmem.GrowFromSlice[uint64](m, []uint64{1, 2, 3}))

	err = m.Shrink(4)
	require.ErrorIs(t, err, rawmem.ErrOverGrow)
	var oge *rawmem.OverGrowError
	require.ErrorAs(t, err, &oge)
	assert.Equal(t, 4, oge.Requested)
	assert.Equal(t, 3, oge.Available)
	assert.Equal(t, []uint64{1, 2, 3}, m.Allocated())

	require.NoError(t, m.Shrink(0))
	assert.Panics(t, func() { _ = m.Shrink(-1) })
	assert.Equal(t, []uint64{1, 2, 3}, m.Allocated())
}

func TestAlloc_CapacityOverflow(t *testing.T) {
	m, err := rawmem.NewGlobal[uint64]()
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, rawmem.GrowFilled[uint64](m, 2, 7))

	err = rawmem.GrowFilled[uint64](m, math.MaxInt, 0)
	assert.ErrorIs(t, err, rawmem.ErrCapacityOverflow)

	err = rawmem.GrowZeroed[uint64](m, rawmem.MaxBytes/8)
	assert.ErrorIs(t, err, rawmem.ErrCapacityOverflow)

	assert.Equal(t, []uint64{7, 7}, m.Allocated())
	assert.Equal(t, 2, m.Capacity())
}

func TestAlloc_NegativeAdditionPanics(t *testing.T) {
	m, err := rawmem.NewGlobal[uint64]()
	require.NoError(t, err)
	defer m.Close()

	assert.Panics(t, func() { _ = m.Grow(-1, nil) })
}

func TestAlloc_IncompleteFill(t *testing.T) {
	m, err := rawmem.NewGlobal[uint64]()
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, rawmem.GrowFilled[uint64](m, 1, 5))
	assert.PanicsWithValue(t, rawmem.ErrIncompleteFill, func() {
		_ = m.Grow(3, func(u *rawmem.Uninit[uint64]) { u.Push(1) })
	})
	assert.Equal(t, []uint64{5}, m.Allocated())

	assert.PanicsWithValue(t, "producer failed", func() {
		_ = rawmem.GrowWith[uint64](m, 3, func(i int) uint64 {
			if i == 2 {
				panic("producer failed")
			}
			return uint64(i)
		})
	})
	assert.Equal(t, []uint64{5}, m.Allocated())
}

func TestAlloc_ZeroSized(t *testing.T) {
	m, err := rawmem.NewGlobal[struct{}]()
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, math.MaxInt, m.Capacity())
	require.NoError(t, rawmem.GrowZeroed[struct{}](m, 1_000_000))
	assert.Len(t, m.Allocated(), 1_000_000)
	assert.Equal(t, math.MaxInt, m.Capacity())

	require.NoError(t, m.Shrink(999_999))
	assert.Len(t, m.Allocated(), 1)

	assert.ErrorIs(t, rawmem.GrowZeroed[struct{}](m, math.MaxInt), rawmem.ErrCapacityOverflow)
}

func TestAlloc_UnsupportedType(t *testing.T) {
	_, err := rawmem.NewGlobal[string]()
	assert.ErrorIs(t, err, rawmem.ErrUnsupportedType)

	_, err = rawmem.NewSystem[*int]()
	assert.ErrorIs(t, err, rawmem.ErrUnsupportedType)
}

func TestAlloc_Closed(t *testing.T) {
	metrics := &rawmem.BasicMetricsCollector{}
	m, err := rawmem.NewGlobal[uint64](rawmem.WithMetricsCollector(metrics))
	require.NoError(t, err)

	require.NoError(t, rawmem.GrowFilled[uint64](m, 3, 1))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Empty(t, m.Allocated())
	assert.ErrorIs(t, rawmem.GrowFilled[uint64](m, 1, 1), rawmem.ErrClosed)
	assert.ErrorIs(t, m.Shrink(0), rawmem.ErrClosed)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.ReleaseCount)
	assert.Equal(t, int64(1), stats.GrowCount)
	assert.Equal(t, int64(3), stats.GrowElements)
}

func TestAlloc_ShrinkToFit(t *testing.T) {
	m, err := rawmem.NewGlobal[uint64]()
	require.NoError(t, err)
	defer m.Close()

	require.NoError(t, rawmem.GrowFilled[uint64](m, 16, 3))
	require.NoError(t, m.Shrink(10))
	require.NoError(t, m.ShrinkToFit())
	assert.Equal(t, 6, m.Capacity())
	assert.Equal(t, []uint64{3, 3, 3, 3, 3, 3}, m.Allocated())

	require.NoError(t, m.Shrink(6))
	require.NoError(t, m.ShrinkToFit())
	assert.Equal(t, 0, m.Capacity())

	require.NoError(t, rawmem.GrowFilled[uint64](m, 2, 8))
	assert.Equal(t, []uint64{8, 8}, m.Allocated())
}

func TestAlloc_RandomOperations(t *testing.T) {
	backends := map[string]func() (*rawmem.Alloc[uint64], error){
		"global": func() (*rawmem.Alloc[uint64], error) { return rawmem.NewGlobal[uint64]() },
		"system": func() (*rawmem.Alloc[uint64], error) { return rawmem.NewSystem[uint64]() },
	}

	for name, newMem := range backends {
		t.Run(name, func(t *testing.T) {
			m, err := newMem()
			require.NoError(t, err)
			defer m.Close()

			rng := testutil.NewRNG(4711)
			model := testutil.NewModel[uint64]()
			for _, op := range rng.Ops(300, 700) {
				switch op.Kind {
				case testutil.OpGrow:
					values := rng.Uint64s(op.N)
					require.NoError(t, rawmem.GrowFromSlice[uint64](m, values))
					model.Append(values...)
				case testutil.OpShrink:
					require.NoError(t, m.Shrink(op.N))
					model.Truncate(op.N)
				}
				testutil.CheckRegion(t, model, m.Allocated(), m.Capacity())
			}
		})
	}
}
