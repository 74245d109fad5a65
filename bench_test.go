package rawmem_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rawmem"
)

func BenchmarkGrow(b *testing.B) {
	backends := map[string]func(b *testing.B) rawmem.RawMem[uint64]{
		"global": func(b *testing.B) rawmem.RawMem[uint64] {
			m, err := rawmem.NewGlobal[uint64]()
			require.NoError(b, err)
			return m
		},
		"system": func(b *testing.B) rawmem.RawMem[uint64] {
			m, err := rawmem.NewSystem[uint64]()
			require.NoError(b, err)
			return m
		},
		"temp_file": func(b *testing.B) rawmem.RawMem[uint64] {
			m, err := rawmem.NewTempFileIn[uint64](b.TempDir())
			require.NoError(b, err)
			return m
		},
	}

	for name, newMem := range backends {
		b.Run(name, func(b *testing.B) {
			m := newMem(b)
			defer m.Close()

			b.ReportAllocs()
			for b.Loop() {
				if err := rawmem.GrowFilled[uint64](m, 64, 7); err != nil {
					b.Fatal(err)
				}
				if m.Capacity() > 1<<20 {
					require.NoError(b, m.Shrink(len(m.Allocated())))
				}
			}
		})
	}
}

func BenchmarkBuffered_Sync(b *testing.B) {
	m, err := rawmem.CreateBuffered[uint64](filepath.Join(b.TempDir(), "bench.bin"))
	require.NoError(b, err)
	defer m.Close()
	require.NoError(b, rawmem.GrowZeroed[uint64](m, 1<<16))

	b.ReportAllocs()
	i := 0
	for b.Loop() {
		m.Set(i%m.Len(), uint64(i))
		i += 997
		if err := m.Sync(b.Context()); err != nil {
			b.Fatal(err)
		}
	}
}
