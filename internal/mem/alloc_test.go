package mem

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocAligned(t *testing.T) {
	sizes := []int{1, 10, 63, 64, 65, 100, 1024}
	aligns := []int{1, 2, 8, 16, 64, 4096}

	for _, align := range aligns {
		for _, size := range sizes {
			buf := AllocAligned(size, align)
			assert.Len(t, buf, size)
			assert.Equal(t, size, cap(buf))
			assert.True(t, IsAligned(buf, align), "size %d should be aligned to %d", size, align)
		}
	}

	assert.Nil(t, AllocAligned(0, 8))
	assert.Nil(t, AllocAligned(-1, 8))
}

func TestAllocAligned_DefaultAlignment(t *testing.T) {
	buf := AllocAligned(24, 0)
	assert.Len(t, buf, 24)
	assert.True(t, IsAligned(buf, DefaultAlignment))
}

func TestAllocAligned_Zeroed(t *testing.T) {
	buf := AllocAligned(256, 64)
	for i, b := range buf {
		assert.Zero(t, b, "byte %d", i)
	}
}

func BenchmarkAllocAligned(b *testing.B) {
	sizes := []int{64, 256, 1024, 4096}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("size=%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = AllocAligned(size, 64)
			}
		})
	}
}
