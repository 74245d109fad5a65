package rawmem_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rawmem"
	"github.com/hupe1980/rawmem/internal/fs"
	"github.com/hupe1980/rawmem/testutil"
)

func TestBuffered_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buffered.bin")
	values := testutil.NewRNG(7).Uint64s(3000)

	b, err := rawmem.CreateBuffered[uint64](path)
	require.NoError(t, err)
	assert.False(t, b.IsDirty())

	require.NoError(t, rawmem.GrowFromSlice[uint64](b, values))
	assert.True(t, b.IsDirty())
	require.NoError(t, b.Sync(t.Context()))
	assert.False(t, b.IsDirty())
	require.NoError(t, b.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rawmem.AsBytes(values), raw)

	b, err = rawmem.OpenBuffered[uint64](path)
	require.NoError(t, err)
	defer b.Close()
	assert.Equal(t, values, b.Allocated())
	assert.Equal(t, 3000, b.Len())
	assert.False(t, b.IsDirty())
}

func TestBuffered_DirtyPageWriteBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pages.bin")
	metrics := &rawmem.BasicMetricsCollector{}
	ctrl := rawmem.NewController(rawmem.ControllerConfig{
		MaxBackgroundWorkers: 4,
		IOLimitBytesPerSec:   64 << 20,
	})

	b, err := rawmem.CreateBuffered[uint32](path,
		rawmem.WithPageSize(64),
		rawmem.WithController(ctrl),
		rawmem.WithMetricsCollector(metrics),
	)
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, rawmem.GrowZeroed[uint32](b, 1024))
	require.NoError(t, b.Flush(t.Context()))
	full := metrics.GetStats().SyncBytes
	assert.Equal(t, int64(4096), full)

	// Two far-apart writes dirty exactly two 64-byte pages.
	assert.True(t, b.Set(3, 33))
	assert.True(t, b.Set(900, 99))
	assert.False(t, b.Set(1024, 1))
	assert.True(t, b.IsDirty())
	require.NoError(t, b.Sync(t.Context()))
	assert.Equal(t, full+128, metrics.GetStats().SyncBytes)

	v, ok := b.Get(900)
	assert.True(t, ok)
	assert.Equal(t, uint32(99), v)
	_, ok = b.Get(-1)
	assert.False(t, ok)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	got := rawmem.FromBytes[uint32](raw)
	assert.Equal(t, uint32(33), got[3])
	assert.Equal(t, uint32(99), got[900])
}

func TestBuffered_ShrinkTruncatesOnSync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shrink.bin")
	b, err := rawmem.CreateBuffered[uint64](path)
	require.NoError(t, err)

	require.NoError(t, rawmem.GrowFilled[uint64](b, 100, 5))
	require.NoError(t, b.Sync(context.Background()))

	require.NoError(t, b.Shrink(60))
	assert.True(t, b.IsDirty())
	require.NoError(t, b.Close())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(40*8), info.Size())
	assert.ErrorIs(t, b.Sync(t.Context()), rawmem.ErrClosed)
}

func TestBuffered_WriteFailureKeepsDirty(t *testing.T) {
	ffs := fs.NewFaultyFS(nil)
	ffs.AddRule("fail", fs.Fault{FailAfterBytes: 0})

	b, err := rawmem.CreateBuffered[uint64](filepath.Join(t.TempDir(), "fail.bin"), rawmem.WithFileSystem(ffs))
	require.NoError(t, err)

	require.NoError(t, rawmem.GrowFilled[uint64](b, 10, 1))
	err = b.Sync(t.Context())
	assert.ErrorIs(t, err, rawmem.ErrSystem)
	assert.ErrorIs(t, err, fs.ErrInjected)
	assert.True(t, b.IsDirty())

	// Close still releases the file and reports the failed write-back.
	assert.ErrorIs(t, b.Close(), fs.ErrInjected)
}

func TestBuffered_CanceledSync(t *testing.T) {
	b, err := rawmem.CreateBuffered[uint64](filepath.Join(t.TempDir(), "cancel.bin"),
		rawmem.WithController(rawmem.NewController(rawmem.ControllerConfig{IOLimitBytesPerSec: 1})))
	require.NoError(t, err)

	require.NoError(t, rawmem.GrowZeroed[uint64](b, 512))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	assert.Error(t, b.Sync(ctx))
	assert.True(t, b.IsDirty())

	// Nothing is left to write once the content is gone.
	require.NoError(t, b.Shrink(512))
	require.NoError(t, b.Close())
}
