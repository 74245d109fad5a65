//go:build unix

package mmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAnon_RemapPreservesContent(t *testing.T) {
	page := PageSize()
	m, err := MapAnon(page)
	require.NoError(t, err)
	defer m.Close()

	assert.True(t, m.Anonymous())
	data := m.Bytes()
	for i := range data {
		data[i] = byte(i)
	}

	require.NoError(t, m.Remap(4*page))
	data = m.Bytes()
	require.Len(t, data, 4*page)
	for i := 0; i < page; i++ {
		require.Equal(t, byte(i), data[i], "byte %d", i)
	}
	for i := page; i < 4*page; i++ {
		require.Zero(t, data[i], "byte %d", i)
	}

	// Shrink keeps the prefix.
	require.NoError(t, m.Remap(page))
	data = m.Bytes()
	require.Len(t, data, page)
	assert.Equal(t, byte(7), data[7])
}

func TestMapFile_WriteThroughAndRemap(t *testing.T) {
	page := PageSize()
	path := filepath.Join(t.TempDir(), "rw.bin")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.Truncate(int64(page)))

	m, err := MapFile(f.Fd(), page, true)
	require.NoError(t, err)

	copy(m.Bytes(), "persisted")
	require.NoError(t, m.Sync())
	require.NoError(t, m.Advise(AccessSequential))

	require.NoError(t, f.Truncate(int64(3*page)))
	require.NoError(t, m.Remap(3*page))
	assert.Equal(t, "persisted", string(m.Bytes()[:9]))

	m.Bytes()[2*page] = 0xAB
	require.NoError(t, m.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, raw, 3*page)
	assert.Equal(t, "persisted", string(raw[:9]))
	assert.Equal(t, byte(0xAB), raw[2*page])
}

func TestMapFile_EmptyThenGrow(t *testing.T) {
	page := PageSize()
	path := filepath.Join(t.TempDir(), "empty.bin")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	require.NoError(t, err)
	defer f.Close()

	m, err := MapFile(f.Fd(), 0, true)
	require.NoError(t, err)
	defer m.Close()
	assert.Equal(t, 0, m.Size())

	require.NoError(t, f.Truncate(int64(page)))
	require.NoError(t, m.Remap(page))
	assert.Equal(t, page, m.Size())

	require.NoError(t, m.Remap(0))
	assert.Equal(t, 0, m.Size())
}
