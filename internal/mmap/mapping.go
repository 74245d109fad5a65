package mmap

import (
	"io"
	"os"
	"sync/atomic"
)

const anonFd = ^uintptr(0)

// Mapping represents a memory mapping.
// It owns the underlying byte slice and is responsible for unmapping it.
type Mapping struct {
	data     []byte
	fd       uintptr
	writable bool
	closed   atomic.Bool
	// unmap is the platform-specific function to unmap the memory.
	unmap func([]byte) error
}

// PageSize returns the host memory page size.
func PageSize() int {
	return os.Getpagesize()
}

// MapFile maps the first size bytes of the file behind fd as a shared
// mapping. The file must already be at least size bytes long. A zero size
// yields an empty mapping that can be grown later with Remap.
func MapFile(fd uintptr, size int, writable bool) (*Mapping, error) {
	if size < 0 {
		return nil, ErrInvalidSize
	}
	m := &Mapping{fd: fd, writable: writable}
	if size == 0 {
		return m, nil
	}

	data, unmapFunc, err := osMap(fd, size, writable)
	if err != nil {
		return nil, err
	}
	m.data = data
	m.unmap = unmapFunc
	return m, nil
}

// MapAnon creates a private read-write anonymous mapping of size bytes.
// The memory is zero-filled and is not scanned by the garbage collector.
func MapAnon(size int) (*Mapping, error) {
	if size <= 0 {
		return nil, ErrInvalidSize
	}
	data, unmapFunc, err := osMapAnon(size)
	if err != nil {
		return nil, err
	}
	return &Mapping{data: data, fd: anonFd, writable: true, unmap: unmapFunc}, nil
}

// Open maps the file at path into memory as read-only.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close() // the mapping keeps the pages alive

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size < 0 || size > int64(^uint(0)>>1) {
		return nil, ErrInvalidSize
	}
	return MapFile(f.Fd(), int(size), false)
}

// Anonymous reports whether the mapping is not backed by a file.
func (m *Mapping) Anonymous() bool {
	return m.fd == anonFd
}

// Remap resizes the mapping to newSize bytes. The base address may change,
// so slices previously returned by Bytes must be re-fetched. For file-backed
// mappings the file must already cover newSize bytes. On error the previous
// mapping is left intact.
func (m *Mapping) Remap(newSize int) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if newSize < 0 {
		return ErrInvalidSize
	}
	if newSize == len(m.data) {
		return nil
	}

	if newSize == 0 {
		if err := m.release(); err != nil {
			return err
		}
		m.data, m.unmap = nil, nil
		return nil
	}

	if len(m.data) == 0 {
		var (
			data      []byte
			unmapFunc func([]byte) error
			err       error
		)
		if m.Anonymous() {
			data, unmapFunc, err = osMapAnon(newSize)
		} else {
			data, unmapFunc, err = osMap(m.fd, newSize, m.writable)
		}
		if err != nil {
			return err
		}
		m.data, m.unmap = data, unmapFunc
		return nil
	}

	data, unmapFunc, err := osRemap(m, newSize)
	if err != nil {
		return err
	}
	m.data, m.unmap = data, unmapFunc
	return nil
}

// Sync flushes changes of a file-backed mapping to the file.
func (m *Mapping) Sync() error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(m.data) == 0 || m.Anonymous() {
		return nil
	}
	return osSync(m.data)
}

// Close unmaps the memory. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil // Already closed
	}
	err := m.release()
	m.data, m.unmap = nil, nil
	return err
}

func (m *Mapping) release() error {
	if m.unmap != nil && len(m.data) > 0 {
		return m.unmap(m.data)
	}
	return nil
}

// Bytes returns the underlying byte slice.
// Warning: The slice is valid only until the next Remap or Close.
// Accessing the slice afterwards results in undefined behavior (likely a crash).
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the size of the mapping in bytes.
func (m *Mapping) Size() int {
	if m.closed.Load() {
		return 0
	}
	return len(m.data)
}

// Advise provides hints to the kernel about how the memory will be accessed.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if len(m.data) == 0 {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (n int, err error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
