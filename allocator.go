package rawmem

import (
	"context"
	"errors"
	"sync"
	"unsafe"

	"github.com/hupe1980/rawmem/internal/conv"
	"github.com/hupe1980/rawmem/internal/mem"
	"github.com/hupe1980/rawmem/internal/mmap"
	"github.com/hupe1980/rawmem/internal/resource"
)

// Layout describes a byte range request.
type Layout struct {
	Size  int
	Align int
}

// Allocator hands out raw byte ranges. A zero-size layout yields a nil
// slice. Grow and Shrink may relocate; the returned slice replaces old,
// which must not be used afterwards.
type Allocator interface {
	Allocate(layout Layout) ([]byte, error)
	Grow(old []byte, oldLayout, newLayout Layout) ([]byte, error)
	Shrink(old []byte, oldLayout, newLayout Layout) ([]byte, error)
	Deallocate(b []byte, layout Layout)
}

var (
	errInvalidLayout = errors.New("invalid layout")
	errUnknownBlock  = errors.New("block was not allocated by this allocator")
	errShortBlock    = errors.New("allocator returned a short block")
)

func validLayout(l Layout) bool {
	return l.Size >= 0 && l.Align > 0 && l.Align&(l.Align-1) == 0
}

// GoAllocator allocates from the Go heap. It is the process-wide default.
type GoAllocator struct{}

// Global is the process-wide default allocator.
var Global Allocator = GoAllocator{}

// Allocate implements Allocator.
func (GoAllocator) Allocate(layout Layout) ([]byte, error) {
	if !validLayout(layout) {
		return nil, errInvalidLayout
	}
	if layout.Size == 0 {
		return nil, nil
	}
	return mem.AllocAligned(layout.Size, layout.Align), nil
}

// Grow implements Allocator by allocating and copying.
func (a GoAllocator) Grow(old []byte, oldLayout, newLayout Layout) ([]byte, error) {
	if newLayout.Size < oldLayout.Size {
		return nil, errInvalidLayout
	}
	if newLayout.Size <= cap(old) && newLayout.Align <= oldLayout.Align {
		return old[:newLayout.Size:newLayout.Size], nil
	}
	b, err := a.Allocate(newLayout)
	if err != nil {
		return nil, err
	}
	copy(b, old[:oldLayout.Size])
	return b, nil
}

// Shrink implements Allocator by reslicing in place.
func (GoAllocator) Shrink(old []byte, oldLayout, newLayout Layout) ([]byte, error) {
	if newLayout.Size > oldLayout.Size || !validLayout(newLayout) {
		return nil, errInvalidLayout
	}
	if newLayout.Size == 0 {
		return nil, nil
	}
	return old[:newLayout.Size:newLayout.Size], nil
}

// Deallocate implements Allocator. The garbage collector reclaims the block.
func (GoAllocator) Deallocate([]byte, Layout) {}

// SystemAllocator allocates page-aligned anonymous mappings outside the Go
// heap. Blocks are never scanned by the garbage collector.
type SystemAllocator struct {
	mu     sync.Mutex
	blocks map[*byte]*mmap.Mapping
	logger *Logger
}

// NewSystemAllocator returns a SystemAllocator. Unmap failures during
// Deallocate are reported to logger (nil discards them).
func NewSystemAllocator(logger *Logger) *SystemAllocator {
	if logger == nil {
		logger = NoopLogger()
	}
	return &SystemAllocator{
		blocks: make(map[*byte]*mmap.Mapping),
		logger: logger.WithBackend("system_allocator"),
	}
}

// System is the shared platform allocator.
var System = NewSystemAllocator(nil)

func pageRound(size int) (int, error) {
	n, ok := conv.RoundUp(size, mmap.PageSize())
	if !ok {
		return 0, ErrCapacityOverflow
	}
	return n, nil
}

// Allocate implements Allocator.
func (s *SystemAllocator) Allocate(layout Layout) ([]byte, error) {
	if !validLayout(layout) || layout.Align > mmap.PageSize() {
		return nil, errInvalidLayout
	}
	if layout.Size == 0 {
		return nil, nil
	}
	size, err := pageRound(layout.Size)
	if err != nil {
		return nil, err
	}
	m, err := mmap.MapAnon(size)
	if err != nil {
		return nil, err
	}
	b := m.Bytes()

	s.mu.Lock()
	s.blocks[unsafe.SliceData(b)] = m
	s.mu.Unlock()

	return b[:layout.Size:layout.Size], nil
}

func (s *SystemAllocator) lookup(b []byte) (*mmap.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.blocks[unsafe.SliceData(b)]
	if !ok {
		return nil, errUnknownBlock
	}
	return m, nil
}

func (s *SystemAllocator) resize(old []byte, newLayout Layout) ([]byte, error) {
	if newLayout.Size == 0 {
		s.Deallocate(old, Layout{})
		return nil, nil
	}
	if len(old) == 0 {
		return s.Allocate(newLayout)
	}
	m, err := s.lookup(old)
	if err != nil {
		return nil, err
	}
	size, err := pageRound(newLayout.Size)
	if err != nil {
		return nil, err
	}

	oldKey := unsafe.SliceData(m.Bytes())
	if err := m.Remap(size); err != nil {
		return nil, err
	}
	b := m.Bytes()

	s.mu.Lock()
	delete(s.blocks, oldKey)
	s.blocks[unsafe.SliceData(b)] = m
	s.mu.Unlock()

	return b[:newLayout.Size:newLayout.Size], nil
}

// Grow implements Allocator. On Linux the mapping is extended with mremap.
func (s *SystemAllocator) Grow(old []byte, oldLayout, newLayout Layout) ([]byte, error) {
	if newLayout.Size < oldLayout.Size || !validLayout(newLayout) || newLayout.Align > mmap.PageSize() {
		return nil, errInvalidLayout
	}
	return s.resize(old, newLayout)
}

// Shrink implements Allocator. Whole trailing pages are returned to the OS.
func (s *SystemAllocator) Shrink(old []byte, oldLayout, newLayout Layout) ([]byte, error) {
	if newLayout.Size > oldLayout.Size || !validLayout(newLayout) {
		return nil, errInvalidLayout
	}
	return s.resize(old, newLayout)
}

// Deallocate implements Allocator.
func (s *SystemAllocator) Deallocate(b []byte, _ Layout) {
	if len(b) == 0 {
		return
	}
	key := unsafe.SliceData(b)

	s.mu.Lock()
	m, ok := s.blocks[key]
	delete(s.blocks, key)
	s.mu.Unlock()

	if !ok {
		s.logger.Error("deallocate of unknown block")
		return
	}
	if err := m.Close(); err != nil {
		s.logger.LogRelease(context.Background(), len(b), err)
	}
}

// Live returns the number of blocks currently allocated.
func (s *SystemAllocator) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blocks)
}

// LimitedAllocator charges every block against a Controller's memory budget.
// Exceeding the budget is an allocation failure.
type LimitedAllocator struct {
	inner Allocator
	ctrl  *resource.Controller
}

// NewLimitedAllocator wraps inner (Global if nil) with the budget of c.
func NewLimitedAllocator(inner Allocator, c *Controller) *LimitedAllocator {
	if inner == nil {
		inner = Global
	}
	return &LimitedAllocator{inner: inner, ctrl: c}
}

// Allocate implements Allocator.
func (l *LimitedAllocator) Allocate(layout Layout) ([]byte, error) {
	if err := l.ctrl.AcquireMemory(int64(layout.Size)); err != nil {
		return nil, err
	}
	b, err := l.inner.Allocate(layout)
	if err != nil {
		l.ctrl.ReleaseMemory(int64(layout.Size))
		return nil, err
	}
	return b, nil
}

// Grow implements Allocator.
func (l *LimitedAllocator) Grow(old []byte, oldLayout, newLayout Layout) ([]byte, error) {
	return l.resize(old, oldLayout, newLayout, l.inner.Grow)
}

// Shrink implements Allocator.
func (l *LimitedAllocator) Shrink(old []byte, oldLayout, newLayout Layout) ([]byte, error) {
	return l.resize(old, oldLayout, newLayout, l.inner.Shrink)
}

func (l *LimitedAllocator) resize(old []byte, oldLayout, newLayout Layout, fn func([]byte, Layout, Layout) ([]byte, error)) ([]byte, error) {
	oldSize, newSize := int64(oldLayout.Size), int64(newLayout.Size)
	if newSize <= oldSize {
		// Released only after the inner allocator succeeded, so a failure
		// leaves the reservation untouched.
		b, err := fn(old, oldLayout, newLayout)
		if err != nil {
			return nil, err
		}
		l.ctrl.ReleaseMemory(oldSize - newSize)
		return b, nil
	}

	if err := l.ctrl.AcquireMemory(newSize - oldSize); err != nil {
		return nil, err
	}
	b, err := fn(old, oldLayout, newLayout)
	if err != nil {
		l.ctrl.ReleaseMemory(newSize - oldSize)
		return nil, err
	}
	return b, nil
}

// Deallocate implements Allocator.
func (l *LimitedAllocator) Deallocate(b []byte, layout Layout) {
	l.inner.Deallocate(b, layout)
	l.ctrl.ReleaseMemory(int64(layout.Size))
}
