package rawmem

import (
	"context"
	"errors"
	"math"
	"os"
	"time"

	"github.com/hupe1980/rawmem/internal/conv"
	"github.com/hupe1980/rawmem/internal/mmap"
)

// FileMapped is a region backed by a shared read-write mapping of a file.
//
// The file holds the native bytes of the elements with no header. The
// mapping always covers whole pages; while the region is open the file is
// at least as long as the mapping, and Close truncates it to exactly
// Len()*sizeof(T) bytes.
//
// Grow and Shrink may move the mapping, invalidating slices returned by
// Allocated and AllocatedMut.
type FileMapped[T any] struct {
	file   File
	path   string
	m      *mmap.Mapping
	data   []T // len(data) is the capacity
	length int
	size   int
	closed bool

	// discard skips the final truncate; set for files deleted on close.
	discard bool

	access  AccessPattern
	logger  *Logger
	metrics MetricsCollector
}

// OpenFileMapped opens or creates the file at path and maps it. An existing
// file yields size/sizeof(T) initialized elements; a trailing partial
// element is ignored.
func OpenFileMapped[T any](path string, optFns ...Option) (*FileMapped[T], error) {
	if err := CheckPointerFree[T](); err != nil {
		return nil, err
	}
	o := applyOptions(optFns)
	f, err := o.fs.OpenFile(path, os.O_RDWR|os.O_CREATE, o.fileMode)
	if err != nil {
		return nil, systemError("open", path, err)
	}
	m, err := newFileMapped[T](f, o)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return m, nil
}

// NewFileMapped maps an already open read-write file. The region takes
// ownership of f and closes it on Close.
func NewFileMapped[T any](f File, optFns ...Option) (*FileMapped[T], error) {
	if err := CheckPointerFree[T](); err != nil {
		return nil, err
	}
	return newFileMapped[T](f, applyOptions(optFns))
}

func newFileMapped[T any](f File, o options) (*FileMapped[T], error) {
	path := f.Name()
	fm := &FileMapped[T]{
		file:    f,
		path:    path,
		size:    sizeOf[T](),
		access:  o.access,
		logger:  o.logger.WithBackend("file_mapped").WithPath(path),
		metrics: o.metricsCollector,
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, systemError("stat", path, err)
	}
	fileSize, err := conv.Int64ToInt(fi.Size())
	if err != nil {
		return nil, ErrCapacityOverflow
	}

	if fm.size == 0 {
		fm.data = make([]T, math.MaxInt)
		fm.m, err = mmap.MapFile(f.Fd(), 0, true)
		if err != nil {
			return nil, systemError("mmap", path, err)
		}
		return fm, nil
	}

	mapped, err := pageRound(fileSize)
	if err != nil {
		return nil, err
	}
	if mapped > fileSize {
		if err := f.Truncate(int64(mapped)); err != nil {
			return nil, systemError("truncate", path, err)
		}
	}

	fm.m, err = mmap.MapFile(f.Fd(), mapped, true)
	if err != nil {
		if mapped > fileSize {
			_ = f.Truncate(int64(fileSize))
		}
		return nil, systemError("mmap", path, err)
	}
	fm.length = fileSize / fm.size
	fm.refresh()
	return fm, nil
}

// refresh rebuilds the typed view after the mapping changed.
func (fm *FileMapped[T]) refresh() {
	fm.data = castSlice[T](fm.m.Bytes(), fm.size)
	if fm.access != AccessDefault {
		if err := fm.m.Advise(fm.access); err != nil {
			fm.logger.Warn("advise failed", "error", err)
		}
	}
}

// Path returns the name of the backing file.
func (fm *FileMapped[T]) Path() string {
	return fm.path
}

// Allocated implements ErasedMem.
func (fm *FileMapped[T]) Allocated() []T {
	return fm.data[:fm.length:fm.length]
}

// AllocatedMut implements ErasedMem.
func (fm *FileMapped[T]) AllocatedMut() []T {
	return fm.data[:fm.length:fm.length]
}

// Capacity implements RawMem.
func (fm *FileMapped[T]) Capacity() int {
	return len(fm.data)
}

// Len returns the number of initialized elements.
func (fm *FileMapped[T]) Len() int {
	return fm.length
}

// SizeHint implements ErasedMem.
func (fm *FileMapped[T]) SizeHint() (int, bool) {
	return 0, false
}

// Grow implements ErasedMem. When the mapping is too small the file is
// extended and remapped; on failure both are restored.
func (fm *FileMapped[T]) Grow(addition int, fill Fill[T]) error {
	if fm.closed {
		return ErrClosed
	}
	required, err := checkGrow(fm.length, addition, fm.size)
	if err != nil {
		fm.metrics.RecordGrow(addition, false, err)
		return err
	}

	remapped := required > len(fm.data)
	if remapped {
		if err := fm.remap(required); err != nil {
			fm.metrics.RecordGrow(addition, true, err)
			return err
		}
	}

	initTail(fm.data[fm.length:required], fill)
	fm.length = required
	fm.metrics.RecordGrow(addition, remapped, nil)
	return nil
}

func (fm *FileMapped[T]) remap(required int) error {
	oldBytes := fm.m.Size()
	newCap := nextCapacity(len(fm.data), required, fm.size)
	newBytes, err := pageRound(newCap * fm.size)
	if err != nil {
		// Doubling overshot; fall back to exactly what is needed.
		if newBytes, err = pageRound(required * fm.size); err != nil {
			return err
		}
	}

	start := time.Now()
	err = fm.extendAndMap(oldBytes, newBytes)
	fm.metrics.RecordRemap(oldBytes, newBytes, time.Since(start), err)
	fm.logger.LogRemap(context.Background(), oldBytes, newBytes, err)
	if err != nil {
		return err
	}
	fm.refresh()
	return nil
}

func (fm *FileMapped[T]) extendAndMap(oldBytes, newBytes int) error {
	if err := fm.file.Truncate(int64(newBytes)); err != nil {
		return systemError("truncate", fm.path, err)
	}
	if err := fm.m.Remap(newBytes); err != nil {
		// The old mapping is still in place; put the file length back.
		if terr := fm.file.Truncate(int64(oldBytes)); terr != nil {
			fm.logger.Error("restore file length failed", "error", terr)
		}
		return systemError("mremap", fm.path, err)
	}
	return nil
}

// Shrink implements ErasedMem. The removed tail is zeroed; the file keeps
// its length until Close.
func (fm *FileMapped[T]) Shrink(amount int) error {
	if fm.closed {
		return ErrClosed
	}
	if err := checkShrink(fm.length, amount); err != nil {
		return err
	}
	clear(fm.data[fm.length-amount : fm.length])
	fm.length -= amount
	fm.metrics.RecordShrink(amount)
	fm.logger.LogShrink(context.Background(), amount, fm.length)
	return nil
}

// Sync flushes modified pages to the file.
func (fm *FileMapped[T]) Sync() error {
	if fm.closed {
		return ErrClosed
	}
	return systemError("msync", fm.path, fm.m.Sync())
}

// Advise passes an access hint for the current mapping and every later remap.
func (fm *FileMapped[T]) Advise(p AccessPattern) error {
	if fm.closed {
		return ErrClosed
	}
	fm.access = p
	return systemError("madvise", fm.path, fm.m.Advise(p))
}

// Close implements RawMem. It unmaps, truncates the file to the logical
// length and closes it. Every step runs even if an earlier one fails.
func (fm *FileMapped[T]) Close() error {
	if fm.closed {
		return nil
	}
	fm.closed = true

	var errs []error
	if err := fm.m.Close(); err != nil {
		errs = append(errs, systemError("munmap", fm.path, err))
	}
	// Zero-sized elements have no count to persist; the file is left as found.
	if !fm.discard && fm.size > 0 {
		if err := fm.file.Truncate(int64(fm.length * fm.size)); err != nil {
			errs = append(errs, systemError("truncate", fm.path, err))
		}
	}
	if err := fm.file.Close(); err != nil {
		errs = append(errs, systemError("close", fm.path, err))
	}

	err := errors.Join(errs...)
	fm.metrics.RecordRelease(err)
	fm.logger.LogRelease(context.Background(), fm.length, err)
	fm.data, fm.length = nil, 0
	return err
}
