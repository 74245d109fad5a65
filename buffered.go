package rawmem

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/rawmem/internal/conv"
	"github.com/hupe1980/rawmem/internal/resource"
)

// Buffered is a region held in memory and written back to a file on Sync.
// Unlike FileMapped it performs explicit I/O and never maps the file.
//
// Modified pages are tracked in a bitmap; Sync writes only those, in
// parallel runs bounded by the Controller's worker limit and throttled by
// its IO limit.
type Buffered[T any] struct {
	mem      *Alloc[T]
	file     File
	path     string
	size     int
	pageSize int

	dirty     *roaring.Bitmap
	persisted int // bytes the file held after the last Sync
	closed    bool

	ctrl    *Controller
	logger  *Logger
	metrics MetricsCollector
}

// CreateBuffered creates or truncates the file at path and returns an
// empty region over it.
func CreateBuffered[T any](path string, optFns ...Option) (*Buffered[T], error) {
	return openBuffered[T](path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, optFns)
}

// OpenBuffered opens or creates the file at path and loads its elements.
func OpenBuffered[T any](path string, optFns ...Option) (*Buffered[T], error) {
	return openBuffered[T](path, os.O_RDWR|os.O_CREATE, optFns)
}

func openBuffered[T any](path string, flag int, optFns []Option) (*Buffered[T], error) {
	if err := CheckPointerFree[T](); err != nil {
		return nil, err
	}
	o := applyOptions(optFns)
	m, err := NewAlloc[T](Global, optFns...)
	if err != nil {
		return nil, err
	}

	f, err := o.fs.OpenFile(path, flag, o.fileMode)
	if err != nil {
		_ = m.Close()
		return nil, systemError("open", path, err)
	}

	b := &Buffered[T]{
		mem:      m,
		file:     f,
		path:     path,
		size:     m.size,
		pageSize: o.pageSize,
		dirty:    roaring.New(),
		ctrl:     o.controller,
		logger:   o.logger.WithBackend("buffered").WithPath(path),
		metrics:  o.metricsCollector,
	}
	if err := b.load(); err != nil {
		_ = m.Close()
		_ = f.Close()
		return nil, err
	}
	return b, nil
}

func (b *Buffered[T]) load() error {
	fi, err := b.file.Stat()
	if err != nil {
		return systemError("stat", b.path, err)
	}
	fileSize, err := conv.Int64ToInt(fi.Size())
	if err != nil {
		return ErrCapacityOverflow
	}
	b.persisted = fileSize
	if b.size == 0 || fileSize < b.size {
		return nil
	}

	var readErr error
	err = b.mem.Grow(fileSize/b.size, func(u *Uninit[T]) {
		buf := asBytes(u.buf, b.size)
		n, err := b.file.ReadAt(buf, 0)
		if n < len(buf) || (err != nil && !errors.Is(err, io.EOF)) {
			readErr = err
			if readErr == nil {
				readErr = io.ErrUnexpectedEOF
			}
		}
		u.n = len(u.buf)
	})
	if err != nil {
		return err
	}
	if readErr != nil {
		return systemError("read", b.path, readErr)
	}
	return nil
}

// Path returns the name of the backing file.
func (b *Buffered[T]) Path() string {
	return b.path
}

// markDirty records the pages covering elements [start, end).
func (b *Buffered[T]) markDirty(start, end int) {
	if start >= end || b.size == 0 {
		return
	}
	first := start * b.size / b.pageSize
	last := (end*b.size - 1) / b.pageSize
	b.dirty.AddRange(uint64(first), uint64(last)+1)
}

// Allocated implements ErasedMem.
func (b *Buffered[T]) Allocated() []T {
	return b.mem.Allocated()
}

// AllocatedMut implements ErasedMem. The whole content is considered
// modified.
func (b *Buffered[T]) AllocatedMut() []T {
	b.markDirty(0, b.mem.length)
	return b.mem.AllocatedMut()
}

// Capacity implements RawMem.
func (b *Buffered[T]) Capacity() int {
	return b.mem.Capacity()
}

// Len returns the number of initialized elements.
func (b *Buffered[T]) Len() int {
	return b.mem.length
}

// SizeHint implements ErasedMem.
func (b *Buffered[T]) SizeHint() (int, bool) {
	return 0, false
}

// Get returns the element at i.
func (b *Buffered[T]) Get(i int) (T, bool) {
	if i < 0 || i >= b.mem.length {
		var zero T
		return zero, false
	}
	return b.mem.data[i], true
}

// Set overwrites the element at i and reports whether i was in range.
func (b *Buffered[T]) Set(i int, v T) bool {
	if b.closed || i < 0 || i >= b.mem.length {
		return false
	}
	b.mem.data[i] = v
	b.markDirty(i, i+1)
	return true
}

// Grow implements ErasedMem.
func (b *Buffered[T]) Grow(addition int, fill Fill[T]) error {
	if b.closed {
		return ErrClosed
	}
	start := b.mem.length
	if err := b.mem.Grow(addition, fill); err != nil {
		return err
	}
	b.markDirty(start, b.mem.length)
	return nil
}

// Shrink implements ErasedMem. The file is truncated on the next Sync.
func (b *Buffered[T]) Shrink(amount int) error {
	if b.closed {
		return ErrClosed
	}
	return b.mem.Shrink(amount)
}

// IsDirty reports whether the file differs from the in-memory content.
func (b *Buffered[T]) IsDirty() bool {
	return !b.dirty.IsEmpty() || b.persisted != b.mem.length*b.size
}

// byteRun is a contiguous dirty byte range.
type byteRun struct {
	off, end int
}

// runs coalesces dirty pages into byte ranges clipped to the logical size.
func (b *Buffered[T]) runs(limit int) []byteRun {
	var out []byteRun
	it := b.dirty.Iterator()
	for it.HasNext() {
		page := int(it.Next())
		off := page * b.pageSize
		if off >= limit {
			break
		}
		end := min(off+b.pageSize, limit)
		if n := len(out); n > 0 && out[n-1].end == off {
			out[n-1].end = end
			continue
		}
		out = append(out, byteRun{off: off, end: end})
	}
	return out
}

// Sync writes modified pages back, sets the file to the logical size and
// flushes it to stable storage.
func (b *Buffered[T]) Sync(ctx context.Context) error {
	if b.closed {
		return ErrClosed
	}
	if !b.IsDirty() {
		return nil
	}

	start := time.Now()
	logical := b.mem.length * b.size
	src := asBytes(b.mem.data[:b.mem.length], b.size)
	runs := b.runs(logical)

	written := 0
	for _, r := range runs {
		written += r.end - r.off
	}

	err := b.writeRuns(ctx, src, runs)
	if err == nil && b.persisted != logical {
		err = systemError("truncate", b.path, b.file.Truncate(int64(logical)))
	}
	if err == nil {
		err = systemError("fsync", b.path, b.file.Sync())
	}

	b.metrics.RecordSync(written, time.Since(start), err)
	b.logger.LogSync(ctx, len(runs), written, err)
	if err != nil {
		return err
	}
	b.dirty.Clear()
	b.persisted = logical
	return nil
}

// Flush is Sync under the name used by write-back call sites.
func (b *Buffered[T]) Flush(ctx context.Context) error {
	return b.Sync(ctx)
}

func (b *Buffered[T]) writeRuns(ctx context.Context, src []byte, runs []byteRun) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.ctrl.MaxBackgroundWorkers())

	w := resource.NewRateLimitedWriterAt(gctx, b.file, b.ctrl)
	for _, r := range runs {
		g.Go(func() error {
			// Slots are shared by every region using the same Controller.
			if err := b.ctrl.AcquireBackground(gctx); err != nil {
				return err
			}
			defer b.ctrl.ReleaseBackground()

			if _, err := w.WriteAt(src[r.off:r.end], int64(r.off)); err != nil {
				return systemError("write", b.path, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close implements RawMem. Pending changes are synced before the file is
// closed; the memory is released even if that fails.
func (b *Buffered[T]) Close() error {
	if b.closed {
		return nil
	}
	length := b.mem.length
	var errs []error
	if err := b.Sync(context.Background()); err != nil {
		errs = append(errs, err)
	}
	b.closed = true
	if err := b.file.Close(); err != nil {
		errs = append(errs, systemError("close", b.path, err))
	}
	errs = append(errs, b.mem.Close())

	err := errors.Join(errs...)
	b.logger.LogRelease(context.Background(), length, err)
	return err
}
