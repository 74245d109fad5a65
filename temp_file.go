package rawmem

import (
	"errors"
	"os"
	"runtime"
	"sync"
)

// TempFile is a FileMapped region over a temporary file that is removed
// when the region is closed.
type TempFile[T any] struct {
	*FileMapped[T]

	fsys    FileSystem
	once    sync.Once
	err     error
	cleanup runtime.Cleanup
}

// NewTempFile creates a region over a new file in the OS temp directory.
func NewTempFile[T any](optFns ...Option) (*TempFile[T], error) {
	return NewTempFileIn[T]("", optFns...)
}

// NewTempFileIn creates a region over a new file in dir. An empty dir
// means the OS temp directory.
func NewTempFileIn[T any](dir string, optFns ...Option) (*TempFile[T], error) {
	if err := CheckPointerFree[T](); err != nil {
		return nil, err
	}
	o := applyOptions(optFns)
	f, err := o.fs.CreateTemp(dir, "rawmem-*.tmp")
	if err != nil {
		return nil, systemError("create temp", dir, err)
	}
	path := f.Name()

	fm, err := newFileMapped[T](f, o)
	if err != nil {
		_ = f.Close()
		_ = o.fs.Remove(path)
		return nil, err
	}
	fm.discard = true

	t := &TempFile[T]{FileMapped: fm, fsys: o.fs}
	t.cleanup = runtime.AddCleanup(t, releaseTemp[T], tempRelease[T]{fm: fm, fsys: o.fs})
	return t, nil
}

type tempRelease[T any] struct {
	fm   *FileMapped[T]
	fsys FileSystem
}

// releaseTemp runs when a TempFile became unreachable without Close.
func releaseTemp[T any](r tempRelease[T]) {
	err := r.fm.Close()
	if rerr := removeIfExists(r.fsys, r.fm.path); rerr != nil {
		err = errors.Join(err, rerr)
	}
	if err != nil {
		r.fm.logger.Error("temp file cleanup failed", "error", err)
	}
}

func removeIfExists(fsys FileSystem, path string) error {
	if err := fsys.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return systemError("remove", path, err)
	}
	return nil
}

// Close implements RawMem. It releases the mapping and removes the file
// exactly once, regardless of earlier failures.
func (t *TempFile[T]) Close() error {
	t.once.Do(func() {
		t.cleanup.Stop()
		err := t.FileMapped.Close()
		if rerr := removeIfExists(t.fsys, t.path); rerr != nil {
			err = errors.Join(err, rerr)
		}
		t.err = err
	})
	return t.err
}
