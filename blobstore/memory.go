package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps blobs in memory, mainly for tests.
//
// It follows the same visibility rules as LocalStore: a blob written
// through Create appears only when its writer is closed. Published
// contents are never modified, so open blobs share them without copying.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) publish(name string, data []byte) {
	s.mu.Lock()
	s.blobs[name] = data
	s.mu.Unlock()
}

// Open implements Store. The blob implements Mappable.
func (s *MemoryStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.blobs[name]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return sliceBlob(data), nil
}

// Create implements Store.
func (s *MemoryStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memoryWriter{store: s, name: name}, nil
}

// Put implements Store. data is copied.
func (s *MemoryStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.publish(name, bytes.Clone(data))
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.blobs, name)
	s.mu.Unlock()
	return nil
}

// List implements Store. Names are returned in lexical order.
func (s *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	var names []string
	for name := range s.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	s.mu.RUnlock()
	slices.Sort(names)
	return names, nil
}

// sliceBlob is a read-only view of published bytes.
type sliceBlob []byte

func (b sliceBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return readAt(b, p, off)
}

func (b sliceBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	return readRange(b, off, length)
}

func (b sliceBlob) Size() int64 { return int64(len(b)) }

func (b sliceBlob) Bytes() ([]byte, error) { return b, nil }

func (sliceBlob) Close() error { return nil }

// memoryWriter buffers a blob until Close publishes it.
type memoryWriter struct {
	store  *MemoryStore
	name   string
	buf    bytes.Buffer
	closed bool
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, os.ErrClosed
	}
	return w.buf.Write(p)
}

func (w *memoryWriter) Sync() error {
	if w.closed {
		return os.ErrClosed
	}
	return nil
}

func (w *memoryWriter) Close() error {
	if w.closed {
		return os.ErrClosed
	}
	w.closed = true
	w.store.publish(w.name, w.buf.Bytes())
	return nil
}
