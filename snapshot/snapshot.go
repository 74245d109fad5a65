package snapshot

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unsafe"

	"github.com/hupe1980/rawmem"
	"github.com/hupe1980/rawmem/blobstore"
	"github.com/hupe1980/rawmem/internal/conv"
)

const (
	// Magic identifies a snapshot blob.
	Magic = "RMEM"
	// Version is the current header version.
	Version = 1
	// HeaderSize is the encoded header length in bytes.
	HeaderSize = 16
)

var (
	// ErrInvalidSnapshot is returned for blobs that are not well-formed snapshots.
	ErrInvalidSnapshot = errors.New("snapshot: invalid snapshot")

	// ErrElementSize is returned when a snapshot was written for elements
	// of a different size.
	ErrElementSize = errors.New("snapshot: element size mismatch")
)

// Header describes a snapshot payload.
//
// Layout (little-endian):
//
//	[0:4)   magic "RMEM"
//	[4]     version
//	[5]     compression
//	[6:8)   element size
//	[8:16)  element count
type Header struct {
	Version     uint8
	Compression Compression
	ElemSize    uint16
	Count       uint64
}

// MarshalBinary encodes the header.
func (h Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, HeaderSize)
	copy(b, Magic)
	b[4] = h.Version
	b[5] = byte(h.Compression)
	binary.LittleEndian.PutUint16(b[6:], h.ElemSize)
	binary.LittleEndian.PutUint64(b[8:], h.Count)
	return b, nil
}

// UnmarshalBinary decodes the header.
func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return fmt.Errorf("%w: header too short (%d bytes)", ErrInvalidSnapshot, len(b))
	}
	if string(b[:4]) != Magic {
		return fmt.Errorf("%w: bad magic %q", ErrInvalidSnapshot, b[:4])
	}
	h.Version = b[4]
	if h.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, h.Version)
	}
	h.Compression = Compression(b[5])
	h.ElemSize = binary.LittleEndian.Uint16(b[6:])
	h.Count = binary.LittleEndian.Uint64(b[8:])
	return nil
}

// Options configures Save and Load.
type Options struct {
	Compression Compression
	Logger      *rawmem.Logger
}

// Option configures snapshot operations.
type Option func(*Options)

// WithCompression selects the payload codec used by Save.
func WithCompression(c Compression) Option {
	return func(o *Options) {
		o.Compression = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *rawmem.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

func applyOptions(opts []Option) Options {
	o := Options{
		Compression: CompressionNone,
		Logger:      rawmem.NoopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func elemSize[T any]() (uint16, error) {
	var zero T
	size := unsafe.Sizeof(zero)
	if size > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d bytes does not fit the header", ErrElementSize, size)
	}
	return uint16(size), nil
}

// Save writes the initialized content of m to the blob name.
// T must be pointer-free. Elements are stored in native byte order.
func Save[T any](ctx context.Context, store blobstore.Store, name string, m rawmem.ErasedMem[T], opts ...Option) error {
	if err := rawmem.CheckPointerFree[T](); err != nil {
		return err
	}
	size, err := elemSize[T]()
	if err != nil {
		return err
	}
	o := applyOptions(opts)

	items := m.Allocated()
	payload, codec, err := compress(rawmem.AsBytes(items), o.Compression)
	if err != nil {
		return err
	}

	hdr, _ := Header{
		Version:     Version,
		Compression: codec,
		ElemSize:    size,
		Count:       uint64(len(items)),
	}.MarshalBinary()

	w, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(hdr); err != nil {
		_ = w.Close()
		return err
	}
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	o.Logger.DebugContext(ctx, "snapshot saved",
		"name", name,
		"elements", len(items),
		"compression", codec.String(),
		"bytes", HeaderSize+len(payload),
	)
	return nil
}

// Stat reads the header of the blob name.
func Stat(ctx context.Context, store blobstore.Store, name string) (Header, error) {
	var h Header

	b, err := store.Open(ctx, name)
	if err != nil {
		return h, err
	}
	defer b.Close()

	buf := make([]byte, HeaderSize)
	n, err := b.ReadAt(ctx, buf, 0)
	if n < HeaderSize && err != nil && !errors.Is(err, io.EOF) {
		return h, err
	}
	if err := h.UnmarshalBinary(buf[:n]); err != nil {
		return h, err
	}
	return h, nil
}

// Load appends the elements stored in the blob name to m. On error m is
// left unchanged. Load returns the number of elements appended.
func Load[T any](ctx context.Context, store blobstore.Store, name string, m rawmem.ErasedMem[T], opts ...Option) (int, error) {
	if err := rawmem.CheckPointerFree[T](); err != nil {
		return 0, err
	}
	size, err := elemSize[T]()
	if err != nil {
		return 0, err
	}
	o := applyOptions(opts)

	b, err := store.Open(ctx, name)
	if err != nil {
		return 0, err
	}
	defer b.Close()

	data, err := blobstore.ReadAll(ctx, b)
	if err != nil {
		return 0, err
	}

	var h Header
	if err := h.UnmarshalBinary(data); err != nil {
		return 0, err
	}
	if h.ElemSize != size {
		return 0, fmt.Errorf("%w: snapshot has %d bytes, element type has %d", ErrElementSize, h.ElemSize, size)
	}
	if h.Count > math.MaxInt {
		return 0, rawmem.ErrCapacityOverflow
	}
	count := int(h.Count)
	total, ok := conv.MulInt(count, int(size))
	if !ok {
		return 0, rawmem.ErrCapacityOverflow
	}
	payload := data[HeaderSize:]
	if limit, ok := maxDecodedSize(len(payload), h.Compression); !ok || total > limit ||
		(h.Compression == CompressionNone && len(payload) != total) {
		return 0, fmt.Errorf("%w: payload has %d bytes, header declares %d", ErrInvalidSnapshot, len(payload), total)
	}

	// Decode into a typed slice so the bytes are aligned for T.
	items := make([]T, count)
	if err := decompress(payload, rawmem.AsBytes(items), h.Compression); err != nil {
		return 0, fmt.Errorf("%w: %s payload: %w", ErrInvalidSnapshot, h.Compression, err)
	}

	if err := rawmem.GrowFromSlice(m, items); err != nil {
		return 0, err
	}

	o.Logger.DebugContext(ctx, "snapshot loaded",
		"name", name,
		"elements", count,
		"compression", h.Compression.String(),
	)
	return count, nil
}
