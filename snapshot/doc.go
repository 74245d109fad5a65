// Package snapshot exports and imports region content to a blobstore.
//
// A snapshot is a 16-byte header followed by the element bytes, optionally
// compressed with LZ4 or ZSTD:
//
//	m, _ := rawmem.NewGlobal[uint64]()
//	_ = rawmem.GrowFilled[uint64](m, 1024, 7)
//
//	store := blobstore.NewLocalStore(dir)
//	_ = snapshot.Save[uint64](ctx, store, "counters.snap", m, snapshot.WithCompression(snapshot.CompressionZSTD))
//
//	restored, _ := rawmem.NewTempFile[uint64]()
//	n, _ := snapshot.Load[uint64](ctx, store, "counters.snap", restored)
//
// Load appends through Grow, so any backend can receive a snapshot.
// Elements are stored in native byte order; snapshots are not portable
// across architectures with different endianness.
package snapshot
