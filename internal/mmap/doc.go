// Package mmap provides memory mappings for rawmem's off-heap and file-backed
// storage.
//
// # Overview
//
// A Mapping owns one contiguous mapped byte range. It can be backed by a file
// (MapFile, read-write and shared, so stores reach the file) or by anonymous
// memory (MapAnon, private, outside the Go garbage collector's control).
//
// # Usage
//
//	m, err := mmap.MapFile(f.Fd(), size, true)
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes()
//
//	// Grow (or shrink) the mapping. The base address may change.
//	if err := m.Remap(newSize); err != nil { ... }
//	data = m.Bytes() // re-fetch after every Remap
//
// # Remapping
//
// On Linux Remap uses mremap(2) with MREMAP_MAYMOVE. Elsewhere a new mapping
// is established first and the old one is released afterwards, so a failed
// Remap leaves the previous mapping intact on every platform. For anonymous
// mappings the previous contents are copied into the new region.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2), mremap(2) on Linux, msync(2), madvise(2)
//   - Windows: CreateFileMapping/MapViewOfFile, VirtualAlloc for anonymous memory
//   - Other platforms: every mapping call returns ErrUnsupported
//
// # Thread Safety
//
// Close is idempotent and guarded by an atomic flag. Remap and Close must not
// run concurrently with each other or with readers of Bytes().
package mmap
