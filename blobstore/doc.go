// Package blobstore provides named blob storage for region snapshots.
//
// Store is the interface for reading and writing blobs. Implementations
// must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: a local directory; reads are memory mapped, writes are
//     staged in a temporary file and renamed into place
//   - MemoryStore: in-memory, for tests
//
// # Custom Implementations
//
//	type Store interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Blobs that can expose their content without copying implement Mappable.
package blobstore
