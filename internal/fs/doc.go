// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: an open file that can be read, written, truncated and mapped
//   - [FileSystem]: filesystem operations (open, create temp, remove, etc.)
//
// # Implementations
//
//   - [LocalFS]: Production implementation using standard os package
//   - [FaultyFS]: Test utility for fault injection (simulate I/O errors)
//
// # Usage
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
//
// Tests can inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".bin", fs.Fault{FailAfterBytes: -1, FailOnTruncate: true})
//	// inject ffs into component under test
//
// A mapping still needs a real descriptor, so wrapped files must come from
// an FS that returns OS files.
package fs
