// Package conv provides checked integer arithmetic and conversions.
//
// Every byte-size computation in rawmem goes through this package so that an
// overflow is reported before any allocator, file or mapping sees the value.
//
// Use cases:
//   - Element count * element size -> byte length
//   - Rounding byte lengths up to whole host pages
//   - Converting file sizes (int64) to int
//
// For conversions that are provably safe by domain constraints (e.g., loop
// indices, bounded counters), use direct type casts instead to avoid overhead.
package conv
