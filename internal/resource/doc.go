// Package resource implements a Controller that enforces shared budgets.
//
// A Controller governs three resources:
//
//   - Memory: bytes reserved by limited allocators (non-blocking, fail-fast)
//   - Concurrency: the number of parallel write-back workers
//   - IO: a token bucket for write-back throughput
//
// # Memory
//
// Memory tracking uses a weighted semaphore for the hard limit and atomic
// counters for usage. AcquireMemory never blocks:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30,
//	})
//
//	if err := rc.AcquireMemory(1 << 20); err != nil {
//	    // ErrMemoryLimitExceeded
//	}
//	defer rc.ReleaseMemory(1 << 20)
//
// # IO Rate Limiting
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 100 << 20,
//	})
//	w := resource.NewRateLimitedWriterAt(ctx, file, rc)
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
