package rawmem

import (
	"log/slog"
	"os"

	"github.com/hupe1980/rawmem/internal/fs"
	"github.com/hupe1980/rawmem/internal/mmap"
	"github.com/hupe1980/rawmem/internal/resource"
)

// FileSystem abstracts the file operations used by file-backed regions.
type FileSystem = fs.FileSystem

// File is an open file that can back a region.
type File = fs.File

// LocalFS is the FileSystem backed by the os package.
type LocalFS = fs.LocalFS

// Controller enforces shared memory, worker and IO budgets.
type Controller = resource.Controller

// ControllerConfig holds the limits of a Controller.
type ControllerConfig = resource.Config

// NewController creates a Controller with the given limits.
func NewController(cfg ControllerConfig) *Controller {
	return resource.NewController(cfg)
}

// AccessPattern is a paging hint for mapped regions.
type AccessPattern = mmap.AccessPattern

const (
	AccessDefault    = mmap.AccessDefault
	AccessSequential = mmap.AccessSequential
	AccessRandom     = mmap.AccessRandom
	AccessWillNeed   = mmap.AccessWillNeed
	AccessDontNeed   = mmap.AccessDontNeed
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	fs               FileSystem
	controller       *Controller
	access           AccessPattern
	fileMode         os.FileMode
	pageSize         int
}

// Option configures a region constructor.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &rawmem.BasicMetricsCollector{}
//	m, _ := rawmem.NewGlobal[uint64](rawmem.WithMetricsCollector(metrics))
//	// ... use m ...
//	stats := metrics.GetStats()
//	fmt.Printf("Grows: %d, Reallocations: %d\n", stats.GrowCount, stats.Reallocations)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := rawmem.NewJSONLogger(slog.LevelDebug)
//	m, _ := rawmem.OpenFileMapped[float32]("vectors.bin", rawmem.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithFileSystem sets the FileSystem used by file-backed regions.
// Files it returns must expose a real descriptor through Fd.
func WithFileSystem(fsys FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fs = fsys
	}
}

// WithController charges allocations against c's memory budget and
// throttles buffered write-back with its worker and IO limits.
func WithController(c *Controller) Option {
	return func(o *options) {
		o.controller = c
	}
}

// WithAccessPattern passes a paging hint to mapped regions after every (re)map.
func WithAccessPattern(p AccessPattern) Option {
	return func(o *options) {
		o.access = p
	}
}

// WithFileMode sets the permission bits of files created by OpenFileMapped
// and CreateBuffered. The default is 0o644.
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) {
		o.fileMode = mode
	}
}

// WithPageSize sets the dirty-tracking granularity of buffered regions in
// bytes. The default is the host page size.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		fs:               fs.Default,
		fileMode:         0o644,
		pageSize:         mmap.PageSize(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
