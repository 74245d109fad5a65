package rawmem

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    growCounter    prometheus.Counter
//	    remapHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordGrow(elements int, reallocated bool, err error) {
//	    p.growCounter.Inc()
//	}
type MetricsCollector interface {
	// RecordGrow is called after each Grow. reallocated reports whether new
	// backing storage was requested.
	RecordGrow(elements int, reallocated bool, err error)

	// RecordShrink is called after each successful Shrink.
	RecordShrink(elements int)

	// RecordRemap is called after each attempt to resize backing storage.
	RecordRemap(oldBytes, newBytes int, duration time.Duration, err error)

	// RecordRelease is called once per region when its resources are released.
	RecordRelease(err error)

	// RecordSync is called after each write-back of a buffered file.
	RecordSync(bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordGrow(int, bool, error)                {}
func (NoopMetricsCollector) RecordShrink(int)                           {}
func (NoopMetricsCollector) RecordRemap(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRelease(error)                        {}
func (NoopMetricsCollector) RecordSync(int, time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	GrowCount       atomic.Int64
	GrowErrors      atomic.Int64
	GrowElements    atomic.Int64
	Reallocations   atomic.Int64
	ShrinkCount     atomic.Int64
	ShrinkElements  atomic.Int64
	RemapCount      atomic.Int64
	RemapErrors     atomic.Int64
	RemapTotalNanos atomic.Int64
	ReleaseCount    atomic.Int64
	ReleaseErrors   atomic.Int64
	SyncCount       atomic.Int64
	SyncErrors      atomic.Int64
	SyncBytes       atomic.Int64
}

// RecordGrow implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGrow(elements int, reallocated bool, err error) {
	b.GrowCount.Add(1)
	if err != nil {
		b.GrowErrors.Add(1)
		return
	}
	b.GrowElements.Add(int64(elements))
	if reallocated {
		b.Reallocations.Add(1)
	}
}

// RecordShrink implements MetricsCollector.
func (b *BasicMetricsCollector) RecordShrink(elements int) {
	b.ShrinkCount.Add(1)
	b.ShrinkElements.Add(int64(elements))
}

// RecordRemap implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemap(_, _ int, duration time.Duration, err error) {
	b.RemapCount.Add(1)
	b.RemapTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RemapErrors.Add(1)
	}
}

// RecordRelease implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRelease(err error) {
	b.ReleaseCount.Add(1)
	if err != nil {
		b.ReleaseErrors.Add(1)
	}
}

// RecordSync implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSync(bytes int, _ time.Duration, err error) {
	b.SyncCount.Add(1)
	if err != nil {
		b.SyncErrors.Add(1)
		return
	}
	b.SyncBytes.Add(int64(bytes))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		GrowCount:      b.GrowCount.Load(),
		GrowErrors:     b.GrowErrors.Load(),
		GrowElements:   b.GrowElements.Load(),
		Reallocations:  b.Reallocations.Load(),
		ShrinkCount:    b.ShrinkCount.Load(),
		ShrinkElements: b.ShrinkElements.Load(),
		RemapCount:     b.RemapCount.Load(),
		RemapErrors:    b.RemapErrors.Load(),
		RemapAvgNanos:  b.avgRemapNanos(),
		ReleaseCount:   b.ReleaseCount.Load(),
		ReleaseErrors:  b.ReleaseErrors.Load(),
		SyncCount:      b.SyncCount.Load(),
		SyncErrors:     b.SyncErrors.Load(),
		SyncBytes:      b.SyncBytes.Load(),
	}
}

func (b *BasicMetricsCollector) avgRemapNanos() int64 {
	count := b.RemapCount.Load()
	if count == 0 {
		return 0
	}
	return b.RemapTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	GrowCount      int64
	GrowErrors     int64
	GrowElements   int64
	Reallocations  int64
	ShrinkCount    int64
	ShrinkElements int64
	RemapCount     int64
	RemapErrors    int64
	RemapAvgNanos  int64
	ReleaseCount   int64
	ReleaseErrors  int64
	SyncCount      int64
	SyncErrors     int64
	SyncBytes      int64
}
