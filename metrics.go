package biglist

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
//	    growCounter   prometheus.Counter
//	    loadHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordGrow(from, to int64, duration time.Duration, err error) {
//	    p.growCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordGrow is called after each capacity increase of a list.
	// from and to are the old and requested capacities, err is nil if successful.
	RecordGrow(from, to int64, duration time.Duration, err error)

	// RecordTrim is called after capacity has been released.
	RecordTrim(from, to int64)

	// RecordCompaction is called after each bulk removal pass.
	// scanned is the number of elements examined, removed the number dropped.
	RecordCompaction(scanned, removed int64, duration time.Duration)

	// RecordSave is called after a list has been written to a blob store.
	RecordSave(count, bytes int64, duration time.Duration, err error)

	// RecordLoad is called after a list has been read from a blob store.
	RecordLoad(count, bytes int64, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordGrow(int64, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordTrim(int64, int64)                       {}
func (NoopMetricsCollector) RecordCompaction(int64, int64, time.Duration)  {}
func (NoopMetricsCollector) RecordSave(int64, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordLoad(int64, int64, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	GrowCount         atomic.Int64
	GrowErrors        atomic.Int64
	GrowTotalNanos    atomic.Int64
	AllocatedSlots    atomic.Int64
	ReleasedSlots     atomic.Int64
	TrimCount         atomic.Int64
	CompactionCount   atomic.Int64
	CompactionScanned atomic.Int64
	CompactionRemoved atomic.Int64
	SaveCount         atomic.Int64
	SaveErrors        atomic.Int64
	SaveBytes         atomic.Int64
	SaveTotalNanos    atomic.Int64
	LoadCount         atomic.Int64
	LoadErrors        atomic.Int64
	LoadBytes         atomic.Int64
	LoadTotalNanos    atomic.Int64
}

// RecordGrow implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGrow(from, to int64, duration time.Duration, err error) {
	b.GrowCount.Add(1)
	b.GrowTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.GrowErrors.Add(1)
		return
	}
	b.AllocatedSlots.Add(to - from)
}

// RecordTrim implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTrim(from, to int64) {
	b.TrimCount.Add(1)
	b.ReleasedSlots.Add(from - to)
}

// RecordCompaction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompaction(scanned, removed int64, duration time.Duration) {
	b.CompactionCount.Add(1)
	b.CompactionScanned.Add(scanned)
	b.CompactionRemoved.Add(removed)
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(count, bytes int64, duration time.Duration, err error) {
	b.SaveCount.Add(1)
	b.SaveTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SaveBytes.Add(bytes)
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(count, bytes int64, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		GrowCount:         b.GrowCount.Load(),
		GrowErrors:        b.GrowErrors.Load(),
		GrowAvgNanos:      avgNanos(b.GrowTotalNanos.Load(), b.GrowCount.Load()),
		AllocatedSlots:    b.AllocatedSlots.Load(),
		ReleasedSlots:     b.ReleasedSlots.Load(),
		TrimCount:         b.TrimCount.Load(),
		CompactionCount:   b.CompactionCount.Load(),
		CompactionScanned: b.CompactionScanned.Load(),
		CompactionRemoved: b.CompactionRemoved.Load(),
		SaveCount:         b.SaveCount.Load(),
		SaveErrors:        b.SaveErrors.Load(),
		SaveBytes:         b.SaveBytes.Load(),
		SaveAvgNanos:      avgNanos(b.SaveTotalNanos.Load(), b.SaveCount.Load()),
		LoadCount:         b.LoadCount.Load(),
		LoadErrors:        b.LoadErrors.Load(),
		LoadBytes:         b.LoadBytes.Load(),
		LoadAvgNanos:      avgNanos(b.LoadTotalNanos.Load(), b.LoadCount.Load()),
	}
}

func avgNanos(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	GrowCount         int64
	GrowErrors        int64
	GrowAvgNanos      int64
	AllocatedSlots    int64
	ReleasedSlots     int64
	TrimCount         int64
	CompactionCount   int64
	CompactionScanned int64
	CompactionRemoved int64
	SaveCount         int64
	SaveErrors        int64
	SaveBytes         int64
	SaveAvgNanos      int64
	LoadCount         int64
	LoadErrors        int64
	LoadBytes         int64
	LoadAvgNanos      int64
}
