package biglist

import (
	"fmt"

	"github.com/hupe1980/biglist/internal/container"
	"github.com/hupe1980/biglist/resource"
)

const (
	// DefaultSegmentBits is log2 of the default segment length.
	DefaultSegmentBits = container.DefaultSegmentBits

	// DefaultInitialCapacity is the capacity allocated by the first growth of
	// a list created with New.
	DefaultInitialCapacity = 10
)

type options struct {
	segmentBits      uint
	logger           *Logger
	metricsCollector MetricsCollector
	controller       *resource.Controller
}

// Option configures list construction.
//
// Options are resolved once; a list and everything derived from it (clones,
// decoded copies) share the resolved configuration.
type Option func(*options)

// WithSegmentBits sets log2 of the segment length. Valid values are 1 to 30.
// Small segments are mostly useful to exercise boundary behavior in tests.
//
// Construction panics if bits is out of range.
func WithSegmentBits(bits uint) Option {
	return func(o *options) {
		o.segmentBits = bits
	}
}

// WithLogger sets the logger for capacity and compaction events.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
//
// If nil is passed, metrics are discarded.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithResourceController charges every materialized slot to the controller's
// memory budget. Growth fails with ErrCapacityExceeded when the budget is
// exhausted; released segments are credited back.
//
// A controller may be shared by any number of lists.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

func resolveOptions(opts []Option) *options {
	o := &options{
		segmentBits:      DefaultSegmentBits,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range opts {
		fn(o)
	}
	if o.segmentBits < container.MinSegmentBits || o.segmentBits > container.MaxSegmentBits {
		panic(fmt.Sprintf("biglist: segment bits %d out of range [%d, %d]",
			o.segmentBits, container.MinSegmentBits, container.MaxSegmentBits))
	}
	return o
}

func (o *options) allocator() container.Allocator {
	if o.controller == nil {
		return nil
	}
	return o.controller
}
