package telemetry

import (
	"sync/atomic"
	"time"
)

// TraceGenerator creates monotonically increasing trace IDs that stages
// stamp on their log lines and WAL records. Every call to Next returns a
// fresh ID and no ID is carried in the wire messages, so the IDs that
// different stages take for the same tick are not linked to each other.
type TraceGenerator struct {
	next uint64
}

// NewTraceGenerator returns a generator seeded with the given value, or
// the current time in nanoseconds if seed is 0.
func NewTraceGenerator(seed uint64) *TraceGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	return &TraceGenerator{next: seed}
}

// Next returns the next trace ID.
func (g *TraceGenerator) Next() uint64 {
	if g == nil {
		return 0
	}
	return atomic.AddUint64(&g.next, 1)
}
