// Package obs provides the atomic counters and latency accumulators each
// pipeline stage exposes through a read-only Statistics() snapshot, pulled
// by a supervisor rather than pushed by cross-stage references.
package obs

import (
	"math"
	"sync/atomic"
	"time"
)

// LatencyStats aggregates duration samples in nanoseconds under atomic
// CAS updates, so a stage can record from its worker goroutine while a
// supervisor snapshots concurrently.
type LatencyStats struct {
	count uint64
	sum   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Max   time.Duration
	Avg   time.Duration
}

// Observe records a duration sample. Negative durations are dropped.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}

// EWMA maintains a fixed 0.1/0.9 exponentially weighted moving average
// of latency samples under a single atomic word.
type EWMA struct {
	bits uint64 // float64 bits of the running average, 0 means "no sample yet"
	max  uint64
}

// Observe folds a sample into the running average and updates the max.
func (e *EWMA) Observe(d time.Duration) time.Duration {
	if d < 0 {
		d = 0
	}
	sample := float64(d)
	for {
		prevBits := atomic.LoadUint64(&e.bits)
		var next float64
		if prevBits == 0 {
			next = sample
		} else {
			prev := math.Float64frombits(prevBits)
			next = prev*0.9 + sample*0.1
		}
		if atomic.CompareAndSwapUint64(&e.bits, prevBits, math.Float64bits(next)) {
			break
		}
	}
	for {
		max := atomic.LoadUint64(&e.max)
		if uint64(d) <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&e.max, max, uint64(d)) {
			break
		}
	}
	return d
}

// Avg returns the current running average.
func (e *EWMA) Avg() time.Duration {
	bits := atomic.LoadUint64(&e.bits)
	return time.Duration(math.Float64frombits(bits))
}

// Max returns the largest sample observed.
func (e *EWMA) Max() time.Duration {
	return time.Duration(atomic.LoadUint64(&e.max))
}
