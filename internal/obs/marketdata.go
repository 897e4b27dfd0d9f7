package obs

import "sync/atomic"

// MarketDataMetrics tracks the market-data stage's counters.
type MarketDataMetrics struct {
	messagesProcessed uint64
	dcEventsDetected  uint64
	framesDropped     uint64
	eventsDropped     uint64
	latency           EWMA
}

// MarketDataSnapshot is a read-only view of MarketDataMetrics.
type MarketDataSnapshot struct {
	MessagesProcessed uint64
	DCEventsDetected  uint64
	FramesDropped     uint64
	EventsDropped     uint64
	AvgLatencyNs      int64
	MaxLatencyNs      int64
}

// IncMessagesProcessed records one inbound tick handled.
func (m *MarketDataMetrics) IncMessagesProcessed() {
	atomic.AddUint64(&m.messagesProcessed, 1)
}

// IncDCEventsDetected records one confirmed DC event.
func (m *MarketDataMetrics) IncDCEventsDetected() {
	atomic.AddUint64(&m.dcEventsDetected, 1)
}

// IncFramesDropped records one malformed inbound frame.
func (m *MarketDataMetrics) IncFramesDropped() {
	atomic.AddUint64(&m.framesDropped, 1)
}

// IncEventsDropped records one DC event dropped after exhausting the
// back-pressure retry budget.
func (m *MarketDataMetrics) IncEventsDropped() {
	atomic.AddUint64(&m.eventsDropped, 1)
}

// ObserveLatency folds a per-tick processing latency sample into the EWMA.
func (m *MarketDataMetrics) ObserveLatency(nanos int64) {
	m.latency.Observe(durationOf(nanos))
}

// Snapshot returns a copy of the current counters.
func (m *MarketDataMetrics) Snapshot() MarketDataSnapshot {
	return MarketDataSnapshot{
		MessagesProcessed: atomic.LoadUint64(&m.messagesProcessed),
		DCEventsDetected:  atomic.LoadUint64(&m.dcEventsDetected),
		FramesDropped:     atomic.LoadUint64(&m.framesDropped),
		EventsDropped:     atomic.LoadUint64(&m.eventsDropped),
		AvgLatencyNs:       int64(m.latency.Avg()),
		MaxLatencyNs:       int64(m.latency.Max()),
	}
}
