package obs

import "sync/atomic"

// StrategyMetrics tracks the strategy stage's counters.
type StrategyMetrics struct {
	signalsProcessed uint64
	ordersGenerated  uint64
	buySignals       uint64
	sellSignals      uint64
	currentRegime    int32
	latency          EWMA
}

// StrategySnapshot is a read-only view of StrategyMetrics.
type StrategySnapshot struct {
	SignalsProcessed   uint64
	OrdersGenerated    uint64
	BuySignals         uint64
	SellSignals        uint64
	CurrentMarketState int32
	AvgLatencyNs       int64
	MaxLatencyNs       int64
}

// IncSignalsProcessed records one DC signal handled.
func (m *StrategyMetrics) IncSignalsProcessed() {
	atomic.AddUint64(&m.signalsProcessed, 1)
}

// IncOrderGenerated records one order emitted, tagged by side.
func (m *StrategyMetrics) IncOrderGenerated(buy bool) {
	atomic.AddUint64(&m.ordersGenerated, 1)
	if buy {
		atomic.AddUint64(&m.buySignals, 1)
	} else {
		atomic.AddUint64(&m.sellSignals, 1)
	}
}

// ObserveLatency folds a strategy decision latency sample into the EWMA.
func (m *StrategyMetrics) ObserveLatency(nanos int64) {
	m.latency.Observe(durationOf(nanos))
}

// SetCurrentMarketState records the regime classifier's current output.
// The value is an opaque ordinal (0=unknown) owned by the caller; obs
// does not interpret it, only reports it back through Snapshot.
func (m *StrategyMetrics) SetCurrentMarketState(state int32) {
	atomic.StoreInt32(&m.currentRegime, state)
}

// Snapshot returns a copy of the current counters.
func (m *StrategyMetrics) Snapshot() StrategySnapshot {
	return StrategySnapshot{
		SignalsProcessed:   atomic.LoadUint64(&m.signalsProcessed),
		OrdersGenerated:    atomic.LoadUint64(&m.ordersGenerated),
		BuySignals:         atomic.LoadUint64(&m.buySignals),
		SellSignals:        atomic.LoadUint64(&m.sellSignals),
		CurrentMarketState: atomic.LoadInt32(&m.currentRegime),
		AvgLatencyNs:       int64(m.latency.Avg()),
		MaxLatencyNs:       int64(m.latency.Max()),
	}
}
