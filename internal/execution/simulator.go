package execution

import (
	"time"

	"github.com/yanun0323/dc-trading-pipeline/internal/clock"
	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

// minLatency and maxLatency bound the pseudo-latency the simulator
// injects per fill, per the execution stage's simulated-execution spec.
const (
	minLatency  = 10 * time.Microsecond
	maxLatency  = 100 * time.Microsecond
	maxSlippage = 0.0001 // +/- 0.01%
)

// RNG is the random source the simulator needs. *rand.Rand (seeded or
// unseeded) satisfies it, so tests can inject a deterministic source for
// repeatable slippage and latency.
type RNG interface {
	Float64() float64
}

// Simulator fills every order it is given immediately, injecting latency
// and price slippage so the execution stage can be exercised without a
// live venue.
type Simulator struct {
	rng   RNG
	clk   clock.Clock
	sleep func(time.Duration)
}

// SimulatorOption configures a Simulator at construction.
type SimulatorOption func(*Simulator)

// WithSleepFunc overrides the injected-latency sleep, so tests can skip
// real wall-clock delay while still exercising the latency-measurement path.
func WithSleepFunc(sleep func(time.Duration)) SimulatorOption {
	return func(s *Simulator) { s.sleep = sleep }
}

// NewSimulator creates a simulator using rng for latency/slippage draws
// and clk for wall-clock latency measurement.
func NewSimulator(rng RNG, clk clock.Clock, opts ...SimulatorOption) *Simulator {
	s := &Simulator{rng: rng, clk: clk, sleep: time.Sleep}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute fills order synchronously and returns the resulting execution
// record, with execution_latency_ns measured wall-clock across the
// injected latency and slippage draw.
func (s *Simulator) Execute(order schema.Order, orderID uint64) schema.ExecutionRecord {
	start := s.clk.Now()

	latency := minLatency + time.Duration(s.rng.Float64()*float64(maxLatency-minLatency))
	s.sleep(latency)

	slippage := (s.rng.Float64()*2 - 1) * maxSlippage
	filledPrice := order.Price * (1 + slippage)

	elapsed := clock.ClampNonNegative(s.clk.Now().Sub(start))

	return schema.ExecutionRecord{
		TimestampNs:        order.TimestampNs,
		OrderID:            orderID,
		Side:               order.Side,
		FilledPrice:        filledPrice,
		FilledQty:          order.Quantity,
		Status:             schema.ExecutionStatusFilled,
		Symbol:             order.Symbol,
		ExecutionLatencyNs: int64(elapsed),
	}
}
