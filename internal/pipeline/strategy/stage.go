// Package strategy implements the pipeline's second stage: it maps DC
// signals to orders, applying regime-gated leverage and position sizing.
package strategy

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/dc-trading-pipeline/internal/bus"
	"github.com/yanun0323/dc-trading-pipeline/internal/clock"
	"github.com/yanun0323/dc-trading-pipeline/internal/codec"
	"github.com/yanun0323/dc-trading-pipeline/internal/obs"
	"github.com/yanun0323/dc-trading-pipeline/internal/pipeline"
	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
	"github.com/yanun0323/dc-trading-pipeline/internal/telemetry"
	"github.com/yanun0323/dc-trading-pipeline/pkg/xerrors"
)

// baseQuantity is the unleveraged, unscaled order size before regime and
// leverage factors are applied.
const baseQuantity = 100.0

// notionalCap bounds quantity so a single order never exceeds this much
// notional at the signal's price.
const notionalCap = 10_000.0

// Stage is the strategy pipeline stage.
type Stage struct {
	mu         sync.Mutex
	regime     RegimeClassifier
	regimeGate bool
	leverage   float64

	in  *bus.Channel
	out *bus.Channel

	clk   clock.Clock
	idle  bus.IdleStrategy
	log   telemetry.Logger
	trace *telemetry.TraceGenerator

	metrics obs.StrategyMetrics

	running atomic.Bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Stage at construction.
type Option func(*Stage)

// WithClock injects a Clock for deterministic latency measurement in tests.
func WithClock(clk clock.Clock) Option {
	return func(s *Stage) { s.clk = clk }
}

// WithIdleStrategy overrides the default 1ms sleeping idle strategy.
func WithIdleStrategy(idle bus.IdleStrategy) Option {
	return func(s *Stage) { s.idle = idle }
}

// WithTraceGenerator injects the trace-id generator shared across stages.
func WithTraceGenerator(t *telemetry.TraceGenerator) Option {
	return func(s *Stage) { s.trace = t }
}

// WithRegimeGating toggles regime-scaled leverage. When disabled, every
// order is sized at the base leverage factor with no regime adjustment,
// mirroring strategy_settings.enable_hmm=false.
func WithRegimeGating(enabled bool) Option {
	return func(s *Stage) { s.regimeGate = enabled }
}

// NewStage creates a strategy stage with the given base leverage factor.
// leverage must be non-negative. Regime gating is enabled by default;
// pass WithRegimeGating(false) to size every order at plain leverage.
func NewStage(leverage float64, opts ...Option) (*Stage, error) {
	if leverage < 0 {
		return nil, xerrors.ErrInvalidOrder
	}
	s := &Stage{
		leverage:   leverage,
		regimeGate: true,
		clk:        clock.SystemClock{},
		idle:       bus.NewSleepingIdleStrategy(),
		log:        telemetry.NewLogger(telemetry.ComponentStrategy),
		trace:      telemetry.NewTraceGenerator(0),
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initialize wires the stage's inbound and outbound channels and blocks
// until both report connected, or returns TransportInit on timeout.
func (s *Stage) Initialize(ctx context.Context, in, out *bus.Channel, timeout time.Duration) error {
	s.in = in
	s.out = out
	in.Connect()
	out.Connect()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if in.Connected() && out.Connected() {
			return nil
		}
		select {
		case <-ctx.Done():
			return xerrors.ErrTransportInit
		case <-deadline.C:
			return xerrors.ErrTransportInit
		case <-time.After(time.Millisecond):
		}
	}
}

// Start spawns the stage's worker goroutine. It is idempotent.
func (s *Stage) Start() {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warnf("start called on already-running stage")
		return
	}
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run()
}

// Stop signals the worker to exit and joins it. It is idempotent.
func (s *Stage) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	close(s.stop)
	s.wg.Wait()
}

// SetLeverage updates the base leverage factor applied to subsequent
// orders. leverage must be non-negative.
func (s *Stage) SetLeverage(leverage float64) error {
	if leverage < 0 {
		return xerrors.ErrInvalidOrder
	}
	s.mu.Lock()
	s.leverage = leverage
	s.mu.Unlock()
	return nil
}

// Statistics returns a read-only snapshot of the stage's counters.
func (s *Stage) Statistics() obs.StrategySnapshot {
	return s.metrics.Snapshot()
}

func (s *Stage) run() {
	defer s.wg.Done()
	const maxFragments = 64
	for {
		select {
		case <-s.stop:
			return
		default:
		}
		n := s.in.Poll(s.handleFrame, maxFragments)
		if n == bus.PollConnectionLost {
			s.log.Errorf("inbound channel connection lost")
			return
		}
		s.idle.Idle(n)
	}
}

func (s *Stage) handleFrame(frame []byte) {
	start := s.clk.Now()

	signal, ok := codec.DecodeDCSignal(frame)
	if !ok {
		s.log.Errorf("dropped malformed DC signal frame: %d bytes", len(frame))
		return
	}
	s.metrics.IncSignalsProcessed()

	side := decide(signal)
	if side == schema.OrderSideNone {
		return
	}

	s.mu.Lock()
	regime := RegimeUnknown
	if s.regimeGate {
		regime = s.regime.Classify(signal.TmvExt, signal.DurationNs)
	}
	leverage := s.leverage
	s.mu.Unlock()
	s.metrics.SetCurrentMarketState(int32(regime))

	quantity := sizeOrder(baseQuantity, leverage, regime.Factor(), signal.Price)

	now := s.clk.Now()
	processingLatencyNs := clock.ClampNonNegative(now.Sub(start))
	crossStageLatencyNs := clock.ClampNonNegative(time.Duration(now.UnixNano() - signal.TimestampNs))
	order := schema.Order{
		TimestampNs:       signal.TimestampNs,
		Side:              side,
		Price:             signal.Price,
		Quantity:          quantity,
		Symbol:            signal.Symbol,
		StrategyLatencyNs: int64(crossStageLatencyNs),
	}
	s.metrics.ObserveLatency(int64(processingLatencyNs))
	s.metrics.IncOrderGenerated(side == schema.OrderSideBuy)

	traceID := s.trace.Next()
	payload := codec.EncodeOrder(nil, order)
	if !pipeline.OfferWithRetry(s.out, payload) {
		s.log.Errorf("dropped order after back-pressure retry: trace=%d symbol=%s", traceID, order.Symbol.String())
	}
}

// decide implements the direct DC-signal-to-order policy: an Upturn with a
// positive time-adjusted return buys, a Downturn with a negative one
// sells, everything else produces no order.
func decide(signal schema.DCSignal) schema.OrderSide {
	switch {
	case signal.EventType == schema.DCEventUpturn && signal.TimeAdjustedReturn > 0:
		return schema.OrderSideBuy
	case signal.EventType == schema.DCEventDownturn && signal.TimeAdjustedReturn < 0:
		return schema.OrderSideSell
	default:
		return schema.OrderSideNone
	}
}

// sizeOrder applies leverage and regime scaling to the base quantity,
// capping notional exposure at notionalCap unless price is non-positive,
// in which case the cap cannot be evaluated and is skipped.
func sizeOrder(base, leverage, regimeFactor, price float64) float64 {
	scaled := base * leverage * regimeFactor
	if price <= 0 {
		return maxFloat(1, scaled)
	}
	capped := notionalCap / price
	return maxFloat(1, minFloat(scaled, capped))
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
