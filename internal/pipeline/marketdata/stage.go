// Package marketdata implements the pipeline's first stage: it consumes
// serialized ticks, drives a DC detector, and publishes a DC signal
// whenever the detector confirms an event.
package marketdata

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/dc-trading-pipeline/internal/bus"
	"github.com/yanun0323/dc-trading-pipeline/internal/clock"
	"github.com/yanun0323/dc-trading-pipeline/internal/codec"
	"github.com/yanun0323/dc-trading-pipeline/internal/dc"
	"github.com/yanun0323/dc-trading-pipeline/internal/obs"
	"github.com/yanun0323/dc-trading-pipeline/internal/pipeline"
	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
	"github.com/yanun0323/dc-trading-pipeline/internal/telemetry"
	"github.com/yanun0323/dc-trading-pipeline/internal/wal"
	"github.com/yanun0323/dc-trading-pipeline/pkg/xerrors"
)

// Stage is the market-data pipeline stage. It owns its DC detector
// exclusively: no other component ever touches detector state.
type Stage struct {
	mu       sync.Mutex
	detector *dc.Detector

	in  *bus.Channel
	out *bus.Channel

	clk   clock.Clock
	idle  bus.IdleStrategy
	log   telemetry.Logger
	trace *telemetry.TraceGenerator
	rec   *wal.Writer // optional; nil disables recording

	metrics obs.MarketDataMetrics

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

// WithRecorder attaches a WAL writer that every confirmed DC signal is
// appended to.
func WithRecorder(w *wal.Writer) Option {
	return func(s *Stage) { s.rec = w }
}

// NewStage creates a market-data stage with the given DC threshold.
func NewStage(theta float64, opts ...Option) (*Stage, error) {
	detector, err := dc.NewDetector(theta)
	if err != nil {
		return nil, err
	}
	s := &Stage{
		detector: detector,
		clk:      clock.SystemClock{},
		idle:     bus.NewSleepingIdleStrategy(),
		log:      telemetry.NewLogger(telemetry.ComponentMarketData),
		trace:    telemetry.NewTraceGenerator(0),
		stop:     make(chan struct{}),
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

// Start spawns the stage's worker goroutine. It is idempotent: calling
// Start on an already-running stage logs a warning and returns.
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

// SetThreshold updates the DC detector's theta for subsequent ticks.
func (s *Stage) SetThreshold(theta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.detector.SetTheta(theta)
}

// Statistics returns a read-only snapshot of the stage's counters.
func (s *Stage) Statistics() obs.MarketDataSnapshot {
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
	defer func() {
		elapsed := clock.ClampNonNegative(s.clk.Now().Sub(start))
		s.metrics.ObserveLatency(int64(elapsed))
	}()

	tick, ok := codec.DecodeTick(frame)
	if !ok {
		s.metrics.IncFramesDropped()
		s.log.Errorf("dropped malformed tick frame: %d bytes", len(frame))
		return
	}

	s.mu.Lock()
	event, err := s.detector.ProcessTick(tick.Price, tick.TimestampNs)
	s.mu.Unlock()
	if err != nil {
		s.log.Errorf("invalid tick input: %v", err)
		return
	}
	s.metrics.IncMessagesProcessed()

	if event.Kind == schema.DCEventNone {
		return
	}
	s.metrics.IncDCEventsDetected()

	signal := schema.DCSignal{
		TimestampNs:        event.TimestampNs,
		EventType:          event.Kind,
		Price:              event.Price,
		TmvExt:             event.TmvExt,
		DurationNs:         event.DurationNs,
		TimeAdjustedReturn: event.TimeAdjustedReturn,
		Symbol:             tick.Symbol,
	}
	traceID := s.trace.Next()
	payload := codec.EncodeDCSignal(nil, signal)

	if !pipeline.OfferWithRetry(s.out, payload) {
		s.metrics.IncEventsDropped()
		s.log.Errorf("dropped DC signal after back-pressure retry: trace=%d symbol=%s", traceID, tick.Symbol.String())
		return
	}

	if s.rec != nil {
		if err := s.rec.AppendDCSignal(signal, traceID); err != nil {
			s.log.Errorf("wal append failed: %v", err)
		}
	}
}
