// Package execution implements the pipeline's terminal stage: it consumes
// orders, executes them (simulated or live), and folds every fill into
// the portfolio and performance metrics under a single critical section
// per order.
package execution

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/dc-trading-pipeline/internal/bus"
	"github.com/yanun0323/dc-trading-pipeline/internal/clock"
	"github.com/yanun0323/dc-trading-pipeline/internal/codec"
	domain "github.com/yanun0323/dc-trading-pipeline/internal/execution"
	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
	"github.com/yanun0323/dc-trading-pipeline/internal/telemetry"
	"github.com/yanun0323/dc-trading-pipeline/internal/wal"
	"github.com/yanun0323/dc-trading-pipeline/pkg/xerrors"
)

// Executor is the fill engine a Stage drives. Simulator satisfies it
// directly; live execution is adapted onto it by the caller (submit
// synchronously, then resolve the pending record via LiveExecutor.OnFill
// before returning it here) since the stage's critical section expects
// one record per order.
type Executor interface {
	Execute(order schema.Order, orderID uint64) schema.ExecutionRecord
}

// Stage is the execution pipeline stage.
type Stage struct {
	mu          sync.Mutex
	executor    Executor
	performance *domain.Performance
	history     []schema.ExecutionRecord
	nextOrderID uint64

	in *bus.Channel

	clk   clock.Clock
	idle  bus.IdleStrategy
	log   telemetry.Logger
	trace *telemetry.TraceGenerator
	rec   *wal.Writer // optional; nil disables recording

	running atomic.Bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// Option configures a Stage at construction.
type Option func(*Stage)

// WithClock injects a Clock into the stage. The stage itself takes no
// timestamps from it; the executor's own clock (if any) is configured
// separately and is what execution latency is measured with.
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

// WithRecorder attaches a WAL writer that every execution record is
// appended to.
func WithRecorder(w *wal.Writer) Option {
	return func(s *Stage) { s.rec = w }
}

// NewStage creates an execution stage backed by executor, starting the
// performance tracker at initialCapital.
func NewStage(executor Executor, initialCapital float64, opts ...Option) *Stage {
	s := &Stage{
		executor:    executor,
		performance: domain.NewPerformance(initialCapital),
		clk:         clock.SystemClock{},
		idle:        bus.NewSleepingIdleStrategy(),
		log:         telemetry.NewLogger(telemetry.ComponentExecution),
		trace:       telemetry.NewTraceGenerator(0),
		stop:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize wires the stage's inbound channel and blocks until it
// reports connected, or returns TransportInit on timeout. The execution
// stage is terminal: it has no outbound channel.
func (s *Stage) Initialize(ctx context.Context, in *bus.Channel, timeout time.Duration) error {
	s.in = in
	in.Connect()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if in.Connected() {
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

// Statistics returns a read-only snapshot of the stage's performance
// metrics.
func (s *Stage) Statistics() domain.Snapshot {
	return s.performance.Snapshot()
}

// Portfolio returns a read-only snapshot of the stage's portfolio state.
func (s *Stage) Portfolio() domain.Portfolio {
	return s.performance.PortfolioSnapshot()
}

// History returns a copy of the append-only trade history accumulated so
// far.
func (s *Stage) History() []schema.ExecutionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.ExecutionRecord, len(s.history))
	copy(out, s.history)
	return out
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
	order, ok := codec.DecodeOrder(frame)
	if !ok {
		s.log.Errorf("dropped malformed order frame: %d bytes", len(frame))
		return
	}
	if order.Side != schema.OrderSideBuy && order.Side != schema.OrderSideSell {
		return
	}

	traceID := s.trace.Next()

	// The whole fill + record append + metrics update happens under one
	// critical section per order, per the execution stage's contract.
	s.mu.Lock()
	s.nextOrderID++
	orderID := s.nextOrderID
	record := s.executor.Execute(order, orderID)
	s.performance.RecordFill(record.Side, record.FilledPrice, record.FilledQty, record.ExecutionLatencyNs)
	s.history = append(s.history, record)
	s.mu.Unlock()

	s.log.Infof("filled order=%d trace=%d side=%d price=%.4f qty=%.4f", orderID, traceID, record.Side, record.FilledPrice, record.FilledQty)

	if s.rec != nil {
		if err := s.rec.AppendExecutionRecord(record, traceID); err != nil {
			s.log.Errorf("wal append failed: %v", err)
		}
	}
}
