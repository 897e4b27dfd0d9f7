// Command replay reads a WAL directory recorded by cmd/pipeline and
// re-drives the strategy and execution stages against the recorded
// signal stream, for deterministic backtesting of the trading-decision
// core.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yanun0323/dc-trading-pipeline/internal/bus"
	"github.com/yanun0323/dc-trading-pipeline/internal/clock"
	"github.com/yanun0323/dc-trading-pipeline/internal/codec"
	execdomain "github.com/yanun0323/dc-trading-pipeline/internal/execution"
	"github.com/yanun0323/dc-trading-pipeline/internal/pipeline/execution"
	"github.com/yanun0323/dc-trading-pipeline/internal/pipeline/strategy"
	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
	"github.com/yanun0323/dc-trading-pipeline/internal/telemetry"
	"github.com/yanun0323/dc-trading-pipeline/internal/wal"
)

func main() {
	dir := flag.String("dir", "", "WAL directory to replay")
	speed := flag.Float64("speed", 0, "playback speed multiplier (0 = as fast as possible)")
	leverage := flag.Float64("leverage", 1.0, "base leverage factor applied by the strategy stage during replay")
	flag.Parse()

	log := telemetry.NewLogger(telemetry.ComponentPerformance)

	if *dir == "" {
		log.Errorf("fatal: -dir is required")
		os.Exit(1)
	}

	if err := run(*dir, *speed, *leverage, log); err != nil {
		log.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(dir string, speed, leverage float64, log telemetry.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stratStage, err := strategy.NewStage(leverage, strategy.WithIdleStrategy(bus.BusySpinIdleStrategy{}))
	if err != nil {
		return err
	}
	sim := execdomain.NewSimulator(rand.New(rand.NewSource(1)), clock.SystemClock{})
	execStage := execution.NewStage(sim, 100_000, execution.WithIdleStrategy(bus.BusySpinIdleStrategy{}))

	// dcChannel stands in for the strategy stage's normal inbound
	// channel: during replay, decoded WAL records are offered directly
	// onto it instead of arriving from a live market-data stage.
	dcChannel := bus.NewChannel(4096)
	signalToOrder := bus.NewChannel(4096)
	if err := stratStage.Initialize(ctx, dcChannel, signalToOrder, 5*time.Second); err != nil {
		return err
	}
	if err := execStage.Initialize(ctx, signalToOrder, 5*time.Second); err != nil {
		return err
	}
	stratStage.Start()
	execStage.Start()

	err = wal.Replay(ctx, wal.PlaybackConfig{Dir: dir, Speed: speed}, wal.Handlers{
		OnDCSignal: func(signal schema.DCSignal, _ uint64) error {
			dcChannel.Offer(codec.EncodeDCSignal(nil, signal))
			return nil
		},
	})

	// Give in-flight orders a moment to drain before reading final stats.
	time.Sleep(50 * time.Millisecond)
	stratStage.Stop()
	execStage.Stop()

	if err != nil {
		return err
	}

	stats := execStage.Statistics()
	log.Infof("replay complete: total_trades=%d total_pnl=%.2f max_drawdown=%.4f sharpe=%.4f",
		stats.TotalTrades, stats.TotalPnL, stats.MaxDrawdown, stats.SharpeRatio)
	return nil
}
