// Command pipeline runs the three-stage directional-change trading
// pipeline end to end: market-data ingestion, strategy decisioning, and
// simulated (or live) execution, wired together over in-process channels.
package main

import (
	"bufio"
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yanun0323/dc-trading-pipeline/internal/bus"
	"github.com/yanun0323/dc-trading-pipeline/internal/clock"
	"github.com/yanun0323/dc-trading-pipeline/internal/codec"
	"github.com/yanun0323/dc-trading-pipeline/internal/config"
	execdomain "github.com/yanun0323/dc-trading-pipeline/internal/execution"
	"github.com/yanun0323/dc-trading-pipeline/internal/pipeline"
	"github.com/yanun0323/dc-trading-pipeline/internal/pipeline/execution"
	"github.com/yanun0323/dc-trading-pipeline/internal/pipeline/marketdata"
	"github.com/yanun0323/dc-trading-pipeline/internal/pipeline/strategy"
	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
	"github.com/yanun0323/dc-trading-pipeline/internal/telemetry"
	"github.com/yanun0323/dc-trading-pipeline/internal/wal"
)

func main() {
	configPath := flag.String("config", "config/system_config.json", "path to the pipeline configuration file")
	tomlConfig := flag.Bool("config-format-toml", false, "treat -config as a TOML document instead of JSON")
	walDir := flag.String("wal-dir", "", "directory to record DC signals and execution records to (disabled if empty)")
	flag.Parse()

	log := telemetry.NewLogger(telemetry.ComponentPerformance)

	if err := run(*configPath, *tomlConfig, *walDir, log); err != nil {
		log.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(configPath string, tomlFormat bool, walDir string, log telemetry.Logger) error {
	cfg, err := loadConfig(configPath, tomlFormat)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder *wal.Writer
	if walDir != "" {
		recorder, err = wal.NewWriter(wal.DefaultConfig(walDir))
		if err != nil {
			return err
		}
		if err := recorder.Start(ctx); err != nil {
			return err
		}
		defer recorder.Close()
	}

	trace := telemetry.NewTraceGenerator(0)

	mdOpts := []marketdata.Option{marketdata.WithTraceGenerator(trace)}
	execOpts := []execution.Option{execution.WithTraceGenerator(trace)}
	if recorder != nil {
		mdOpts = append(mdOpts, marketdata.WithRecorder(recorder))
		execOpts = append(execOpts, execution.WithRecorder(recorder))
	}

	mdStage, err := marketdata.NewStage(cfg.DCStrategy.Theta, mdOpts...)
	if err != nil {
		return err
	}
	stratStage, err := strategy.NewStage(cfg.StrategySettings.LeverageFactor,
		strategy.WithTraceGenerator(trace),
		strategy.WithRegimeGating(cfg.StrategySettings.EnableHMM))
	if err != nil {
		return err
	}
	sim := execdomain.NewSimulator(rand.New(rand.NewSource(1)), clock.SystemClock{})
	execStage := execution.NewStage(sim, 100_000, execOpts...)

	tickSource := bus.NewChannel(4096)
	tickToSignal := bus.NewChannel(4096)
	signalToOrder := bus.NewChannel(4096)

	if err := mdStage.Initialize(ctx, tickSource, tickToSignal, cfg.Transport.MarketData.Timeout()); err != nil {
		return err
	}
	if err := stratStage.Initialize(ctx, tickToSignal, signalToOrder, cfg.Transport.Strategy.Timeout()); err != nil {
		return err
	}
	if err := execStage.Initialize(ctx, signalToOrder, cfg.Transport.Execution.Timeout()); err != nil {
		return err
	}

	mdStage.Start()
	stratStage.Start()
	execStage.Start()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		<-ctx.Done()
		mdStage.Stop()
		stratStage.Stop()
		execStage.Stop()
		return nil
	})
	group.Go(func() error {
		return reportLoop(ctx, mdStage, stratStage, execStage, log)
	})
	group.Go(func() error {
		feedStdin(ctx, tickSource, log)
		return nil
	})

	waitErr := group.Wait()

	if cfg.Performance.OutputFile != "" {
		report := cfg.Performance.OutputFile
		if err := execdomain.WriteReport(report, execStage.Portfolio(), execStage.Statistics(), execStage.History()); err != nil {
			log.Errorf("performance report write failed: %v", err)
		} else {
			log.Infof("performance report written to %s", report)
		}
	}

	return waitErr
}

// feedStdin reads newline-delimited "timestamp_ns,price,volume,symbol"
// records from stdin (the format cmd/simulator emits) and offers each as
// a tick onto the market-data stage's inbound channel. This is the
// external tick source named in the pipeline's ownership model; it is
// not part of the core's wire protocol.
func feedStdin(ctx context.Context, tickSource *bus.Channel, log telemetry.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		tick, ok := parseTickLine(scanner.Text())
		if !ok {
			continue
		}
		frame := codec.EncodeTick(nil, tick)
		if !pipeline.OfferWithRetry(tickSource, frame) {
			log.Errorf("dropped tick after back-pressure retry")
		}
	}
}

func parseTickLine(line string) (schema.Tick, bool) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != 4 {
		return schema.Tick{}, false
	}
	ts, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return schema.Tick{}, false
	}
	price, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return schema.Tick{}, false
	}
	volume, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return schema.Tick{}, false
	}
	return schema.Tick{
		TimestampNs: ts,
		Price:       price,
		Volume:      volume,
		Symbol:      schema.NewSymbol(fields[3]),
	}, true
}

func reportLoop(ctx context.Context, md *marketdata.Stage, strat *strategy.Stage, exec *execution.Stage, log telemetry.Logger) error {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			ms := md.Statistics()
			ss := strat.Statistics()
			es := exec.Statistics()
			log.Infof("messages_processed=%d signals_processed=%d orders_generated=%d total_trades=%d total_pnl=%.2f max_drawdown=%.4f",
				ms.MessagesProcessed, ss.SignalsProcessed, ss.OrdersGenerated, es.TotalTrades, es.TotalPnL, es.MaxDrawdown)
		}
	}
}

func loadConfig(path string, tomlFormat bool) (config.FileConfig, error) {
	if tomlFormat {
		return config.LoadTOML(path)
	}
	return config.Load(path)
}
