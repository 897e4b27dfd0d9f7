// Command simulator emits a synthetic tick stream to stdout in the
// "timestamp_ns,price,volume,symbol" line format cmd/pipeline reads from
// stdin, for demos and manual testing of the pipeline end to end.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yanun0323/dc-trading-pipeline/internal/config"
	"github.com/yanun0323/dc-trading-pipeline/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config/system_config.json", "path to the pipeline configuration file")
	rate := flag.Float64("rate", 100, "ticks per second to emit")
	symbol := flag.String("symbol", "BTC-USD", "instrument symbol to stamp on emitted ticks")
	seed := flag.Int64("seed", 1, "PRNG seed for the synthetic price walk")
	flag.Parse()

	log := telemetry.NewLogger(telemetry.ComponentMarketData)

	if err := run(*configPath, *rate, *symbol, *seed); err != nil {
		log.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func run(configPath string, rate float64, symbol string, seed int64) error {
	if _, err := config.Load(configPath); err != nil {
		return err
	}
	if rate <= 0 {
		rate = 100
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rng := rand.New(rand.NewSource(seed))
	writer := bufio.NewWriter(os.Stdout)
	defer writer.Flush()

	interval := time.Duration(float64(time.Second) / rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	price := 100.0
	var seq int64
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			price += (rng.Float64() - 0.5) * 0.5
			if price <= 0 {
				price = 0.01
			}
			seq++
			fmt.Fprintf(writer, "%d,%.6f,%.4f,%s\n", time.Now().UnixNano(), price, rng.Float64()*10, symbol)
			if seq%64 == 0 {
				writer.Flush()
			}
		}
	}
}
