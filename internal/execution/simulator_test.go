package execution

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanun0323/dc-trading-pipeline/internal/clock"
	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

func TestSimulatorFillsWithinSlippageAndLatencyBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	clk := clock.NewStepped(time.Unix(0, 0), time.Microsecond)
	sim := NewSimulator(rng, clk, WithSleepFunc(func(time.Duration) {}))

	order := schema.Order{Price: 100, Quantity: 5, Side: schema.OrderSideBuy, Symbol: schema.NewSymbol("BTC-USD")}
	record := sim.Execute(order, 1)

	require.Equal(t, schema.ExecutionStatusFilled, record.Status)
	require.Equal(t, 5.0, record.FilledQty)
	require.InDelta(t, 100, record.FilledPrice, 100*maxSlippage)
	require.GreaterOrEqual(t, record.ExecutionLatencyNs, int64(0))
}

func TestSimulatorDeterministicWithSeededRNG(t *testing.T) {
	clk1 := clock.NewStepped(time.Unix(0, 0), time.Microsecond)
	sim1 := NewSimulator(rand.New(rand.NewSource(42)), clk1, WithSleepFunc(func(time.Duration) {}))
	clk2 := clock.NewStepped(time.Unix(0, 0), time.Microsecond)
	sim2 := NewSimulator(rand.New(rand.NewSource(42)), clk2, WithSleepFunc(func(time.Duration) {}))

	order := schema.Order{Price: 100, Quantity: 1}
	r1 := sim1.Execute(order, 1)
	r2 := sim2.Execute(order, 1)
	require.Equal(t, r1.FilledPrice, r2.FilledPrice)
}
