package execution

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanun0323/dc-trading-pipeline/internal/bus"
	"github.com/yanun0323/dc-trading-pipeline/internal/clock"
	"github.com/yanun0323/dc-trading-pipeline/internal/codec"
	domain "github.com/yanun0323/dc-trading-pipeline/internal/execution"
	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

func newTestStage(t *testing.T, seed int64) (*Stage, *bus.Channel) {
	t.Helper()
	clk := clock.NewStepped(time.Unix(0, 0), time.Microsecond)
	sim := domain.NewSimulator(rand.New(rand.NewSource(seed)), clk, domain.WithSleepFunc(func(time.Duration) {}))
	s := NewStage(sim, 10_000, WithIdleStrategy(bus.BusySpinIdleStrategy{}), WithClock(clk))

	in := bus.NewChannel(16)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Initialize(ctx, in, time.Second))
	return s, in
}

func offerOrder(t *testing.T, ch *bus.Channel, order schema.Order) {
	t.Helper()
	frame := codec.EncodeOrder(nil, order)
	require.Greater(t, ch.Offer(frame), 0)
}

func TestStageFillsBuyThenSellAndRecordsPnL(t *testing.T) {
	s, in := newTestStage(t, 7)
	s.Start()
	defer s.Stop()

	offerOrder(t, in, schema.Order{Side: schema.OrderSideBuy, Price: 100, Quantity: 10})
	require.Eventually(t, func() bool { return s.Statistics().TotalTrades == 1 }, time.Second, time.Millisecond)

	offerOrder(t, in, schema.Order{Side: schema.OrderSideSell, Price: 110, Quantity: 10})
	require.Eventually(t, func() bool { return s.Statistics().TotalTrades == 2 }, time.Second, time.Millisecond)

	history := s.History()
	require.Len(t, history, 2)
	require.Equal(t, schema.ExecutionStatusFilled, history[0].Status)

	snap := s.Statistics()
	require.GreaterOrEqual(t, snap.TotalPnL, 0.0) // sell above buy, minus small slippage bounds
}

func TestStageIgnoresHoldAndNoneOrders(t *testing.T) {
	s, in := newTestStage(t, 1)
	s.Start()
	defer s.Stop()

	offerOrder(t, in, schema.Order{Side: schema.OrderSideHold, Price: 100, Quantity: 1})
	offerOrder(t, in, schema.Order{Side: schema.OrderSideNone, Price: 100, Quantity: 1})
	offerOrder(t, in, schema.Order{Side: schema.OrderSideBuy, Price: 100, Quantity: 1})

	require.Eventually(t, func() bool { return s.Statistics().TotalTrades == 1 }, time.Second, time.Millisecond)
	require.Len(t, s.History(), 1)
}

func TestStageDropsMalformedOrderFrame(t *testing.T) {
	s, in := newTestStage(t, 1)
	s.Start()
	defer s.Stop()

	require.Greater(t, in.Offer([]byte{1, 2}), 0)
	offerOrder(t, in, schema.Order{Side: schema.OrderSideBuy, Price: 100, Quantity: 1})

	require.Eventually(t, func() bool { return s.Statistics().TotalTrades == 1 }, time.Second, time.Millisecond)
}
