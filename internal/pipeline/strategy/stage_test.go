package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanun0323/dc-trading-pipeline/internal/bus"
	"github.com/yanun0323/dc-trading-pipeline/internal/codec"
	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

func newTestStage(t *testing.T, leverage float64) (*Stage, *bus.Channel, *bus.Channel) {
	t.Helper()
	s, err := NewStage(leverage, WithIdleStrategy(bus.BusySpinIdleStrategy{}))
	require.NoError(t, err)

	in := bus.NewChannel(16)
	out := bus.NewChannel(16)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Initialize(ctx, in, out, time.Second))
	return s, in, out
}

func offerSignal(t *testing.T, ch *bus.Channel, sig schema.DCSignal) {
	t.Helper()
	frame := codec.EncodeDCSignal(nil, sig)
	require.Greater(t, ch.Offer(frame), 0)
}

func TestDecideMapsUpturnPositiveReturnToBuy(t *testing.T) {
	side := decide(schema.DCSignal{EventType: schema.DCEventUpturn, TimeAdjustedReturn: 0.01})
	require.Equal(t, schema.OrderSideBuy, side)
}

func TestDecideMapsDownturnNegativeReturnToSell(t *testing.T) {
	side := decide(schema.DCSignal{EventType: schema.DCEventDownturn, TimeAdjustedReturn: -0.01})
	require.Equal(t, schema.OrderSideSell, side)
}

func TestDecideMapsMismatchedSignToNone(t *testing.T) {
	require.Equal(t, schema.OrderSideNone, decide(schema.DCSignal{EventType: schema.DCEventUpturn, TimeAdjustedReturn: -0.01}))
	require.Equal(t, schema.OrderSideNone, decide(schema.DCSignal{EventType: schema.DCEventDownturn, TimeAdjustedReturn: 0.01}))
	require.Equal(t, schema.OrderSideNone, decide(schema.DCSignal{EventType: schema.DCEventNone}))
}

func TestRegimeClassifierThresholds(t *testing.T) {
	var c RegimeClassifier
	require.Equal(t, RegimeLowVolatility, c.Classify(0.05, int64(time.Second)))

	var c2 RegimeClassifier
	require.Equal(t, RegimeHighVolatility, c2.Classify(0.6, int64(time.Second)))

	var c3 RegimeClassifier
	c3.Classify(0.6, int64(time.Second)) // seed HighVolatility
	require.Equal(t, RegimeHighVolatility, c3.Classify(0.3, int64(time.Second))) // ambiguous, retains prior
}

func TestSizeOrderCapsNotional(t *testing.T) {
	q := sizeOrder(baseQuantity, 10, 1.5, 100) // scaled = 1500, cap = 100
	require.Equal(t, 100.0, q)
}

func TestSizeOrderFallsBackWhenPriceNonPositive(t *testing.T) {
	q := sizeOrder(baseQuantity, 1, 1, 0)
	require.Equal(t, baseQuantity, q)
}

func TestSizeOrderFloorsAtOne(t *testing.T) {
	q := sizeOrder(baseQuantity, 0, 1, 100)
	require.Equal(t, 1.0, q)
}

func TestStageEmitsBuyOrderOnUpturn(t *testing.T) {
	s, in, out := newTestStage(t, 1.0)
	s.Start()
	defer s.Stop()

	offerSignal(t, in, schema.DCSignal{
		TimestampNs:        1,
		EventType:          schema.DCEventUpturn,
		Price:              100,
		TmvExt:             0.05,
		DurationNs:         int64(time.Second),
		TimeAdjustedReturn: 0.02,
		Symbol:             schema.NewSymbol("BTC-USD"),
	})

	var got []byte
	require.Eventually(t, func() bool {
		n := out.Poll(func(f []byte) { got = f }, 1)
		return n == 1
	}, time.Second, time.Millisecond)

	order, ok := codec.DecodeOrder(got)
	require.True(t, ok)
	require.Equal(t, schema.OrderSideBuy, order.Side)
	require.GreaterOrEqual(t, order.Quantity, 1.0)
	require.Equal(t, uint64(1), s.Statistics().OrdersGenerated)
	require.Equal(t, uint64(1), s.Statistics().BuySignals)
}

func TestStageSurfacesCurrentMarketState(t *testing.T) {
	s, in, out := newTestStage(t, 1.0)
	s.Start()
	defer s.Stop()

	offerSignal(t, in, schema.DCSignal{
		TimestampNs:        1,
		EventType:          schema.DCEventUpturn,
		Price:              100,
		TmvExt:             0.05,
		DurationNs:         int64(time.Second),
		TimeAdjustedReturn: 0.02,
		Symbol:             schema.NewSymbol("BTC-USD"),
	})

	require.Eventually(t, func() bool {
		return out.Poll(func([]byte) {}, 1) == 1
	}, time.Second, time.Millisecond)
	require.Equal(t, int32(RegimeLowVolatility), s.Statistics().CurrentMarketState)
}

func TestStageWithRegimeGatingDisabledIgnoresRegime(t *testing.T) {
	s, err := NewStage(1.0, WithIdleStrategy(bus.BusySpinIdleStrategy{}), WithRegimeGating(false))
	require.NoError(t, err)
	in := bus.NewChannel(16)
	out := bus.NewChannel(16)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Initialize(ctx, in, out, time.Second))
	s.Start()
	defer s.Stop()

	offerSignal(t, in, schema.DCSignal{
		TimestampNs:        1,
		EventType:          schema.DCEventUpturn,
		Price:              100,
		TmvExt:             0.6, // would classify HighVolatility if gating were enabled
		DurationNs:         int64(time.Second),
		TimeAdjustedReturn: 0.02,
		Symbol:             schema.NewSymbol("BTC-USD"),
	})

	require.Eventually(t, func() bool {
		return out.Poll(func([]byte) {}, 1) == 1
	}, time.Second, time.Millisecond)
	require.Equal(t, int32(RegimeUnknown), s.Statistics().CurrentMarketState)
}

func TestStageEmitsNoOrderOnNeutralSignal(t *testing.T) {
	s, in, out := newTestStage(t, 1.0)
	s.Start()
	defer s.Stop()

	offerSignal(t, in, schema.DCSignal{EventType: schema.DCEventNone})

	require.Eventually(t, func() bool {
		return s.Statistics().SignalsProcessed == 1
	}, time.Second, time.Millisecond)
	require.Equal(t, uint64(0), s.Statistics().OrdersGenerated)
	require.Equal(t, 0, out.Poll(func([]byte) {}, 1))
}
