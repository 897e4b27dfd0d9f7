package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

func TestTickEncodeDecodeRoundTrip(t *testing.T) {
	orig := schema.Tick{
		TimestampNs: 1700000000123,
		Price:       101.25,
		Volume:      3.5,
		Symbol:      schema.NewSymbol("BTC-USD"),
	}

	encoded := EncodeTick(nil, orig)
	require.Len(t, encoded, TickPayloadSize)

	decoded, ok := DecodeTick(encoded)
	require.True(t, ok)
	require.Equal(t, orig, decoded)
}

func TestTickDecodeRejectsShortFrame(t *testing.T) {
	_, ok := DecodeTick(make([]byte, TickPayloadSize-1))
	require.False(t, ok)
}

func TestDCSignalEncodeDecodeRoundTrip(t *testing.T) {
	orig := schema.DCSignal{
		TimestampNs:        1700000000999,
		EventType:          schema.DCEventDownturn,
		Price:              101.5,
		TmvExt:             1.4563106796116505,
		DurationNs:         42_000_000,
		TimeAdjustedReturn: -0.125,
		Symbol:             schema.NewSymbol("ETH-USD"),
	}

	encoded := EncodeDCSignal(nil, orig)
	require.Len(t, encoded, DCSignalPayloadSize)

	decoded, ok := DecodeDCSignal(encoded)
	require.True(t, ok)
	require.Equal(t, orig, decoded)
}

func TestDCSignalDecodeRejectsShortFrame(t *testing.T) {
	_, ok := DecodeDCSignal(make([]byte, DCSignalPayloadSize-1))
	require.False(t, ok)
}

func TestOrderEncodeDecodeRoundTrip(t *testing.T) {
	orig := schema.Order{
		TimestampNs:       1700000001000,
		Side:              schema.OrderSideSell,
		Price:             101.5,
		Quantity:          100,
		Symbol:            schema.NewSymbol("ETH-USD"),
		StrategyLatencyNs: 1500,
	}

	encoded := EncodeOrder(nil, orig)
	require.Len(t, encoded, OrderPayloadSize)

	decoded, ok := DecodeOrder(encoded)
	require.True(t, ok)
	require.Equal(t, orig, decoded)
}

func TestOrderDecodeRejectsShortFrame(t *testing.T) {
	_, ok := DecodeOrder(make([]byte, OrderPayloadSize-1))
	require.False(t, ok)
}

func TestExecutionRecordEncodeDecodeRoundTrip(t *testing.T) {
	orig := schema.ExecutionRecord{
		TimestampNs:        1700000002000,
		OrderID:            77,
		Side:               schema.OrderSideBuy,
		FilledPrice:        99.995,
		FilledQty:          10,
		Status:             schema.ExecutionStatusFilled,
		Symbol:             schema.NewSymbol("BTC-USD"),
		ExecutionLatencyNs: 42_000,
	}

	encoded := EncodeExecutionRecord(nil, orig)
	require.Len(t, encoded, ExecutionRecordPayloadSize)

	decoded, ok := DecodeExecutionRecord(encoded)
	require.True(t, ok)
	require.Equal(t, orig, decoded)
}

func TestExecutionRecordDecodeRejectsShortFrame(t *testing.T) {
	_, ok := DecodeExecutionRecord(make([]byte, ExecutionRecordPayloadSize-1))
	require.False(t, ok)
}

func TestEncodeReusesBackingArray(t *testing.T) {
	buf := make([]byte, 0, TickPayloadSize)
	out := EncodeTick(buf, schema.Tick{})
	require.Equal(t, TickPayloadSize, len(out))
	require.Same(t, &buf[:1][0], &out[0])
}
