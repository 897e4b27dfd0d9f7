package wal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

func TestWriterAppendAndReplayRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wal")
	w, err := NewWriter(DefaultConfig(dir))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))

	sig := schema.DCSignal{
		TimestampNs: 1,
		EventType:   schema.DCEventDownturn,
		Price:       101.5,
		TmvExt:      1.4563,
		Symbol:      schema.NewSymbol("BTC-USD"),
	}
	require.NoError(t, w.AppendDCSignal(sig, 7))

	record := schema.ExecutionRecord{
		TimestampNs: 2,
		OrderID:     1,
		Side:        schema.OrderSideBuy,
		FilledPrice: 101.5,
		FilledQty:   10,
		Status:      schema.ExecutionStatusFilled,
		Symbol:      schema.NewSymbol("BTC-USD"),
	}
	require.NoError(t, w.AppendExecutionRecord(record, 8))

	cancel()
	require.NoError(t, w.Close())

	var gotSignals []schema.DCSignal
	var gotTraceIDs []uint64
	var gotRecords []schema.ExecutionRecord

	err = Replay(context.Background(), PlaybackConfig{Dir: dir}, Handlers{
		OnDCSignal: func(s schema.DCSignal, traceID uint64) error {
			gotSignals = append(gotSignals, s)
			gotTraceIDs = append(gotTraceIDs, traceID)
			return nil
		},
		OnExecutionRecord: func(r schema.ExecutionRecord, traceID uint64) error {
			gotRecords = append(gotRecords, r)
			gotTraceIDs = append(gotTraceIDs, traceID)
			return nil
		},
	})
	require.NoError(t, err)

	require.Equal(t, []schema.DCSignal{sig}, gotSignals)
	require.Equal(t, []schema.ExecutionRecord{record}, gotRecords)
	require.Equal(t, []uint64{7, 8}, gotTraceIDs)
}

func TestWriterRejectsAppendBeforeStart(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wal")
	w, err := NewWriter(DefaultConfig(dir))
	require.NoError(t, err)

	err = w.AppendDCSignal(schema.DCSignal{}, 0)
	require.ErrorIs(t, err, ErrNotStarted)
}

func TestReplayIgnoresUnregisteredHandlers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wal")
	w, err := NewWriter(DefaultConfig(dir))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.AppendDCSignal(schema.DCSignal{TimestampNs: 1}, 1))
	cancel()
	require.NoError(t, w.Close())

	err = Replay(context.Background(), PlaybackConfig{Dir: dir}, Handlers{})
	require.NoError(t, err)
}
