package execution

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

func TestRecordFillBuyAttributesZeroPnL(t *testing.T) {
	p := NewPerformance(10_000)
	pnl := p.RecordFill(schema.OrderSideBuy, 100, 10, 1000)
	require.Equal(t, 0.0, pnl)
	require.Equal(t, uint64(1), p.Snapshot().TotalTrades)
}

func TestRecordFillSellRealizesPnLAgainstLastFill(t *testing.T) {
	p := NewPerformance(10_000)
	p.RecordFill(schema.OrderSideBuy, 100, 10, 1000)
	pnl := p.RecordFill(schema.OrderSideSell, 105, 10, 1000)
	require.Equal(t, 50.0, pnl) // (105-100)*10

	snap := p.Snapshot()
	require.Equal(t, uint64(2), snap.TotalTrades)
	require.Equal(t, uint64(1), snap.WinningTrades)
	require.Equal(t, 50.0, snap.TotalPnL)
	require.Equal(t, 25.0, snap.AvgTradePnL)
}

func TestMaxDrawdownIsMonotoneAndBounded(t *testing.T) {
	p := NewPerformance(1_000)
	p.RecordFill(schema.OrderSideBuy, 100, 1, 1000)
	p.RecordFill(schema.OrderSideSell, 90, 1, 1000) // loss of 10 (well, price drop vs last fill 100)

	snap := p.Snapshot()
	require.GreaterOrEqual(t, snap.MaxDrawdown, 0.0)
	require.LessOrEqual(t, snap.MaxDrawdown, 1.0)

	before := snap.MaxDrawdown
	p.RecordFill(schema.OrderSideBuy, 90, 1, 1000)
	p.RecordFill(schema.OrderSideSell, 70, 1, 1000) // bigger loss
	after := p.Snapshot().MaxDrawdown
	require.GreaterOrEqual(t, after, before)
}

func TestWinningPlusLosingNeverExceedsTotalTrades(t *testing.T) {
	p := NewPerformance(10_000)
	p.RecordFill(schema.OrderSideBuy, 100, 1, 1000)
	p.RecordFill(schema.OrderSideSell, 100, 1, 1000) // zero pnl fill, neither win nor loss

	snap := p.Snapshot()
	require.LessOrEqual(t, snap.WinningTrades+snap.LosingTrades, snap.TotalTrades)
}

func TestSharpeRequiresAtLeastTwoReturns(t *testing.T) {
	p := NewPerformance(10_000)
	require.Equal(t, 0.0, p.Snapshot().SharpeRatio)
	p.RecordFill(schema.OrderSideBuy, 100, 1, 1000)
	require.Equal(t, 0.0, p.Snapshot().SharpeRatio)
}

func TestPortfolioPositionTracksBuysAndSells(t *testing.T) {
	p := NewPerformance(10_000)
	p.RecordFill(schema.OrderSideBuy, 100, 10, 1000)
	require.Equal(t, 10.0, p.PortfolioSnapshot().CurrentPosition)
	p.RecordFill(schema.OrderSideSell, 100, 4, 1000)
	require.Equal(t, 6.0, p.PortfolioSnapshot().CurrentPosition)
}
