package execution

import (
	"math"
	"sync"
	"time"

	"github.com/yanun0323/dc-trading-pipeline/internal/obs"
	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

// sharpeWindow bounds the ring of per-trade returns used for the Sharpe
// ratio to the last 252 trades (one trading year of daily samples, kept
// as the convention even though trades here are not daily).
const sharpeWindow = 252

// Snapshot is a read-only view of the accumulated performance metrics.
type Snapshot struct {
	TotalPnL              float64
	WinRate               float64
	TotalTrades           uint64
	WinningTrades         uint64
	LosingTrades          uint64
	MaxDrawdown           float64
	SharpeRatio           float64
	AvgTradePnL           float64
	AvgExecutionLatencyNs int64
	MaxExecutionLatencyNs int64
}

// Performance accumulates trade outcomes into the metrics named by the
// execution stage's data model. RecordFill must be called from the same
// critical section as the execution record append it accompanies, so a
// concurrent Snapshot never observes a record without its metrics update
// or vice versa.
type Performance struct {
	mu sync.Mutex

	portfolio Portfolio

	lastFillPrice float64
	hasLastFill   bool

	totalPnL      float64
	totalTrades   uint64
	winningTrades uint64
	losingTrades  uint64
	maxDrawdown   float64

	returns    [sharpeWindow]float64
	returnsLen int
	returnsPos int

	latency obs.EWMA
}

// NewPerformance seeds a tracker with the given starting capital.
func NewPerformance(initialCapital float64) *Performance {
	return &Performance{
		portfolio: Portfolio{
			InitialCapital: initialCapital,
			CurrentCapital: initialCapital,
			PeakCapital:    initialCapital,
		},
	}
}

// RecordFill folds one filled trade into the running metrics using the
// simplified last-price-stack P&L model: a Buy accumulates position at
// zero attributed P&L; a Sell realizes (filled_price - last_price) *
// filled_qty against the most recent fill of either side. It returns the
// P&L attributed to this fill.
func (p *Performance) RecordFill(side schema.OrderSide, filledPrice, filledQty float64, executionLatencyNs int64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	var pnl float64
	switch side {
	case schema.OrderSideBuy:
		p.portfolio.CurrentPosition += filledQty
	case schema.OrderSideSell:
		if p.hasLastFill {
			pnl = (filledPrice - p.lastFillPrice) * filledQty
		}
		p.portfolio.CurrentPosition -= filledQty
	}
	p.lastFillPrice = filledPrice
	p.hasLastFill = true

	p.totalTrades++
	p.totalPnL += pnl
	switch {
	case pnl > 0:
		p.winningTrades++
	case pnl < 0:
		p.losingTrades++
	}

	p.portfolio.CurrentCapital += pnl
	if p.portfolio.CurrentCapital > p.portfolio.PeakCapital {
		p.portfolio.PeakCapital = p.portfolio.CurrentCapital
	}
	if p.portfolio.PeakCapital > 0 {
		drawdown := (p.portfolio.PeakCapital - p.portfolio.CurrentCapital) / p.portfolio.PeakCapital
		if drawdown > p.maxDrawdown {
			p.maxDrawdown = drawdown
		}
	}

	if p.portfolio.InitialCapital > 0 {
		p.pushReturn(pnl / p.portfolio.InitialCapital)
	}

	p.latency.Observe(time.Duration(executionLatencyNs))

	return pnl
}

func (p *Performance) pushReturn(r float64) {
	p.returns[p.returnsPos] = r
	p.returnsPos = (p.returnsPos + 1) % sharpeWindow
	if p.returnsLen < sharpeWindow {
		p.returnsLen++
	}
}

// sharpeLocked computes mean/stddev over the return ring using the
// unbiased (n-1) variance estimator. The annualization factors named in
// the sharpe convention cancel in this ratio form.
func (p *Performance) sharpeLocked() float64 {
	if p.returnsLen < 2 {
		return 0
	}
	var sum float64
	for i := 0; i < p.returnsLen; i++ {
		sum += p.returns[i]
	}
	mean := sum / float64(p.returnsLen)

	var sqDiff float64
	for i := 0; i < p.returnsLen; i++ {
		d := p.returns[i] - mean
		sqDiff += d * d
	}
	stddev := math.Sqrt(sqDiff / float64(p.returnsLen-1))
	if stddev == 0 {
		return 0
	}
	return mean / stddev
}

// Snapshot returns a copy of the accumulated metrics.
func (p *Performance) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	var winRate, avgTradePnL float64
	if p.totalTrades > 0 {
		winRate = float64(p.winningTrades) / float64(p.totalTrades)
		avgTradePnL = p.totalPnL / float64(p.totalTrades)
	}

	return Snapshot{
		TotalPnL:              p.totalPnL,
		WinRate:               winRate,
		TotalTrades:           p.totalTrades,
		WinningTrades:         p.winningTrades,
		LosingTrades:          p.losingTrades,
		MaxDrawdown:           p.maxDrawdown,
		SharpeRatio:           p.sharpeLocked(),
		AvgTradePnL:           avgTradePnL,
		AvgExecutionLatencyNs: int64(p.latency.Avg()),
		MaxExecutionLatencyNs: int64(p.latency.Max()),
	}
}

// PortfolioSnapshot returns a copy of the current portfolio state.
func (p *Performance) PortfolioSnapshot() Portfolio {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.portfolio
}
