package execution

import (
	"bufio"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

// LedgerEntry is a decimal-precision, audit-formatted view of one
// execution record. Conversion to decimal happens only at this reporting
// boundary; the hot fill path stays on float64 per the detector's
// O(1)-per-tick requirement.
type LedgerEntry struct {
	OrderID     uint64
	Side        schema.OrderSide
	FilledPrice decimal.Decimal
	FilledQty   decimal.Decimal
	Notional    decimal.Decimal
	Status      schema.ExecutionStatus
}

// NewLedgerEntry converts a filled execution record into its decimal
// audit representation.
func NewLedgerEntry(record schema.ExecutionRecord) LedgerEntry {
	price := decimal.NewFromFloat(record.FilledPrice)
	qty := decimal.NewFromFloat(record.FilledQty)
	return LedgerEntry{
		OrderID:     record.OrderID,
		Side:        record.Side,
		FilledPrice: price,
		FilledQty:   qty,
		Notional:    price.Mul(qty),
		Status:      record.Status,
	}
}

// String renders the entry for the performance output file.
func (e LedgerEntry) String() string {
	return fmt.Sprintf("order=%d side=%d price=%s qty=%s notional=%s status=%d",
		e.OrderID, e.Side, e.FilledPrice.StringFixed(8), e.FilledQty.StringFixed(8), e.Notional.StringFixed(8), e.Status)
}

// WriteReport renders portfolio state, accumulated performance metrics,
// and one decimal-precision LedgerEntry per fill to path, overwriting
// any existing file. It is the sink for the performance stanza's
// output_file setting; a caller that leaves output_file empty never
// calls this and no file is produced.
func WriteReport(path string, portfolio Portfolio, snapshot Snapshot, history []schema.ExecutionRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "initial_capital=%.2f current_capital=%.2f peak_capital=%.2f\n",
		portfolio.InitialCapital, portfolio.CurrentCapital, portfolio.PeakCapital)
	fmt.Fprintf(w, "total_trades=%d winning_trades=%d losing_trades=%d win_rate=%.4f\n",
		snapshot.TotalTrades, snapshot.WinningTrades, snapshot.LosingTrades, snapshot.WinRate)
	fmt.Fprintf(w, "total_pnl=%.4f avg_trade_pnl=%.4f max_drawdown=%.4f sharpe_ratio=%.4f\n",
		snapshot.TotalPnL, snapshot.AvgTradePnL, snapshot.MaxDrawdown, snapshot.SharpeRatio)
	fmt.Fprintln(w, "---")
	for _, record := range history {
		if _, err := fmt.Fprintln(w, NewLedgerEntry(record).String()); err != nil {
			return err
		}
	}
	return w.Flush()
}
