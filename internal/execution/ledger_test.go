package execution

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

func TestNewLedgerEntryComputesNotional(t *testing.T) {
	record := schema.ExecutionRecord{
		OrderID:     1,
		Side:        schema.OrderSideBuy,
		FilledPrice: 101.5,
		FilledQty:   10,
		Status:      schema.ExecutionStatusFilled,
	}
	entry := NewLedgerEntry(record)
	require.True(t, entry.Notional.Equal(entry.FilledPrice.Mul(entry.FilledQty)))
	require.Contains(t, entry.String(), "order=1")
}

func TestWriteReportProducesSummaryAndOneLedgerLinePerFill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")

	portfolio := Portfolio{InitialCapital: 10_000, CurrentCapital: 10_050, PeakCapital: 10_050}
	snapshot := Snapshot{TotalTrades: 2, WinningTrades: 1, TotalPnL: 50, AvgTradePnL: 25}
	history := []schema.ExecutionRecord{
		{OrderID: 1, Side: schema.OrderSideBuy, FilledPrice: 100, FilledQty: 10, Status: schema.ExecutionStatusFilled},
		{OrderID: 2, Side: schema.OrderSideSell, FilledPrice: 105, FilledQty: 10, Status: schema.ExecutionStatusFilled},
	}

	require.NoError(t, WriteReport(path, portfolio, snapshot, history))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")

	require.Contains(t, lines[0], "initial_capital=10000.00")
	require.Contains(t, lines[3], "---")
	require.Len(t, lines, 6)
	require.Contains(t, lines[4], "order=1")
	require.Contains(t, lines[5], "order=2")
}
