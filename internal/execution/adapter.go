package execution

import (
	"fmt"
	"sync"

	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
	"github.com/yanun0323/dc-trading-pipeline/pkg/xerrors"
)

// OrderHandle identifies an order submitted to a live adapter, distinct
// from the wire order_id used in execution records.
type OrderHandle uint64

// FillDetails is what a live adapter reports back through OnFill.
type FillDetails struct {
	FilledPrice float64
	FilledQty   float64
	Status      schema.ExecutionStatus
}

// Adapter is the capability a live venue integration exposes to the
// core. Submit must not block on the fill; the eventual fill arrives
// through a call to LiveExecutor.OnFill.
type Adapter interface {
	Submit(order schema.Order) (OrderHandle, error)
}

// LiveExecutor tracks orders between Submit and the adapter's eventual
// OnFill callback. The core consumes it in place of Simulator when live
// execution is configured.
type LiveExecutor struct {
	adapter Adapter

	mu      sync.Mutex
	pending map[OrderHandle]schema.ExecutionRecord
}

// NewLiveExecutor wraps adapter with pending-order bookkeeping.
func NewLiveExecutor(adapter Adapter) *LiveExecutor {
	return &LiveExecutor{adapter: adapter, pending: make(map[OrderHandle]schema.ExecutionRecord)}
}

// Submit hands order to the adapter and records a Pending execution
// record under the returned handle.
func (l *LiveExecutor) Submit(order schema.Order, orderID uint64) (OrderHandle, schema.ExecutionRecord, error) {
	handle, err := l.adapter.Submit(order)
	if err != nil {
		return 0, schema.ExecutionRecord{}, fmt.Errorf("%w: %v", xerrors.ErrAdapterFailure, err)
	}

	record := schema.ExecutionRecord{
		TimestampNs: order.TimestampNs,
		OrderID:     orderID,
		Side:        order.Side,
		Status:      schema.ExecutionStatusPending,
		Symbol:      order.Symbol,
	}

	l.mu.Lock()
	l.pending[handle] = record
	l.mu.Unlock()

	return handle, record, nil
}

// OnFill resolves a pending order with the adapter's fill details. It
// returns ErrUnknownHandle if handle was never submitted or was already
// resolved.
func (l *LiveExecutor) OnFill(handle OrderHandle, fill FillDetails) (schema.ExecutionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.pending[handle]
	if !ok {
		return schema.ExecutionRecord{}, xerrors.ErrUnknownHandle
	}
	delete(l.pending, handle)

	record.FilledPrice = fill.FilledPrice
	record.FilledQty = fill.FilledQty
	record.Status = fill.Status
	return record, nil
}
