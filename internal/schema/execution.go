package schema

// ExecutionStatus is the outcome of an execution attempt.
type ExecutionStatus int32

const (
	ExecutionStatusUnknown ExecutionStatus = iota
	ExecutionStatusPending
	ExecutionStatusFilled
	ExecutionStatusPartiallyFilled
	ExecutionStatusRejected
	ExecutionStatusCancelled
)

// ExecutionRecord captures the result of executing (or simulating) an order.
// It is not carried on the inter-stage bus in this pipeline layout (the
// execution stage is the terminal stage) but shares the fixed-layout
// encoding convention for WAL persistence and replay verification.
type ExecutionRecord struct {
	TimestampNs        int64
	OrderID            uint64
	Side               OrderSide
	FilledPrice        float64
	FilledQty          float64
	Status             ExecutionStatus
	Symbol             Symbol
	ExecutionLatencyNs int64
}
