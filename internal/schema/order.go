package schema

// OrderSide is the direction of an order, or Hold for "do nothing".
type OrderSide int32

const (
	OrderSideNone OrderSide = iota
	OrderSideBuy
	OrderSideSell
	OrderSideHold
)

// Order is the decision emitted by the strategy stage for the execution
// stage to act on.
//
// Wire layout (52 bytes, little-endian, no padding):
//
//	i64  timestamp_ns
//	i32  side
//	f64  price
//	f64  quantity
//	char symbol[16]
//	i64  strategy_latency_ns
type Order struct {
	TimestampNs        int64
	Side               OrderSide
	Price              float64
	Quantity           float64
	Symbol             Symbol
	StrategyLatencyNs  int64
}
