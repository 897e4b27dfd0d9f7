package schema

// DCEventType is the direction of a confirmed Directional Change.
type DCEventType int32

const (
	DCEventNone DCEventType = iota
	DCEventUpturn
	DCEventDownturn
)

// DCSignal is the on-wire representation of a confirmed DC event, annotated
// with the originating symbol.
//
// Wire layout (60 bytes, little-endian, no padding):
//
//	i64  timestamp_ns
//	i32  event_type
//	f64  price
//	f64  tmv_ext
//	i64  duration_ns
//	f64  time_adjusted_return
//	char symbol[16]
type DCSignal struct {
	TimestampNs        int64
	EventType          DCEventType
	Price              float64
	TmvExt             float64
	DurationNs         int64
	TimeAdjustedReturn float64
	Symbol             Symbol
}
