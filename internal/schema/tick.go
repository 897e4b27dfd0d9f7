package schema

// Tick is an immutable price observation ingested by the market-data stage.
//
// Wire layout (40 bytes, little-endian, no padding):
//
//	i64  timestamp_ns
//	f64  price
//	f64  volume
//	char symbol[16]
type Tick struct {
	TimestampNs int64
	Price       float64
	Volume      float64
	Symbol      Symbol
}
