package codec

import (
	"encoding/binary"
	"math"

	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

// OrderPayloadSize is the fixed encoded size of an Order, in bytes.
const OrderPayloadSize = 8 + 4 + 8 + 8 + schema.SymbolSize + 8

// EncodeOrder serializes an order into a fixed-size payload.
func EncodeOrder(dst []byte, o schema.Order) []byte {
	dst = grow(dst, OrderPayloadSize)

	off := 0
	binary.LittleEndian.PutUint64(dst[off:off+8], uint64(o.TimestampNs))
	off += 8
	binary.LittleEndian.PutUint32(dst[off:off+4], uint32(o.Side))
	off += 4
	binary.LittleEndian.PutUint64(dst[off:off+8], math.Float64bits(o.Price))
	off += 8
	binary.LittleEndian.PutUint64(dst[off:off+8], math.Float64bits(o.Quantity))
	off += 8
	copy(dst[off:off+schema.SymbolSize], o.Symbol[:])
	off += schema.SymbolSize
	binary.LittleEndian.PutUint64(dst[off:off+8], uint64(o.StrategyLatencyNs))

	return dst
}

// DecodeOrder parses a fixed-size order payload.
func DecodeOrder(src []byte) (schema.Order, bool) {
	if len(src) < OrderPayloadSize {
		return schema.Order{}, false
	}
	var o schema.Order
	off := 0
	o.TimestampNs = int64(binary.LittleEndian.Uint64(src[off : off+8]))
	off += 8
	o.Side = schema.OrderSide(int32(binary.LittleEndian.Uint32(src[off : off+4])))
	off += 4
	o.Price = math.Float64frombits(binary.LittleEndian.Uint64(src[off : off+8]))
	off += 8
	o.Quantity = math.Float64frombits(binary.LittleEndian.Uint64(src[off : off+8]))
	off += 8
	copy(o.Symbol[:], src[off:off+schema.SymbolSize])
	off += schema.SymbolSize
	o.StrategyLatencyNs = int64(binary.LittleEndian.Uint64(src[off : off+8]))

	return o, true
}
