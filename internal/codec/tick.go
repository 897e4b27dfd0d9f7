package codec

import (
	"encoding/binary"
	"math"

	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

// TickPayloadSize is the fixed encoded size of a Tick, in bytes.
const TickPayloadSize = 8 + 8 + 8 + schema.SymbolSize

// EncodeTick serializes a tick into a fixed-size payload.
func EncodeTick(dst []byte, t schema.Tick) []byte {
	dst = grow(dst, TickPayloadSize)

	binary.LittleEndian.PutUint64(dst[0:8], uint64(t.TimestampNs))
	binary.LittleEndian.PutUint64(dst[8:16], math.Float64bits(t.Price))
	binary.LittleEndian.PutUint64(dst[16:24], math.Float64bits(t.Volume))
	copy(dst[24:24+schema.SymbolSize], t.Symbol[:])

	return dst
}

// DecodeTick parses a fixed-size tick payload. It rejects frames shorter
// than the declared size.
func DecodeTick(src []byte) (schema.Tick, bool) {
	if len(src) < TickPayloadSize {
		return schema.Tick{}, false
	}
	var t schema.Tick
	t.TimestampNs = int64(binary.LittleEndian.Uint64(src[0:8]))
	t.Price = math.Float64frombits(binary.LittleEndian.Uint64(src[8:16]))
	t.Volume = math.Float64frombits(binary.LittleEndian.Uint64(src[16:24]))
	copy(t.Symbol[:], src[24:24+schema.SymbolSize])
	return t, true
}
