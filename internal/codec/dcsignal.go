package codec

import (
	"encoding/binary"
	"math"

	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

// DCSignalPayloadSize is the fixed encoded size of a DCSignal, in bytes.
const DCSignalPayloadSize = 8 + 4 + 8 + 8 + 8 + 8 + schema.SymbolSize

// EncodeDCSignal serializes a DC signal into a fixed-size payload.
func EncodeDCSignal(dst []byte, s schema.DCSignal) []byte {
	dst = grow(dst, DCSignalPayloadSize)

	off := 0
	binary.LittleEndian.PutUint64(dst[off:off+8], uint64(s.TimestampNs))
	off += 8
	binary.LittleEndian.PutUint32(dst[off:off+4], uint32(s.EventType))
	off += 4
	binary.LittleEndian.PutUint64(dst[off:off+8], math.Float64bits(s.Price))
	off += 8
	binary.LittleEndian.PutUint64(dst[off:off+8], math.Float64bits(s.TmvExt))
	off += 8
	binary.LittleEndian.PutUint64(dst[off:off+8], uint64(s.DurationNs))
	off += 8
	binary.LittleEndian.PutUint64(dst[off:off+8], math.Float64bits(s.TimeAdjustedReturn))
	off += 8
	copy(dst[off:off+schema.SymbolSize], s.Symbol[:])

	return dst
}

// DecodeDCSignal parses a fixed-size DC signal payload.
func DecodeDCSignal(src []byte) (schema.DCSignal, bool) {
	if len(src) < DCSignalPayloadSize {
		return schema.DCSignal{}, false
	}
	var s schema.DCSignal
	off := 0
	s.TimestampNs = int64(binary.LittleEndian.Uint64(src[off : off+8]))
	off += 8
	s.EventType = schema.DCEventType(int32(binary.LittleEndian.Uint32(src[off : off+4])))
	off += 4
	s.Price = math.Float64frombits(binary.LittleEndian.Uint64(src[off : off+8]))
	off += 8
	s.TmvExt = math.Float64frombits(binary.LittleEndian.Uint64(src[off : off+8]))
	off += 8
	s.DurationNs = int64(binary.LittleEndian.Uint64(src[off : off+8]))
	off += 8
	s.TimeAdjustedReturn = math.Float64frombits(binary.LittleEndian.Uint64(src[off : off+8]))
	off += 8
	copy(s.Symbol[:], src[off:off+schema.SymbolSize])

	return s, true
}
