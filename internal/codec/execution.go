package codec

import (
	"encoding/binary"
	"math"

	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

// ExecutionRecordPayloadSize is the fixed encoded size of an ExecutionRecord.
const ExecutionRecordPayloadSize = 8 + 8 + 4 + 8 + 8 + 4 + schema.SymbolSize + 8

// EncodeExecutionRecord serializes an execution record into a fixed-size payload.
func EncodeExecutionRecord(dst []byte, r schema.ExecutionRecord) []byte {
	dst = grow(dst, ExecutionRecordPayloadSize)

	off := 0
	binary.LittleEndian.PutUint64(dst[off:off+8], uint64(r.TimestampNs))
	off += 8
	binary.LittleEndian.PutUint64(dst[off:off+8], r.OrderID)
	off += 8
	binary.LittleEndian.PutUint32(dst[off:off+4], uint32(r.Side))
	off += 4
	binary.LittleEndian.PutUint64(dst[off:off+8], math.Float64bits(r.FilledPrice))
	off += 8
	binary.LittleEndian.PutUint64(dst[off:off+8], math.Float64bits(r.FilledQty))
	off += 8
	binary.LittleEndian.PutUint32(dst[off:off+4], uint32(r.Status))
	off += 4
	copy(dst[off:off+schema.SymbolSize], r.Symbol[:])
	off += schema.SymbolSize
	binary.LittleEndian.PutUint64(dst[off:off+8], uint64(r.ExecutionLatencyNs))

	return dst
}

// DecodeExecutionRecord parses a fixed-size execution record payload.
func DecodeExecutionRecord(src []byte) (schema.ExecutionRecord, bool) {
	if len(src) < ExecutionRecordPayloadSize {
		return schema.ExecutionRecord{}, false
	}
	var r schema.ExecutionRecord
	off := 0
	r.TimestampNs = int64(binary.LittleEndian.Uint64(src[off : off+8]))
	off += 8
	r.OrderID = binary.LittleEndian.Uint64(src[off : off+8])
	off += 8
	r.Side = schema.OrderSide(int32(binary.LittleEndian.Uint32(src[off : off+4])))
	off += 4
	r.FilledPrice = math.Float64frombits(binary.LittleEndian.Uint64(src[off : off+8]))
	off += 8
	r.FilledQty = math.Float64frombits(binary.LittleEndian.Uint64(src[off : off+8]))
	off += 8
	r.Status = schema.ExecutionStatus(int32(binary.LittleEndian.Uint32(src[off : off+4])))
	off += 4
	copy(r.Symbol[:], src[off:off+schema.SymbolSize])
	off += schema.SymbolSize
	r.ExecutionLatencyNs = int64(binary.LittleEndian.Uint64(src[off : off+8]))

	return r, true
}
