package wal

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

// recordHeaderSize is deliberately narrow: this log persists exactly two
// domain event types (DC signals and execution records) and never needs
// the wire schema's full versioning envelope, so the on-disk header
// keeps only what replay actually uses: magic, type, payload length,
// trace id, and event time.
const (
	recordHeaderSize   = 24
	recordChecksumSize = 4
)

var recordMagic = [2]byte{'W', 'L'}

var (
	ErrInvalidMagic            = errors.New("wal invalid magic")
	ErrInvalidRecordHeaderSize = errors.New("wal invalid header size")
	ErrChecksumMismatch        = errors.New("wal checksum mismatch")
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

func encodeHeader(dst []byte, eventType schema.EventType, traceID uint64, tsEventNs int64, payloadLen int) {
	_ = dst[recordHeaderSize-1]
	copy(dst[0:2], recordMagic[:])
	binary.LittleEndian.PutUint16(dst[2:4], uint16(eventType))
	binary.LittleEndian.PutUint32(dst[4:8], uint32(payloadLen))
	binary.LittleEndian.PutUint64(dst[8:16], traceID)
	binary.LittleEndian.PutUint64(dst[16:24], uint64(tsEventNs))
}

func decodeHeader(src []byte) (eventType schema.EventType, traceID uint64, tsEventNs int64, payloadLen uint32, err error) {
	if len(src) < recordHeaderSize {
		return 0, 0, 0, 0, ErrInvalidRecordHeaderSize
	}
	if src[0] != recordMagic[0] || src[1] != recordMagic[1] {
		return 0, 0, 0, 0, ErrInvalidMagic
	}
	eventType = schema.EventType(binary.LittleEndian.Uint16(src[2:4]))
	payloadLen = binary.LittleEndian.Uint32(src[4:8])
	traceID = binary.LittleEndian.Uint64(src[8:16])
	tsEventNs = int64(binary.LittleEndian.Uint64(src[16:24]))
	return eventType, traceID, tsEventNs, payloadLen, nil
}

func checksum(header []byte, payload []byte) uint32 {
	crc := crc32.Update(0, crcTable, header)
	return crc32.Update(crc, crcTable, payload)
}
