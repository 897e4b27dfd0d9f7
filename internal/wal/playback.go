package wal

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yanun0323/dc-trading-pipeline/internal/codec"
	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

// Handlers dispatches replayed records by their concrete domain type, so
// a caller never has to decode a raw header/payload pair itself.
type Handlers struct {
	OnDCSignal        func(signal schema.DCSignal, traceID uint64) error
	OnExecutionRecord func(record schema.ExecutionRecord, traceID uint64) error
}

// PlaybackConfig controls replay pacing.
type PlaybackConfig struct {
	Dir   string
	Speed float64 // 0 replays as fast as possible; >0 paces by recorded event time
}

// Replay reads every segment file in cfg.Dir, in chronological filename
// order, decodes each record, and dispatches it to h.
func Replay(ctx context.Context, cfg PlaybackConfig, h Handlers) error {
	if cfg.Dir == "" {
		return errors.New("wal replay: Dir is empty")
	}
	if cfg.Speed < 0 {
		return errors.New("wal replay: Speed must be >= 0")
	}

	files, err := segmentFiles(cfg.Dir)
	if err != nil {
		return err
	}

	var prevTS int64
	for _, path := range files {
		if err := replayFile(ctx, path, cfg.Speed, h, &prevTS); err != nil {
			return err
		}
	}
	return nil
}

func segmentFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	prefix := filePrefix + "-"
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".wal") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func replayFile(ctx context.Context, path string, speed float64, h Handlers, prevTS *int64) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	r := bufio.NewReader(file)
	headerBuf := make([]byte, recordHeaderSize)
	var payload []byte

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := io.ReadFull(r, headerBuf)
		if err != nil {
			if err == io.EOF && n == 0 {
				return nil
			}
			return fmt.Errorf("read %s: %w", path, err)
		}

		eventType, traceID, tsEventNs, payloadLen, err := decodeHeader(headerBuf)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		if cap(payload) < int(payloadLen) {
			payload = make([]byte, payloadLen)
		}
		payload = payload[:payloadLen]
		if payloadLen > 0 {
			if _, err := io.ReadFull(r, payload); err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
		}

		var crcBuf [recordChecksumSize]byte
		if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if binary.LittleEndian.Uint32(crcBuf[:]) != checksum(headerBuf, payload) {
			return fmt.Errorf("read %s: %w", path, ErrChecksumMismatch)
		}

		if err := pace(ctx, speed, tsEventNs, prevTS); err != nil {
			return err
		}
		if err := dispatch(eventType, traceID, payload, h); err != nil {
			return err
		}
	}
}

func dispatch(eventType schema.EventType, traceID uint64, payload []byte, h Handlers) error {
	switch eventType {
	case schema.EventDCSignal:
		if h.OnDCSignal == nil {
			return nil
		}
		signal, ok := codec.DecodeDCSignal(payload)
		if !ok {
			return errors.New("wal replay: malformed DC signal record")
		}
		return h.OnDCSignal(signal, traceID)
	case schema.EventExecutionRecord:
		if h.OnExecutionRecord == nil {
			return nil
		}
		record, ok := codec.DecodeExecutionRecord(payload)
		if !ok {
			return errors.New("wal replay: malformed execution record")
		}
		return h.OnExecutionRecord(record, traceID)
	default:
		return nil
	}
}

// pace sleeps to reproduce the recorded spacing between consecutive
// event timestamps, scaled by speed. It is a no-op at speed 0.
func pace(ctx context.Context, speed float64, tsEventNs int64, prevTS *int64) error {
	if speed <= 0 || tsEventNs <= 0 {
		return nil
	}
	if *prevTS > 0 {
		if delta := tsEventNs - *prevTS; delta > 0 {
			t := time.NewTimer(time.Duration(float64(delta) / speed))
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	*prevTS = tsEventNs
	return nil
}
