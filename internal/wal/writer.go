package wal

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yanun0323/dc-trading-pipeline/internal/codec"
	"github.com/yanun0323/dc-trading-pipeline/internal/schema"
)

var (
	ErrQueueFull       = errors.New("wal queue full")
	ErrClosed          = errors.New("wal writer closed")
	ErrNotStarted      = errors.New("wal writer not started")
	ErrAlreadyStarted  = errors.New("wal writer already started")
	ErrPayloadTooLarge = errors.New("wal payload too large")
)

const maxPayloadLen = uint64(^uint32(0))

const (
	defaultSegmentMaxBytes int64 = 64 << 20
	defaultQueueSize             = 1024
	defaultFlushInterval          = time.Second
	segmentBufferSize             = 64 * 1024
	filePrefix                    = "wal"
)

// Config controls the writer's segment rotation and buffering. Unlike a
// high-throughput market-data recorder this audit log sees at most one
// entry per confirmed DC signal or fill, so it rotates on size alone and
// flushes on a single timer instead of separate flush and sync schedules.
type Config struct {
	Dir             string
	SegmentMaxBytes int64
	QueueSize       int
	FlushInterval   time.Duration
}

// DefaultConfig returns a baseline configuration for dir.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:             dir,
		SegmentMaxBytes: defaultSegmentMaxBytes,
		QueueSize:       defaultQueueSize,
		FlushInterval:   defaultFlushInterval,
	}
}

func (c Config) withDefaults() Config {
	if c.SegmentMaxBytes <= 0 {
		c.SegmentMaxBytes = defaultSegmentMaxBytes
	}
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = defaultFlushInterval
	}
	return c
}

func (c Config) validate() error {
	if c.Dir == "" {
		return fmt.Errorf("invalid wal config: Dir is empty")
	}
	return nil
}

// Writer appends confirmed DC signals and execution records to
// size-rotated segment files from a buffered queue, so a stage's hot
// path never blocks on disk I/O. It is optional throughout the
// pipeline: a nil *Writer simply means recording is disabled.
type Writer struct {
	cfg       Config
	runID     string
	startedAt string
	ch        chan entry
	wg        sync.WaitGroup
	err       atomic.Value

	started uint32
	closed  uint32
}

type entry struct {
	eventType schema.EventType
	traceID   uint64
	tsEventNs int64
	payload   []byte
}

// NewWriter creates a WAL writer and ensures the target directory
// exists. Each writer is stamped with a fresh run ID so segments from
// concurrent or restarted writer instances never collide on filename
// even when opened within the same wall-clock second.
func NewWriter(cfg Config) (*Writer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return &Writer{
		cfg:       cfg,
		runID:     uuid.NewString(),
		startedAt: time.Now().UTC().Format("20060102-150405"),
		ch:        make(chan entry, cfg.QueueSize),
	}, nil
}

// Start runs the writer loop in a new goroutine.
func (w *Writer) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapUint32(&w.started, 0, 1) {
		return ErrAlreadyStarted
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx)
	}()
	return nil
}

// Close stops the writer and flushes any buffered data.
func (w *Writer) Close() error {
	if atomic.CompareAndSwapUint32(&w.closed, 0, 1) {
		close(w.ch)
	}
	w.wg.Wait()
	return w.Err()
}

// Err returns the first error observed by the writer, if any.
func (w *Writer) Err() error {
	if v := w.err.Load(); v != nil {
		return v.(error)
	}
	return nil
}

// AppendDCSignal enqueues a confirmed DC signal without blocking.
func (w *Writer) AppendDCSignal(signal schema.DCSignal, traceID uint64) error {
	return w.enqueue(schema.EventDCSignal, traceID, signal.TimestampNs, codec.EncodeDCSignal(nil, signal))
}

// AppendExecutionRecord enqueues a fill without blocking.
func (w *Writer) AppendExecutionRecord(record schema.ExecutionRecord, traceID uint64) error {
	return w.enqueue(schema.EventExecutionRecord, traceID, record.TimestampNs, codec.EncodeExecutionRecord(nil, record))
}

func (w *Writer) enqueue(eventType schema.EventType, traceID uint64, tsEventNs int64, payload []byte) error {
	if atomic.LoadUint32(&w.closed) != 0 {
		return ErrClosed
	}
	if atomic.LoadUint32(&w.started) == 0 {
		return ErrNotStarted
	}
	if err := w.Err(); err != nil {
		return err
	}
	if uint64(len(payload)) > maxPayloadLen {
		return ErrPayloadTooLarge
	}

	select {
	case w.ch <- entry{eventType: eventType, traceID: traceID, tsEventNs: tsEventNs, payload: payload}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *Writer) run(ctx context.Context) {
	var (
		seg       *segment
		seq       uint64
		headerBuf = make([]byte, recordHeaderSize)
		crcBuf    [recordChecksumSize]byte
		flush     = time.NewTicker(w.cfg.FlushInterval)
	)
	defer flush.Stop()
	defer func() {
		if err := closeSegment(seg); err != nil && w.Err() == nil {
			w.setErr(err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.drain(&seg, &seq, headerBuf, &crcBuf)
			return
		case e, ok := <-w.ch:
			if !ok {
				return
			}
			if err := w.write(&seg, &seq, headerBuf, &crcBuf, e); err != nil {
				w.setErr(err)
				return
			}
		case <-flush.C:
			if seg == nil {
				continue
			}
			if err := seg.buf.Flush(); err != nil {
				w.setErr(err)
				return
			}
			if err := seg.file.Sync(); err != nil {
				w.setErr(err)
				return
			}
		}
	}
}

func (w *Writer) drain(seg **segment, seq *uint64, headerBuf []byte, crcBuf *[recordChecksumSize]byte) {
	for {
		select {
		case e, ok := <-w.ch:
			if !ok {
				return
			}
			if err := w.write(seg, seq, headerBuf, crcBuf, e); err != nil {
				w.setErr(err)
				return
			}
		default:
			return
		}
	}
}

func (w *Writer) write(seg **segment, seq *uint64, headerBuf []byte, crcBuf *[recordChecksumSize]byte, e entry) error {
	size := int64(recordHeaderSize + len(e.payload) + recordChecksumSize)
	if *seg == nil || (*seg).size+size > w.cfg.SegmentMaxBytes {
		if err := closeSegment(*seg); err != nil {
			return err
		}
		opened, err := w.openSegment(seq)
		if err != nil {
			return err
		}
		*seg = opened
	}

	encodeHeader(headerBuf, e.eventType, e.traceID, e.tsEventNs, len(e.payload))
	binary.LittleEndian.PutUint32(crcBuf[:], checksum(headerBuf, e.payload))

	if _, err := (*seg).buf.Write(headerBuf); err != nil {
		return err
	}
	if len(e.payload) > 0 {
		if _, err := (*seg).buf.Write(e.payload); err != nil {
			return err
		}
	}
	if _, err := (*seg).buf.Write(crcBuf[:]); err != nil {
		return err
	}
	(*seg).size += size
	return nil
}

func (w *Writer) openSegment(seq *uint64) (*segment, error) {
	for {
		*seq++
		name := fmt.Sprintf("%s-%s-%s-%06d.wal", filePrefix, w.startedAt, w.runID[:8], *seq)
		path := filepath.Join(w.cfg.Dir, name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return nil, err
		}
		return &segment{file: file, buf: bufio.NewWriterSize(file, segmentBufferSize)}, nil
	}
}

func (w *Writer) setErr(err error) {
	if err == nil {
		return
	}
	if w.err.Load() != nil {
		return
	}
	w.err.Store(err)
}

// segment is one open, size-tracked WAL file.
type segment struct {
	file *os.File
	buf  *bufio.Writer
	size int64
}

func closeSegment(seg *segment) error {
	if seg == nil {
		return nil
	}
	if err := seg.buf.Flush(); err != nil {
		_ = seg.file.Close()
		return err
	}
	if err := seg.file.Sync(); err != nil {
		_ = seg.file.Close()
		return err
	}
	return seg.file.Close()
}
