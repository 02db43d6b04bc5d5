// internal/sched/eventlog.go

package sched

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventLogger receives lifecycle events and general notices.
// Calls come from a single goroutine; a panic is swallowed.
type EventLogger interface {
	TaskEvent(event string, id TaskID)
	Notice(msg string)
}

// NopEventLogger discards everything.
type NopEventLogger struct{}

func (NopEventLogger) TaskEvent(string, TaskID) {}
func (NopEventLogger) Notice(string) {}

// ZapEventLogger writes one structured line per event.
type ZapEventLogger struct {
	log *zap.Logger
}

// NewZapEventLogger wraps log; a nil log falls back to zap.L().
func NewZapEventLogger(log *zap.Logger) *ZapEventLogger {
	if log == nil {
		log = zap.L()
	}
	return &ZapEventLogger{log: log}
}

func (z *ZapEventLogger) TaskEvent(event string, id TaskID) {
	z.log.Info("task event", zap.String("event", event), zap.Uint64("task_id", uint64(id)))
}

func (z *ZapEventLogger) Notice(msg string) {
	z.log.Info(msg)
}

// CSVEventLogger appends one row per event:
// timestamp, event, task_id, message.
type CSVEventLogger struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
}

// NewCSVEventLogger writes the header row and returns a logger on w.
func NewCSVEventLogger(w io.Writer) *CSVEventLogger {
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"timestamp", "event", "task_id", "message"})
	cw.Flush()
	return &CSVEventLogger{w: cw}
}

// OpenCSVEventLogger creates (or truncates) the file at path.
func OpenCSVEventLogger(path string) (*CSVEventLogger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	l := NewCSVEventLogger(f)
	l.closer = f
	return l, nil
}

func (c *CSVEventLogger) TaskEvent(event string, id TaskID) {
	c.write(event, strconv.FormatUint(uint64(id), 10), "")
}

func (c *CSVEventLogger) Notice(msg string) {
	c.write(EventNotice.String(), "", msg)
}

func (c *CSVEventLogger) write(event, id, msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.w.Write([]string{time.Now().Format(time.RFC3339Nano), event, id, msg})
	c.w.Flush()
}

// Close flushes and closes the underlying file, if any.
func (c *CSVEventLogger) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.w.Flush()
	if c.closer != nil {
		return c.closer.Close()
	}
	return c.w.Error()
}

// MultiEventLogger fans every call out to each logger in order.
type MultiEventLogger []EventLogger

func (m MultiEventLogger) TaskEvent(event string, id TaskID) {
	for _, l := range m {
		l.TaskEvent(event, id)
	}
}

func (m MultiEventLogger) Notice(msg string) {
	for _, l := range m {
		l.Notice(msg)
	}
}
