// Package logbuf implements the bounded log queue and level filter
// grounded on _examples/original_source/src/common/logger.c's
// log_queue/logger_out/_get_level_str.
package logbuf

import (
	"sync/atomic"

	"raptor/x/fmtx"
	"raptor/x/timex"
)

// Level mirrors enum logger_level.
type Level int32

const (
	Trace Level = iota
	Info
	Warning
	Error
	Critical
	Disable
)

func (l Level) String() string {
	switch l {
	case Trace:
		return "TRACE"
	case Info:
		return "INFO"
	case Warning:
		return "WARN"
	case Error:
		return "ERR"
	default:
		return "CRIT"
	}
}

// DefaultCapacity matches logger.c's MAX_LOG_BUFFER_SIZE=3, scaled up
// for a host process serving several subsystems rather than a single
// FreeRTOS task; it remains a small bound so a stalled reader cannot
// grow memory without limit.
const DefaultCapacity = 64

// MaxMessageLen matches logger.c's MAX_LOG_MESSAGE_LEN bound: longer
// messages are truncated, not rejected.
const MaxMessageLen = 249

// Entry is one queued log line.
type Entry struct {
	TickMS  int64
	Level   Level
	Message string
}

// Queue is a bounded FIFO of Entry, backed by a buffered channel so
// Push never blocks a producer: a full queue drops the newest entry
// and counts it, the channel-send analogue of logger_out's
// xQueueSend(..., 0) non-blocking send.
type Queue struct {
	level atomic.Int32
	drop  atomic.Uint32
	ch    chan Entry
}

// NewQueue constructs a Queue with the given capacity at Info level,
// matching logger.c's LOGGER_DEFAULT_LEVEL.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	q := &Queue{ch: make(chan Entry, capacity)}
	q.level.Store(int32(Info))
	return q
}

// SetLevel changes the minimum level that will be queued.
func (q *Queue) SetLevel(l Level) { q.level.Store(int32(l)) }

// GetLevel reports the current minimum level.
func (q *Queue) GetLevel() Level { return Level(q.level.Load()) }

// Dropped reports how many entries were discarded because the queue
// was full when Push was called.
func (q *Queue) Dropped() uint32 { return q.drop.Load() }

// Push enqueues a formatted message at level, truncating to
// MaxMessageLen, after checking it against the current level floor.
func (q *Queue) Push(level Level, format string, args ...any) {
	if level < q.GetLevel() {
		return
	}
	msg := fmtx.Sprintf(format, args...)
	if len(msg) > MaxMessageLen {
		msg = msg[:MaxMessageLen]
	}
	entry := Entry{TickMS: timex.NowMs(), Level: level, Message: msg}
	select {
	case q.ch <- entry:
	default:
		q.drop.Add(1)
	}
}

// Trace, Info, Warn, ErrorMsg, Critical are convenience wrappers
// mirroring logger.h's trace/info/warning/error/critical macros.
func (q *Queue) Trace(format string, args ...any)   { q.Push(Trace, format, args...) }
func (q *Queue) Info(format string, args ...any)    { q.Push(Info, format, args...) }
func (q *Queue) Warn(format string, args ...any)    { q.Push(Warning, format, args...) }
func (q *Queue) ErrorMsg(format string, args ...any) { q.Push(Error, format, args...) }
func (q *Queue) Critical(format string, args ...any) { q.Push(Critical, format, args...) }

// Logf implements hsm.Logger and health.Logger so those subsystems can
// log through this queue.
func (q *Queue) Logf(format string, args ...any) { q.Push(Info, format, args...) }

// Chan exposes the receive side for a consumer (the log server) to
// range/select over.
func (q *Queue) Chan() <-chan Entry { return q.ch }
