package scpi

import (
	"fmt"
	"sync"

	"raptor/internal/sysreg"
)

// ErrCode is an IEEE-488.2 error taxonomy value: a fixed numeric code
// paired with a fixed human reason, per
// _examples/original_source/core/lib/scpi/err.c's emap table.
type ErrCode int

const (
	ErrNull ErrCode = iota
	ErrUndefinedHeader
	ErrSyntax
	ErrQueueOverflow
)

type errEntry struct {
	code   int
	reason string
}

var errMap = map[ErrCode]errEntry{
	ErrNull:            {0, "No error"},
	ErrUndefinedHeader: {-113, "Undefined header"},
	ErrSyntax:          {-222, "Bad syntax"},
	ErrQueueOverflow:   {-350, "Error queue overflow"},
}

// Format writes the IEEE-488.2 error string: "%+d,\"%s\"\n" for a
// non-zero code, and the unsigned "0,\"No error\"\n" for ErrNull. A code
// missing from errMap is formatted as ErrNull.
func Format(code ErrCode) string {
	e, ok := errMap[code]
	if !ok {
		e = errMap[ErrNull]
	}
	if e.code == 0 {
		return fmt.Sprintf("%d,\"%s\"\n", e.code, e.reason)
	}
	return fmt.Sprintf("%+d,\"%s\"\n", e.code, e.reason)
}

// ErrQueueCap is the fixed error queue capacity (spec: ≈20).
const ErrQueueCap = 20

// ErrQueue is a bounded FIFO of error codes with IEEE-488.2
// overflow-overwrite semantics, grounded on
// _examples/original_source/core/lib/scpi/err.c's
// scpi_error_push/scpi_error_pop, adapted to guard the queue and the
// status byte as a single atomic unit (the reference interleaves
// cbuffer and sysreg calls without a shared lock; that gap is not
// reproduced here, per spec.md §5).
type ErrQueue struct {
	mu  sync.Mutex
	buf [ErrQueueCap]ErrCode
	len int
	reg *sysreg.File
}

// NewErrQueue binds an error queue to the register file whose status
// byte it maintains.
func NewErrQueue(reg *sysreg.File) *ErrQueue {
	return &ErrQueue{reg: reg}
}

// Init empties the queue and clears the status-byte error-queue bit.
func (q *ErrQueue) Init() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.len = 0
	q.reg.SetStatusBit(sysreg.STBErrorQueue, false)
}

// Push appends code, setting the status-byte error-queue bit. On a full
// queue, the tail slot is overwritten with ErrQueueOverflow so the last
// reported error on overflow is always "overflow"; the entries before
// the tail slot stay intact in FIFO order.
func (q *ErrQueue) Push(code ErrCode) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.len < ErrQueueCap {
		q.buf[q.len] = code
		q.len++
	} else {
		q.buf[ErrQueueCap-1] = ErrQueueOverflow
	}
	q.reg.SetStatusBit(sysreg.STBErrorQueue, true)
}

// Pop returns ErrNull if empty; if the queue transitions to empty, it
// clears the status-byte error-queue bit.
func (q *ErrQueue) Pop() ErrCode {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.len == 0 {
		return ErrNull
	}
	code := q.buf[0]
	copy(q.buf[:q.len-1], q.buf[1:q.len])
	q.len--
	if q.len == 0 {
		q.reg.SetStatusBit(sysreg.STBErrorQueue, false)
	}
	return code
}

// Len reports the number of queued entries (test/diagnostic use).
func (q *ErrQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.len
}
