// Package fault implements the assertion trap grounded on
// _examples/original_source/src/common/uassert.c's g_assert_info /
// assert_handler: record a trace, then either halt (debug) or spin
// forever waiting for a supervisory restart (production), in place of
// the original's CPU breakpoint / hardware-watchdog reset.
package fault

import (
	"runtime"
	"sync"
	"sync/atomic"

	"raptor/x/conv"
)

// Trace mirrors struct assert_trace: caller PC, file/line, and the
// goroutine that tripped the assertion (the Go analogue of a hardware
// link register, since Go has no per-core register trace to read).
type Trace struct {
	File       string
	Line       int
	PC         uintptr
	GoroutineN uint64
}

var (
	mu        sync.Mutex
	lastTrace Trace
	tripped   atomic.Bool

	// Debug selects the behavior of Trap on an assertion failure: panic
	// (debug builds, matching RAPTOR_DEBUG's "bkpt 5") versus block
	// forever (production builds, matching the watchdog-reset spin
	// loop). Production is the default; set true in test/dev builds.
	Debug bool
)

// LastTrace returns the most recently recorded trip, and whether any
// assertion has tripped yet.
func LastTrace() (Trace, bool) {
	mu.Lock()
	defer mu.Unlock()
	return lastTrace, tripped.Load()
}

// Assert records a trace and traps if exp is false. It is the Go
// analogue of the uassert(exp) macro.
func Assert(exp bool) {
	if exp {
		return
	}
	pc, file, line, _ := runtime.Caller(1)
	record(file, line, pc)
	trap()
}

func record(file string, line int, pc uintptr) {
	mu.Lock()
	lastTrace = Trace{File: file, Line: line, PC: pc, GoroutineN: goroutineID()}
	mu.Unlock()
	tripped.Store(true)
}

func trap() {
	if Debug {
		t, _ := LastTrace()
		panic(traceString(t))
	}
	// Production: block forever. A real deployment relies on an
	// external supervisor (process manager, hardware watchdog) to
	// restart the process, matching the reference's "spin and wait for
	// watchdog" contract.
	select {}
}

func traceString(t Trace) string {
	var buf [20]byte
	return "assertion failed at " + t.File + ":" + string(conv.Itoa(buf[:], int64(t.Line)))
}

// goroutineID extracts the calling goroutine's numeric id from its
// stack trace header, for inclusion in a recorded Trace only — never
// used for program logic, since Go gives no supported API for this.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Format is "goroutine 123 [running]: ...".
	var id uint64
	i := len("goroutine ")
	for i < n && buf[i] >= '0' && buf[i] <= '9' {
		id = id*10 + uint64(buf[i]-'0')
		i++
	}
	return id
}
