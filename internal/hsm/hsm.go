// Package hsm implements the hierarchical state machine at the core of
// the raptor controller, grounded on
// _examples/original_source/src/os/hsm.c's state_table/hsm_main/
// hsm_post_event[_isr]. The ISR-context/task-context event posting
// split is adapted from
// _examples/jangala-dev-devicecode-go/services/hal/internal/gpioirq/irq_worker.go's
// non-blocking-send-with-drop-counter pattern.
package hsm

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultTickPeriod is the HSM's default tick cadence (spec.md §4.7).
const DefaultTickPeriod = 100 * time.Millisecond

const eventQueueCap = 16

// Status is the result of a PostEvent/PostEventISR call.
type Status int

const (
	StatusOK Status = iota
	StatusQueueFull
)

// Logger receives the HSM's diagnostic lines. Passing nil discards
// them.
type Logger interface {
	Logf(format string, args ...any)
}

// Machine owns the state table, the event queue, and the tick loop.
type Machine struct {
	table [stateCount]stateEntry

	current State
	next    State

	pendingDTC    DTCID
	enterTime     time.Time
	tickPeriod    time.Duration
	tick          uint64
	leds          LEDBank
	log_          Logger
	dtcSink       chan DTCEvent
	eventQ        chan Event
	isrDrops      atomic.Uint32
}

// New constructs a Machine with the reference state table, ready to
// Run. leds may be nil (NopLEDBank is used); dtcSink may be nil (DTC
// posts are dropped, matching an unconnected diagnostic channel).
func New(leds LEDBank, log Logger, dtcSink chan DTCEvent) *Machine {
	if leds == nil {
		leds = NopLEDBank{}
	}
	return &Machine{
		table:      buildTable(),
		current:    Reset,
		next:       Reset,
		tickPeriod: DefaultTickPeriod,
		leds:       leds,
		log_:       log,
		dtcSink:    dtcSink,
		eventQ:     make(chan Event, eventQueueCap),
	}
}

// CurrentState reports the machine's current state (task-safe: only
// read from the tick goroutine in production use, exposed here for
// tests and diagnostics).
func (m *Machine) CurrentState() State { return m.current }

// PendingDTC reports the trouble code staged for the next ERROR entry.
func (m *Machine) PendingDTC() DTCID { return m.pendingDTC }

// SetPendingDTC stages a trouble code to be posted on ERROR entry, the
// Go analogue of ctx.pending_dtc (normally set by a fault path before
// posting EventError/EventAbort).
func (m *Machine) SetPendingDTC(id DTCID) { m.pendingDTC = id }

// ISRDrops reports how many PostEventISR calls found the queue full.
func (m *Machine) ISRDrops() uint32 { return m.isrDrops.Load() }

func (m *Machine) log(format string, args ...any) {
	if m.log_ != nil {
		m.log_.Logf(format, args...)
	}
}

func (m *Machine) postDTC(id DTCID) {
	if m.dtcSink == nil {
		return
	}
	select {
	case m.dtcSink <- DTCEvent{Tick: m.tick, Event: id}:
	default:
	}
}

// PostEventISR is the interrupt-context producer: it never blocks,
// incrementing a drop counter instead of stalling the caller. The
// returned bool reports whether a context switch would be warranted —
// carried over from hsm_post_event_isr's req_ctx_switch out-param for
// parity with the reference contract, even though Go's scheduler makes
// the signal informational only.
func (m *Machine) PostEventISR(ev Event) (status Status, reqCtxSwitch bool) {
	select {
	case m.eventQ <- ev:
		return StatusOK, true
	default:
		m.isrDrops.Add(1)
		return StatusQueueFull, false
	}
}

// PostEvent is the task-context producer: it blocks up to wait for
// room in the queue.
func (m *Machine) PostEvent(ctx context.Context, ev Event, wait time.Duration) Status {
	if wait <= 0 {
		select {
		case m.eventQ <- ev:
			return StatusOK
		default:
			return StatusQueueFull
		}
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case m.eventQ <- ev:
		return StatusOK
	case <-timer.C:
		return StatusQueueFull
	case <-ctx.Done():
		return StatusQueueFull
	}
}

// Run drives the tick loop until ctx is cancelled, servicing at most
// one queued event per tick, transitioning, and cascading tick hooks
// from current_state to ROOT, per spec.md §4.7.
func (m *Machine) Run(ctx context.Context) {
	m.log("starting HSM")
	ticker := time.NewTicker(m.tickPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.tick++
			m.serviceEventQueue()
			if m.current != m.next {
				m.transition()
			}
			m.cascadeTick()
		}
	}
}

// Tick runs exactly one iteration of the loop body (service, transition,
// cascade) without sleeping — used by tests to drive the machine
// deterministically.
func (m *Machine) Tick() {
	m.tick++
	m.serviceEventQueue()
	if m.current != m.next {
		m.transition()
	}
	m.cascadeTick()
}

func (m *Machine) serviceEventQueue() {
	var ev Event
	select {
	case ev = <-m.eventQ:
	default:
		return
	}
	state := m.current
	for state != Root {
		entry := &m.table[state]
		if entry.handleEvent != nil {
			if entry.handleEvent(m, ev) == EventHandled {
				return
			}
		}
		state = entry.parent
	}
	// The walk stops below Root, so every event no other state handled
	// ends here: Root's handler posts HSM_UNHANDLED_EVENT and reports
	// Handled.
	m.table[Root].handleEvent(m, ev)
}

// ancestors returns the path from s up to and including ROOT.
func (m *Machine) ancestors(s State) []State {
	path := []State{s}
	for s != Root {
		s = m.table[s].parent
		path = append(path, s)
	}
	return path
}

// transition walks exit hooks from current up to (not including) the
// least common ancestor of current/next, then enter hooks from that LCA
// down to next. The reference walks to ROOT on both sides; this
// LCA-respecting walk is the corrected behavior spec.md §4.7 and §9
// call for.
func (m *Machine) transition() {
	fromPath := m.ancestors(m.current)
	toPath := m.ancestors(m.next)

	toIndex := make(map[State]int, len(toPath))
	for i, s := range toPath {
		toIndex[s] = i
	}

	lcaFromIdx := len(fromPath) - 1 // defaults to ROOT
	lcaToIdx := len(toPath) - 1
	for i, s := range fromPath {
		if j, ok := toIndex[s]; ok {
			lcaFromIdx = i
			lcaToIdx = j
			break
		}
	}

	for i := 0; i < lcaFromIdx; i++ {
		s := fromPath[i]
		if hook := m.table[s].exit; hook != nil {
			hook(m)
		}
	}

	m.current = m.next
	for i := lcaToIdx - 1; i >= 0; i-- {
		s := toPath[i]
		if hook := m.table[s].enter; hook != nil {
			m.enterTime = time.Now()
			hook(m)
		}
	}
}

func (m *Machine) cascadeTick() {
	state := m.current
	for state != Root {
		entry := &m.table[state]
		if entry.tick != nil {
			entry.tick(m)
		}
		state = entry.parent
	}
}
