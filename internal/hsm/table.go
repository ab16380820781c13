package hsm

// State enumerates the HSM's state tree, grounded on
// _examples/original_source/src/os/hsm.c's enum hsm_state / state_table.
// ROOT ⊃ {RESET, INIT, IDLE, RUN, STOP, ERROR, CALIBRATION}; RUN ⊃
// {RUN_STARTUP, RUN_PROFILE}.
type State int

const (
	Root State = iota
	Reset
	Init
	Idle
	Run
	RunStartup
	RunProfile
	Stop
	Error
	Calibration

	stateCount
)

func (s State) String() string {
	switch s {
	case Root:
		return "ROOT"
	case Reset:
		return "RESET"
	case Init:
		return "INIT"
	case Idle:
		return "IDLE"
	case Run:
		return "RUN"
	case RunStartup:
		return "RUN_STARTUP"
	case RunProfile:
		return "RUN_PROFILE"
	case Stop:
		return "STOP"
	case Error:
		return "ERROR"
	case Calibration:
		return "CALIBRATION"
	default:
		return "UNKNOWN"
	}
}

// Event is an HSM input tag, grounded on hsm.c's enum hsm_event.
type Event int

const (
	EventNone Event = iota
	EventRun
	EventStop
	EventAbort
	EventCalibration
	EventClearError
	EventError
)

// HandleResult reports whether a state's handler consumed an event.
type HandleResult int

const (
	EventUnhandled HandleResult = iota
	EventHandled
)

// stateEntry mirrors state_table_entry: a parent link plus optional
// enter/tick/exit/handle_event hooks. Any hook may be nil.
type stateEntry struct {
	parent      State
	enter       func(m *Machine)
	tick        func(m *Machine)
	exit        func(m *Machine)
	handleEvent func(m *Machine, ev Event) HandleResult
}

// buildTable constructs the static state table, grounded entry-for-entry
// on hsm.c's state_table literal.
func buildTable() [stateCount]stateEntry {
	var t [stateCount]stateEntry

	t[Root] = stateEntry{parent: Root, handleEvent: handleEventRoot}

	t[Reset] = stateEntry{parent: Root, enter: enterReset, tick: tickReset, exit: exitReset}
	t[Init] = stateEntry{parent: Root, tick: tickInit}
	t[Idle] = stateEntry{parent: Root, enter: enterIdle, tick: tickIdle, exit: exitIdle, handleEvent: handleEventIdle}

	t[Run] = stateEntry{parent: Root, enter: enterRun, tick: tickRun, exit: exitRun, handleEvent: handleEventRun}
	t[RunStartup] = stateEntry{parent: Run, tick: tickRunStartup}
	t[RunProfile] = stateEntry{parent: Run}

	t[Stop] = stateEntry{parent: Root, tick: tickStop}
	t[Error] = stateEntry{parent: Root, enter: enterError, tick: tickError, exit: exitError, handleEvent: handleEventError}
	t[Calibration] = stateEntry{parent: Root, handleEvent: handleEventCalibration}

	return t
}

func handleEventRoot(m *Machine, ev Event) HandleResult {
	m.log("unhandled event %d in state %s", ev, m.current)
	m.postDTC(DTCHSMUnhandledEvent)
	return EventHandled
}

func tickInit(m *Machine) {
	// power_manager_init / esc_engine_init in the reference are external
	// subsystem collaborators out of this core's scope (spec.md §1); the
	// transition is the observable contract.
	m.next = Idle
}

func enterReset(m *Machine) {
	m.log("HSM reset")
	for id := LEDID(0); id < LEDCount; id++ {
		m.leds.Disable(id)
	}
}

func tickReset(m *Machine) {
	for id := LEDID(0); id < LEDCount; id++ {
		m.leds.Toggle(id)
	}
	m.next = Init
}

func exitReset(m *Machine) {
	for id := LEDID(0); id < LEDCount; id++ {
		m.leds.Disable(id)
	}
}

func enterIdle(m *Machine) {
	m.log("HSM entering idle")
	m.leds.Enable(LEDIdle)
}

func tickIdle(m *Machine) { m.leds.Toggle(LEDIdle) }

func exitIdle(m *Machine) { m.leds.Disable(LEDIdle) }

func handleEventIdle(m *Machine, ev Event) HandleResult {
	switch ev {
	case EventRun:
		m.next = RunStartup
		return EventHandled
	case EventCalibration:
		m.next = Calibration
		return EventHandled
	default:
		return EventUnhandled
	}
}

func enterRun(m *Machine) {
	m.log("HSM entering run")
	m.leds.Enable(LEDRun)
}

func tickRun(m *Machine) { m.leds.Toggle(LEDRun) }

func exitRun(m *Machine) { m.leds.Disable(LEDRun) }

func handleEventRun(m *Machine, ev Event) HandleResult {
	switch ev {
	case EventAbort, EventStop:
		m.next = Stop
		return EventHandled
	default:
		return EventUnhandled
	}
}

func tickRunStartup(m *Machine) {
	m.next = RunProfile
}

func tickStop(m *Machine) {
	if m.pendingDTC != DTCNone {
		m.next = Error
	} else {
		m.next = Idle
	}
}

func enterError(m *Machine) {
	if m.pendingDTC != DTCNone {
		m.postDTC(m.pendingDTC)
		m.pendingDTC = DTCNone
	}
	m.leds.Enable(LEDError)
}

func tickError(m *Machine) { m.leds.Toggle(LEDError) }

func exitError(m *Machine) { m.leds.Disable(LEDError) }

func handleEventError(m *Machine, ev Event) HandleResult {
	if ev == EventClearError {
		m.next = Idle
		return EventHandled
	}
	return EventUnhandled
}

func handleEventCalibration(m *Machine, ev Event) HandleResult {
	switch ev {
	case EventAbort, EventStop:
		m.next = Idle
		return EventHandled
	default:
		return EventUnhandled
	}
}
