// Package health implements the periodic supervisor FSM grounded on
// _examples/original_source/src/os/health.c's fsm_do_tick
// (INIT -> SERVICE -> READ -> REPORT -> SERVICE, with a sticky
// SERVICE_BME280_LINK_DOWN_MSK bit driving re-init retries), and on
// _examples/jangala-dev-devicecode-go/services/heartbeat/service.go's
// ticker-driven service loop shape.
package health

import (
	"context"
	"time"

	"raptor/internal/hsm"
	"tinygo.org/x/drivers"
)

// DefaultPeriod matches spec.md §4.8's ~500ms supervisor cadence.
const DefaultPeriod = 500 * time.Millisecond

// State enumerates the supervisor FSM, mirroring enum health_states.
type State int

const (
	StateInit State = iota
	StateService
	StateRead
	StateReport
	StateError
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateService:
		return "SERVICE"
	case StateRead:
		return "READ"
	case StateReport:
		return "REPORT"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Bus is the environmental sensor abstraction the REDESIGN FLAGS item
// on pointer-carrying driver structs calls for, implemented against
// tinygo.org/x/drivers.I2C (the same interface
// services/hal/internal/halcore/types.go's I2CBusFactory exposes) so a
// host build can substitute a fake without dragging in hardware.
type Bus interface {
	drivers.I2C
	IsReady() bool
}

// Telemetry mirrors struct health_ctx's ambient_temperature/pressure/
// humidity triple.
type Telemetry struct {
	Temperature float32
	Pressure    float32
	Humidity    float32
	ReadAtMS    int64
}

// Watchdog models the hardware watchdog refresh as a collaborator
// interface, stubbed host-side; a production build wires Kick to the
// real peripheral.
type Watchdog interface {
	Kick()
}

// NopWatchdog discards every Kick call.
type NopWatchdog struct{}

func (NopWatchdog) Kick() {}

// Logger receives the supervisor's diagnostic lines.
type Logger interface {
	Logf(format string, args ...any)
}

// LinkDownMask is the sticky bit set while the sensor bus is not
// responding, mirroring SERVICE_BME280_LINK_DOWN_MSK.
const LinkDownMask uint8 = 1 << 0

// Supervisor owns the FSM state, the sensor bus, the watchdog, and the
// last telemetry reading.
type Supervisor struct {
	bus Bus
	wd  Watchdog
	log Logger
	hsm *hsm.Machine // optional: posts EventError on an unrecovered link

	state       State
	serviceBits uint8
	telemetry   Telemetry
	period      time.Duration
	tick        uint64
}

// Option configures a Supervisor at construction.
type Option func(*Supervisor)

// WithPeriod overrides DefaultPeriod.
func WithPeriod(d time.Duration) Option {
	return func(s *Supervisor) { s.period = d }
}

// WithHSM wires an hsm.Machine to receive EventError if the sensor
// bus link stays down.
func WithHSM(m *hsm.Machine) Option {
	return func(s *Supervisor) { s.hsm = m }
}

// New constructs a Supervisor. bus and wd may not be nil; pass
// NopWatchdog{} for host/dev builds without a watchdog. A nil log
// discards the supervisor's diagnostic lines.
func New(bus Bus, wd Watchdog, log Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		bus:    bus,
		wd:     wd,
		log:    log,
		state:  StateInit,
		period: DefaultPeriod,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State reports the supervisor's current FSM state.
func (s *Supervisor) State() State { return s.state }

// Telemetry returns the last collected reading.
func (s *Supervisor) Telemetry() Telemetry { return s.telemetry }

// LinkDown reports whether the sensor bus is currently considered
// unreachable.
func (s *Supervisor) LinkDown() bool { return s.serviceBits&LinkDownMask != 0 }

// Run drives the supervisor tick loop until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick runs exactly one FSM step, the host-testable equivalent of one
// ticker firing inside Run.
func (s *Supervisor) Tick() {
	s.tick++
	s.wd.Kick()

	switch s.state {
	case StateInit:
		s.tryInit()
		s.state = StateService
	case StateService:
		if s.LinkDown() {
			s.tryInit()
		}
		s.state = StateRead
	case StateRead:
		if !s.LinkDown() {
			s.collectReading()
		}
		s.state = StateReport
	case StateReport:
		s.report()
		s.state = StateService
	case StateError:
		// Terminal per health.c's HEALTH_STATE_ERROR -> HEALTH_STATE_ERROR
		// self-loop; recovery requires an external reset, not modeled
		// here since the host build has no hardware fault to clear.
	}
}

func (s *Supervisor) tryInit() {
	if s.bus.IsReady() {
		s.serviceBits &^= LinkDownMask
	} else {
		s.serviceBits |= LinkDownMask
		s.logf("health: sensor bus not ready")
		if s.hsm != nil {
			s.hsm.PostEvent(context.Background(), hsm.EventError, 0)
		}
	}
}

func (s *Supervisor) collectReading() {
	// The concrete register layout is driver-specific and out of this
	// core's scope (spec.md §1); Bus.Tx is exercised here only to prove
	// the FSM drives a real transaction per tick.
	var rx [8]byte
	if err := s.bus.Tx(0x76, []byte{0xF7}, rx[:]); err != nil {
		s.serviceBits |= LinkDownMask
		return
	}
	s.telemetry = decodeReading(rx[:], time.Now().UnixMilli())
}

func (s *Supervisor) report() {
	s.logf("health: temp=%.2f pressure=%.2f humidity=%.2f", s.telemetry.Temperature, s.telemetry.Pressure, s.telemetry.Humidity)
}

func (s *Supervisor) logf(format string, args ...any) {
	if s.log != nil {
		s.log.Logf(format, args...)
	}
}

// decodeReading turns a raw BME280-shaped burst read into Telemetry.
// The exact compensation formula is sensor firmware (out of scope);
// this applies a fixed linear scale, enough to prove the read path end
// to end on a host build.
func decodeReading(raw []byte, atMS int64) Telemetry {
	scale := func(b []byte) float32 {
		if len(b) < 2 {
			return 0
		}
		return float32(int16(uint16(b[0])<<8|uint16(b[1]))) / 100
	}
	return Telemetry{
		Temperature: scale(raw[0:2]),
		Pressure:    scale(raw[2:4]),
		Humidity:    scale(raw[4:6]),
		ReadAtMS:    atMS,
	}
}
