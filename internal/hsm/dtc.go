package hsm

// DTCID is a diagnostic trouble code identity, grounded on
// _examples/original_source/src/common/dtc.h.
type DTCID uint8

const (
	DTCNone DTCID = iota
	DTCCount
	DTCHSMUnhandledEvent
)

// DTCEvent pairs a trouble code with the tick it was raised on.
type DTCEvent struct {
	Tick  uint64
	Event DTCID
}
