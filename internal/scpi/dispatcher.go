package scpi

import (
	"strings"

	"raptor/internal/sysreg"
)

// Mnemonic is an (abbreviated, full) header pair, grounded on
// _examples/original_source/core/lib/scpi/scpi_endpoints.c's
// struct scpi_header table (IDN, RST, CONTrol, SETpoint, STATus) plus
// commands.c's SYSTem/ERRor pair for the error-queue endpoint.
type Mnemonic struct {
	Abbr string
	Full string
}

// QueryHandler answers a '?' command; a non-ErrNull return is pushed to
// the error queue instead of being written to the response.
type QueryHandler func(args []string) (response string, errc ErrCode)

// WriteHandler services a set command.
type WriteHandler func(args []string) (errc ErrCode)

// Endpoint binds a header chain to optional query/write handlers, per
// spec.md §3's "SCPI endpoint" data model.
type Endpoint struct {
	Headers []Mnemonic
	Query   QueryHandler
	Write   WriteHandler
}

// headerMatches folds token to lowercase and compares it, length-first,
// against the abbreviated or full mnemonic — length-exact comparison is
// what lets SCPI distinguish SYST from SYSTEM (spec.md §4.5).
func headerMatches(m Mnemonic, token string) bool {
	lower := strings.ToLower(token)
	switch len(token) {
	case len(m.Abbr):
		return lower == m.Abbr
	case len(m.Full):
		return lower == m.Full
	default:
		return false
	}
}

// Dispatcher resolves parsed commands against a registered endpoint
// table and executes them against the register file, grounded on
// _examples/original_source/core/lib/scpi/commands.c's
// commands_search_index/commands_process_write/commands_process_query.
type Dispatcher struct {
	Endpoints []Endpoint
	ErrQueue  *ErrQueue
}

// NewDispatcher builds the dispatcher with the core endpoint set wired
// to reg: device identification, error-queue drain, register reset,
// and the CONTrol:SETpoint / CONTrol:STATus pair (left unimplemented in
// the original commands.c's endpoint table; wired here to the register
// file's Setpoint/SysStat fields since spec.md §4.1 describes exactly
// this kind of field as the register file's purpose).
func NewDispatcher(reg *sysreg.File, errq *ErrQueue, idn string) *Dispatcher {
	d := &Dispatcher{ErrQueue: errq}
	d.Endpoints = []Endpoint{
		{
			Headers: []Mnemonic{{"idn", "idn"}},
			Query: func(args []string) (string, ErrCode) {
				return idn, ErrNull
			},
		},
		{
			Headers: []Mnemonic{{"syst", "system"}, {"err", "error"}},
			Query: func(args []string) (string, ErrCode) {
				return Format(errq.Pop()), ErrNull
			},
		},
		{
			Headers: []Mnemonic{{"rst", "rst"}},
			Write: func(args []string) ErrCode {
				_ = reg.Reset()
				return ErrNull
			},
		},
		{
			Headers: []Mnemonic{{"cont", "control"}, {"set", "setpoint"}},
			Query: func(args []string) (string, ErrCode) {
				v, err := reg.GetF32(sysreg.Setpoint)
				if err != nil {
					return "", ErrSyntax
				}
				return formatFloat(v), ErrNull
			},
			Write: func(args []string) ErrCode {
				v, ok := parseFloatArg(args)
				if !ok {
					return ErrSyntax
				}
				if err := reg.SetF32(sysreg.Setpoint, v); err != nil {
					return ErrSyntax
				}
				return ErrNull
			},
		},
		{
			Headers: []Mnemonic{{"cont", "control"}, {"stat", "status"}},
			Query: func(args []string) (string, ErrCode) {
				v, err := reg.GetU8(sysreg.SysStat)
				if err != nil {
					return "", ErrSyntax
				}
				return formatUint(uint64(v)), ErrNull
			},
		},
	}
	return d
}

// search linearly scans the endpoint table; the first endpoint whose
// header chain has the same length and matches every header wins.
func (d *Dispatcher) search(headers []string) (int, bool) {
	for i, ep := range d.Endpoints {
		if len(ep.Headers) != len(headers) {
			continue
		}
		match := true
		for j, m := range ep.Headers {
			if !headerMatches(m, headers[j]) {
				match = false
				break
			}
		}
		if match {
			return i, true
		}
	}
	return -1, false
}

// Dispatch resolves and executes one command, returning the response
// text to write to the session's output sink (empty for set commands
// or any failure, per spec.md §4.5).
func (d *Dispatcher) Dispatch(cmd Command) string {
	idx, ok := d.search(cmd.Headers)
	if !ok {
		d.ErrQueue.Push(ErrUndefinedHeader)
		return ""
	}
	ep := d.Endpoints[idx]
	switch {
	case cmd.Spec&SpecQuery != 0:
		if ep.Query == nil {
			d.ErrQueue.Push(ErrUndefinedHeader)
			return ""
		}
		resp, errc := ep.Query(cmd.Args)
		if errc != ErrNull {
			d.ErrQueue.Push(errc)
			return ""
		}
		return resp
	case cmd.Spec&SpecSet != 0:
		if ep.Write == nil {
			d.ErrQueue.Push(ErrUndefinedHeader)
			return ""
		}
		if errc := ep.Write(cmd.Args); errc != ErrNull {
			d.ErrQueue.Push(errc)
		}
		return ""
	default:
		return ""
	}
}
