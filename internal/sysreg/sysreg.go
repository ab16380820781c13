// Package sysreg implements the system register file: a fixed,
// statically-described set of typed, access-controlled fields backing
// the SCPI command pipeline and the HSM.
//
// Grounded on _examples/original_source/src/common/sysreg.h: the field
// table, access bit layout, and reset macros are carried over field for
// field. Clamp-on-write is adapted from x/mathx.Clamp.
package sysreg

import (
	"sync"

	"raptor/errcode"
	"raptor/x/mathx"
)

// Type identifies a field's semantic storage type.
type Type uint8

const (
	U8 Type = iota + 1
	U16
	U32
	F32
)

// Access is a bitfield: readable, writable, locked.
type Access uint8

const (
	AccessR Access = 1 << 0
	AccessW Access = 1 << 1
	AccessL Access = 1 << 7

	AccessRW = AccessR | AccessW
)

// Offset is a stable field identity, analogous to the reference's
// offsetof(sysreg_t, field).
type Offset uint32

const (
	GPU8 Offset = iota
	GPU8UL
	GPU16
	GPU16UL
	GPU32
	GPU32UL
	GPF32
	GPF32UL
	UUID
	SysStat
	STB
	HWVersion
	FWVersion
	Setpoint
)

// STB bit positions (IEEE-488.2 style). Only the error-queue bit is
// specified by this core; the rest are reserved for protocol use above
// this layer.
const STBErrorQueue uint8 = 1 << 2

// Semver packing for HWVersion/FWVersion, per SYSREG_SEMVER_* in the
// reference header.
func PackSemver(major, minor, patch, revision uint8) uint32 {
	return uint32(major)<<24 | uint32(minor)<<16 | uint32(patch)<<8 | uint32(revision)
}

func UnpackSemver(v uint32) (major, minor, patch, revision uint8) {
	return uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)
}

const (
	uuidReset      = uint32(0xDECAFBAD)
	hwVersionReset = uint32(0x00010000) // v0.1.0
	fwVersionReset = uint32(0x00010000) // v0.1.0
)

type field struct {
	typ    Type
	access Access
	reset  any
	min    any
	max    any
	value  any
}

// File is the process-wide register file. The zero value is not usable;
// construct with New and call Init before use.
type File struct {
	mu     sync.RWMutex
	fields map[Offset]*field
}

// New builds a register file with the default field table. Access
// defaults to AccessRW except for UUID, STB, HWVersion, and FWVersion,
// which default to read-only. GPU8, GPU16, GPU32 and GPF32 additionally
// carry the locked bit; their *UL twins do not. This matches the reference's reset semantics
// (there is no sysreg_access reset table in the original beyond this
// convention, so it is fixed here rather than left configurable).
func New() *File {
	f := &File{fields: make(map[Offset]*field, 14)}
	def := func(off Offset, typ Type, access Access, reset, min, max any) {
		f.fields[off] = &field{typ: typ, access: access, reset: reset, min: min, max: max}
	}
	def(GPU8, U8, AccessRW|AccessL, uint8(0), uint8(0), uint8(0xFF))
	def(GPU8UL, U8, AccessRW, uint8(0), uint8(0), uint8(0xFF))
	def(GPU16, U16, AccessRW|AccessL, uint16(0), uint16(0), uint16(0xFFFF))
	def(GPU16UL, U16, AccessRW, uint16(0), uint16(0), uint16(0xFFFF))
	def(GPU32, U32, AccessRW|AccessL, uint32(0), uint32(0), uint32(0xFFFFFFFF))
	def(GPU32UL, U32, AccessRW, uint32(0), uint32(0), uint32(0xFFFFFFFF))
	def(GPF32, F32, AccessRW|AccessL, float32(0), float32(-1e9), float32(1e9))
	def(GPF32UL, F32, AccessRW, float32(0), float32(-1e9), float32(1e9))
	def(UUID, U32, AccessR, uuidReset, uuidReset, uuidReset)
	def(SysStat, U8, AccessRW, uint8(0), uint8(0), uint8(0xFF))
	def(STB, U8, AccessR, uint8(0), uint8(0), uint8(0xFF))
	def(HWVersion, U32, AccessR, hwVersionReset, uint32(0), uint32(0xFFFFFFFF))
	def(FWVersion, U32, AccessR, fwVersionReset, uint32(0), uint32(0xFFFFFFFF))
	def(Setpoint, F32, AccessRW, float32(0), float32(-1e6), float32(1e6))
	return f
}

// Init validates reset ∈ [min,max] for every field and writes reset
// values. It fails (OpErr) if any field's bounds are inconsistent.
func (f *File) Init() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fl := range f.fields {
		if !boundsOK(fl) {
			return errcode.OpErr
		}
		fl.value = fl.reset
	}
	return nil
}

// Reset restores every field to its reset value.
func (f *File) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fl := range f.fields {
		fl.value = fl.reset
	}
	return nil
}

func boundsOK(fl *field) bool {
	switch fl.typ {
	case U8:
		return fl.min.(uint8) <= fl.reset.(uint8) && fl.reset.(uint8) <= fl.max.(uint8)
	case U16:
		return fl.min.(uint16) <= fl.reset.(uint16) && fl.reset.(uint16) <= fl.max.(uint16)
	case U32:
		return fl.min.(uint32) <= fl.reset.(uint32) && fl.reset.(uint32) <= fl.max.(uint32)
	case F32:
		return fl.min.(float32) <= fl.reset.(float32) && fl.reset.(float32) <= fl.max.(float32)
	default:
		return false
	}
}

// SetAccess replaces a field's access bits. It rejects the change if the
// field is currently locked, or if the new bits attempt to set the
// locked bit — the locked bit cannot be set or cleared through this API
// once a field leaves the table's construction path.
func (f *File) SetAccess(off Offset, access Access) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, ok := f.fields[off]
	if !ok {
		return errcode.NotFound
	}
	if fl.access&AccessL != 0 {
		return errcode.AccessDenied
	}
	if access&AccessL != 0 {
		return errcode.OpErr
	}
	fl.access = access
	return nil
}

func (f *File) lookup(off Offset, want Type) (*field, error) {
	fl, ok := f.fields[off]
	if !ok {
		return nil, errcode.NotFound
	}
	if fl.typ != want {
		return nil, errcode.TypeMismatch
	}
	return fl, nil
}

// GetU8 reads a u8 field, rejecting unknown offsets, type mismatches,
// and non-readable fields.
func (f *File) GetU8(off Offset) (uint8, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fl, err := f.lookup(off, U8)
	if err != nil {
		return 0, err
	}
	if fl.access&AccessR == 0 {
		return 0, errcode.AccessDenied
	}
	return fl.value.(uint8), nil
}

// SetU8 writes a u8 field, clamping to [min, max] before store.
func (f *File) SetU8(off Offset, v uint8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, err := f.lookup(off, U8)
	if err != nil {
		return err
	}
	if fl.access&AccessW == 0 {
		return errcode.AccessDenied
	}
	fl.value = mathx.Clamp(v, fl.min.(uint8), fl.max.(uint8))
	return nil
}

// GetU16 reads a u16 field.
func (f *File) GetU16(off Offset) (uint16, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fl, err := f.lookup(off, U16)
	if err != nil {
		return 0, err
	}
	if fl.access&AccessR == 0 {
		return 0, errcode.AccessDenied
	}
	return fl.value.(uint16), nil
}

// SetU16 writes a u16 field, clamping to [min, max] before store.
func (f *File) SetU16(off Offset, v uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, err := f.lookup(off, U16)
	if err != nil {
		return err
	}
	if fl.access&AccessW == 0 {
		return errcode.AccessDenied
	}
	fl.value = mathx.Clamp(v, fl.min.(uint16), fl.max.(uint16))
	return nil
}

// GetU32 reads a u32 field.
func (f *File) GetU32(off Offset) (uint32, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fl, err := f.lookup(off, U32)
	if err != nil {
		return 0, err
	}
	if fl.access&AccessR == 0 {
		return 0, errcode.AccessDenied
	}
	return fl.value.(uint32), nil
}

// SetU32 writes a u32 field, clamping to [min, max] before store.
func (f *File) SetU32(off Offset, v uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, err := f.lookup(off, U32)
	if err != nil {
		return err
	}
	if fl.access&AccessW == 0 {
		return errcode.AccessDenied
	}
	fl.value = mathx.Clamp(v, fl.min.(uint32), fl.max.(uint32))
	return nil
}

// GetF32 reads an f32 field.
func (f *File) GetF32(off Offset) (float32, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	fl, err := f.lookup(off, F32)
	if err != nil {
		return 0, err
	}
	if fl.access&AccessR == 0 {
		return 0, errcode.AccessDenied
	}
	return fl.value.(float32), nil
}

// SetF32 writes an f32 field, clamping to [min, max] before store.
func (f *File) SetF32(off Offset, v float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl, err := f.lookup(off, F32)
	if err != nil {
		return err
	}
	if fl.access&AccessW == 0 {
		return errcode.AccessDenied
	}
	fl.value = mathx.Clamp(v, fl.min.(float32), fl.max.(float32))
	return nil
}

// SetStatusBit is a convenience accessor over the STB field used by the
// error queue (internal/scpi) to set/clear the error-queue bit without
// going through the generic, type-checked Get/SetU8 path's access
// control (the status byte's error-queue bit is owned by the error
// queue, not by SCPI command handlers).
func (f *File) SetStatusBit(bit uint8, set bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fl := f.fields[STB]
	v := fl.value.(uint8)
	if set {
		v |= bit
	} else {
		v &^= bit
	}
	fl.value = v
}

func (f *File) StatusByte() uint8 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fields[STB].value.(uint8)
}
