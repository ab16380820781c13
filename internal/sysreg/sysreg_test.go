package sysreg

import (
	"testing"

	"raptor/errcode"
)

func newInitialized(t *testing.T) *File {
	t.Helper()
	f := New()
	if err := f.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return f
}

func TestInitWritesResetValues(t *testing.T) {
	f := newInitialized(t)
	if v, err := f.GetU32(UUID); err != nil || v != uuidReset {
		t.Fatalf("UUID after init = %v, %v", v, err)
	}
}

func TestSetWithinRangeRoundTrips(t *testing.T) {
	f := newInitialized(t)
	if err := f.SetU16(GPU16, 1234); err != nil {
		t.Fatalf("SetU16: %v", err)
	}
	got, err := f.GetU16(GPU16)
	if err != nil || got != 1234 {
		t.Fatalf("GetU16 = %v, %v, want 1234", got, err)
	}
}

func TestSetClampsAboveMax(t *testing.T) {
	f := newInitialized(t)
	if err := f.SetF32(Setpoint, 1e9); err != nil {
		t.Fatalf("SetF32: %v", err)
	}
	got, err := f.GetF32(Setpoint)
	if err != nil {
		t.Fatalf("GetF32: %v", err)
	}
	if got != 1e6 {
		t.Fatalf("GetF32 = %v, want clamp to max 1e6", got)
	}
}

func TestSetClampsBelowMin(t *testing.T) {
	f := newInitialized(t)
	if err := f.SetF32(Setpoint, -1e9); err != nil {
		t.Fatalf("SetF32: %v", err)
	}
	got, _ := f.GetF32(Setpoint)
	if got != -1e6 {
		t.Fatalf("GetF32 = %v, want clamp to min -1e6", got)
	}
}

func TestSetNonWritableFieldDeniedAndUnchanged(t *testing.T) {
	f := newInitialized(t)
	before, _ := f.GetU32(UUID)
	if err := f.SetU32(UUID, 0xCAFEBABE); err == nil {
		t.Fatalf("SetU32 on read-only field succeeded, want AccessDenied")
	}
	after, _ := f.GetU32(UUID)
	if after != before {
		t.Fatalf("UUID mutated despite denied write: before=%x after=%x", before, after)
	}
}

func TestSetAccessOnLockedFieldDenied(t *testing.T) {
	f := newInitialized(t)
	// The field table locks GPU8; its GPU8UL twin is unlocked.
	if err := f.SetAccess(GPU8UL, AccessRW); err != nil {
		t.Fatalf("SetAccess on unlocked GPU8UL: %v", err)
	}
	if err := f.SetAccess(GPU8, AccessRW); err != errcode.AccessDenied {
		t.Fatalf("SetAccess on locked field = %v, want AccessDenied", err)
	}
}

func TestSetAccessRejectsSettingLockBitDirectly(t *testing.T) {
	f := newInitialized(t)
	if err := f.SetAccess(GPU16UL, AccessRW|AccessL); err != errcode.OpErr {
		t.Fatalf("SetAccess attempting to set lock bit = %v, want OpErr", err)
	}
	// The rejected call left the field unlocked, so a plain access change still succeeds.
	if err := f.SetAccess(GPU16UL, AccessR); err != nil {
		t.Fatalf("SetAccess after rejected lock attempt = %v, want nil", err)
	}
}

func TestTypeMismatch(t *testing.T) {
	f := newInitialized(t)
	if _, err := f.GetU32(GPU8); err == nil {
		t.Fatalf("GetU32 on a u8 field succeeded, want TypeMismatch")
	}
}

func TestNotFound(t *testing.T) {
	f := newInitialized(t)
	if _, err := f.GetU8(Offset(9999)); err == nil {
		t.Fatalf("GetU8 on unknown offset succeeded, want NotFound")
	}
}

func TestResetRestoresValues(t *testing.T) {
	f := newInitialized(t)
	if err := f.SetU16(GPU16, 42); err != nil {
		t.Fatalf("SetU16: %v", err)
	}
	if err := f.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	got, _ := f.GetU16(GPU16)
	if got != 0 {
		t.Fatalf("GetU16 after reset = %v, want 0", got)
	}
}

func TestStatusByteBitToggle(t *testing.T) {
	f := newInitialized(t)
	f.SetStatusBit(STBErrorQueue, true)
	if f.StatusByte()&STBErrorQueue == 0 {
		t.Fatalf("status byte error-queue bit not set")
	}
	f.SetStatusBit(STBErrorQueue, false)
	if f.StatusByte()&STBErrorQueue != 0 {
		t.Fatalf("status byte error-queue bit not cleared")
	}
}

func TestSemverPacking(t *testing.T) {
	v := PackSemver(1, 2, 3, 4)
	major, minor, patch, rev := UnpackSemver(v)
	if major != 1 || minor != 2 || patch != 3 || rev != 4 {
		t.Fatalf("UnpackSemver(%x) = %d.%d.%d.%d", v, major, minor, patch, rev)
	}
}
