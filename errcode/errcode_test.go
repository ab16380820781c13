package errcode

import (
	"errors"
	"testing"
)

func TestOfExtractsCodeDirectly(t *testing.T) {
	if got := Of(NotFound); got != NotFound {
		t.Fatalf("expected %v, got %v", NotFound, got)
	}
}

func TestOfExtractsCodeFromWrapper(t *testing.T) {
	e := &E{C: Locked, Op: "sysreg.Set", Msg: "field is locked"}
	if got := Of(e); got != Locked {
		t.Fatalf("expected %v, got %v", Locked, got)
	}
}

func TestOfDefaultsToErrorForUnknownErrors(t *testing.T) {
	if got := Of(errors.New("boom")); got != Error {
		t.Fatalf("expected %v, got %v", Error, got)
	}
}

func TestOfReturnsOKForNil(t *testing.T) {
	if got := Of(nil); got != OK {
		t.Fatalf("expected %v, got %v", OK, got)
	}
}

func TestEUnwrapReturnsCause(t *testing.T) {
	cause := errors.New("underlying")
	e := &E{C: OpErr, Err: cause}
	if !errors.Is(e, cause) {
		t.Fatal("expected errors.Is to find the wrapped cause")
	}
}

func TestEErrorIncludesMessageWhenPresent(t *testing.T) {
	e := &E{C: BadArg, Msg: "expected a number"}
	if got := e.Error(); got != "bad_arg: expected a number" {
		t.Fatalf("unexpected error string: %q", got)
	}
}

func TestEErrorFallsBackToCodeWhenNoMessage(t *testing.T) {
	e := &E{C: Timeout}
	if got := e.Error(); got != "timeout" {
		t.Fatalf("unexpected error string: %q", got)
	}
}
