package scpi

import "testing"

func parseLine(t *testing.T, line string) ([]Command, *ParserError) {
	t.Helper()
	var l Lexer
	l.Run([]byte(line))
	if l.Status&StatusErr != 0 {
		t.Fatalf("lexer error on %q: status=%v err=%v", line, l.Status, l.Err)
	}
	return Parse(l.Tokens[:l.Len()])
}

func TestParseRST(t *testing.T) {
	cmds, err := parseLine(t, "*RST\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmds) != 1 {
		t.Fatalf("len(cmds) = %d, want 1", len(cmds))
	}
	c := cmds[0]
	if c.Spec != SpecCommon|SpecSet {
		t.Fatalf("spec = %v, want Common|Set", c.Spec)
	}
	if len(c.Headers) != 1 || c.Headers[0] != "RST" {
		t.Fatalf("headers = %v, want [RST]", c.Headers)
	}
	if len(c.Args) != 0 {
		t.Fatalf("args = %v, want none", c.Args)
	}
}

func TestParseIDNQuery(t *testing.T) {
	cmds, err := parseLine(t, "*IDN?\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmds[0].Spec != SpecCommon|SpecQuery {
		t.Fatalf("spec = %v, want Common|Query", cmds[0].Spec)
	}
}

func TestParseSystErrQuery(t *testing.T) {
	cmds, err := parseLine(t, "SYST:ERR?\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := cmds[0]
	if c.Spec != SpecQuery {
		t.Fatalf("spec = %v, want Query", c.Spec)
	}
	if len(c.Headers) != 2 || c.Headers[0] != "SYST" || c.Headers[1] != "ERR" {
		t.Fatalf("headers = %v, want [SYST ERR]", c.Headers)
	}
}

func TestParseLeadingColonIdentical(t *testing.T) {
	a, aerr := parseLine(t, "SYST:ERR?\n")
	b, berr := parseLine(t, ":SYST:ERR?\n")
	if aerr != nil || berr != nil {
		t.Fatalf("unexpected errors: %v %v", aerr, berr)
	}
	if a[0].Spec != b[0].Spec || len(a[0].Headers) != len(b[0].Headers) {
		t.Fatalf("leading colon changed parse result: %+v vs %+v", a[0], b[0])
	}
	for i := range a[0].Headers {
		if a[0].Headers[i] != b[0].Headers[i] {
			t.Fatalf("header %d mismatch: %q vs %q", i, a[0].Headers[i], b[0].Headers[i])
		}
	}
}

func TestParseTwoCommandsOneLine(t *testing.T) {
	cmds, err := parseLine(t, "A:B;C:D?\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cmds) != 2 {
		t.Fatalf("len(cmds) = %d, want 2", len(cmds))
	}
	if cmds[0].Spec != SpecSet || len(cmds[0].Headers) != 2 || cmds[0].Headers[0] != "A" || cmds[0].Headers[1] != "B" {
		t.Fatalf("cmds[0] = %+v, want set [A B]", cmds[0])
	}
	if cmds[1].Spec != SpecQuery || len(cmds[1].Headers) != 2 || cmds[1].Headers[0] != "C" || cmds[1].Headers[1] != "D" {
		t.Fatalf("cmds[1] = %+v, want query [C D]", cmds[1])
	}
}

func TestParseDoubleColonUnexpected(t *testing.T) {
	cmds, err := parseLine(t, "::IDN\n")
	if err == nil {
		t.Fatalf("expected ParserError, got none (cmds=%v)", cmds)
	}
	if err.Code != ParserErrUnexpected {
		t.Fatalf("code = %v, want Unexpected", err.Code)
	}
	if err.TokenIdx != 1 {
		t.Fatalf("token index = %d, want 1 (second ':')", err.TokenIdx)
	}
}
