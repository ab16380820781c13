package scpi

import "testing"

func tokensOf(t *testing.T, line string) *Lexer {
	t.Helper()
	var l Lexer
	l.Run([]byte(line))
	return &l
}

func TestLexIDNQuery(t *testing.T) {
	l := tokensOf(t, "*IDN?\n")
	want := []TokenType{TTCommon, TTIdentifier, TTQuery, TTEOS}
	if l.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", l.Len(), len(want))
	}
	for i, w := range want {
		if l.Tokens[i].Type != w {
			t.Fatalf("token %d = %v, want %v", i, l.Tokens[i].Type, w)
		}
	}
	if l.Tokens[1].Text != "IDN" {
		t.Fatalf("identifier text = %q, want IDN", l.Tokens[1].Text)
	}
	if l.Status&StatusEOS == 0 {
		t.Fatalf("EOS status not set")
	}
}

func TestLexSystErrQuery(t *testing.T) {
	l := tokensOf(t, "SYST:ERR?\n")
	want := []TokenType{TTIdentifier, TTHdrSep, TTIdentifier, TTQuery, TTEOS}
	if l.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", l.Len(), len(want))
	}
	for i, w := range want {
		if l.Tokens[i].Type != w {
			t.Fatalf("token %d = %v, want %v", i, l.Tokens[i].Type, w)
		}
	}
}

func TestLexIdentifierOverflow(t *testing.T) {
	l := tokensOf(t, "ABCDEFGHIJKLMNOP\n") // 16 chars
	if l.Status&StatusErr == 0 || l.Err&ErrLexemeOverflow == 0 {
		t.Fatalf("status=%v err=%v, want LexemeOverflow", l.Status, l.Err)
	}
}

func TestLexUnsupportedChar(t *testing.T) {
	l := tokensOf(t, "@\n")
	if l.Status&StatusErr == 0 || l.Err&ErrUnsupportedChar == 0 {
		t.Fatalf("status=%v err=%v, want UnsupportedChar", l.Status, l.Err)
	}
}
