package scpi

// Package-level lexer constants, grounded on
// _examples/original_source/core/lib/scpi/lexer.c (SCPI_MAX_TOKEN_LEN,
// the single-character classification) with the classification table
// taken literally from the distilled spec rather than the reference's
// redundant (and effectively unreachable) default branch in
// handle_sc_token — the reference never actually rejects a stray
// character, which the spec's testable properties require ('@' must
// set UnsupportedChar).
const (
	MaxTokens       = 30
	MaxIdentLen     = 15
	HdrSepChar      = ':'
	CmdSepChar      = ';'
	ArgSepChar      = ','
	SpaceChar       = ' '
	EOSChar         = '\n'
	QueryChar       = '?'
	CommonChar      = '*'
)

// TokenType tags a lexer token. Each variant carries exactly its
// payload: Text is populated only for TTIdentifier.
type TokenType uint8

const (
	TTNull TokenType = iota
	TTIdentifier
	TTSpace
	TTArgSep
	TTHdrSep
	TTCmdSep
	TTCommon
	TTQuery
	TTEOS
)

func (t TokenType) String() string {
	switch t {
	case TTIdentifier:
		return "identifier"
	case TTSpace:
		return "space"
	case TTArgSep:
		return "arg_sep"
	case TTHdrSep:
		return "hdr_sep"
	case TTCmdSep:
		return "cmd_sep"
	case TTCommon:
		return "common"
	case TTQuery:
		return "query"
	case TTEOS:
		return "eos"
	default:
		return "null"
	}
}

// Token is a tagged union over the lexer's token alphabet.
type Token struct {
	Type TokenType
	Text string // populated only when Type == TTIdentifier
}

// Status bits, set on the lexer handle as classification proceeds.
type Status uint8

const (
	StatusEOS Status = 1 << iota
	StatusEOH
	StatusErr
)

// Err bits, refining StatusErr.
type Err uint8

const (
	ErrLexemeOverflow Err = 1 << iota
	ErrUnsupportedChar
)

// Lexer consumes a byte buffer and produces a bounded token sequence,
// per spec.md §4.3. The zero value is ready to use.
type Lexer struct {
	Tokens [MaxTokens]Token
	tidx   int
	prevTT TokenType
	Status Status
	Err    Err
}

// Init resets the lexer to a freshly-constructed state.
func (l *Lexer) Init() {
	*l = Lexer{}
}

// Run classifies buf, appending tokens until the first of: EOS
// character, a classification error, end of input, or the token table
// filling. It may be called repeatedly on successive chunks of the same
// logical line without re-Init, since the SCPI server buffers whole
// lines before invoking the lexer (spec.md §9, fragmentation decision).
func (l *Lexer) Run(buf []byte) {
	for _, c := range buf {
		if l.Status&(StatusEOS|StatusErr) != 0 {
			return
		}
		l.classify(c)
	}
}

func (l *Lexer) classify(c byte) {
	switch {
	case c == HdrSepChar:
		l.appendSingle(TTHdrSep)
	case c == CmdSepChar:
		l.appendSingle(TTCmdSep)
	case c == ArgSepChar:
		l.appendSingle(TTArgSep)
	case c == SpaceChar:
		l.appendSingle(TTSpace)
	case c == EOSChar:
		l.Status |= StatusEOS
		l.appendSingle(TTEOS)
	case c == QueryChar:
		l.appendSingle(TTQuery)
	case c == CommonChar:
		l.appendSingle(TTCommon)
	case isIdentChar(c):
		l.appendIdentChar(c)
	default:
		l.Status |= StatusErr
		l.Err |= ErrUnsupportedChar
	}
}

func isIdentChar(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// appendSingle finalizes any in-progress identifier and emits a new
// single-character token, mirroring append_char's token/char index
// bookkeeping in lexer.c.
func (l *Lexer) appendSingle(t TokenType) {
	if l.prevTT != TTNull {
		l.tidx++
	}
	if l.tidx >= MaxTokens {
		l.Status |= StatusErr
		l.Err |= ErrLexemeOverflow
		return
	}
	l.Tokens[l.tidx] = Token{Type: t}
	l.prevTT = t
}

// appendIdentChar extends the current identifier token, or starts a new
// one if the previous token was not an identifier.
func (l *Lexer) appendIdentChar(c byte) {
	if l.prevTT == TTIdentifier {
		tok := &l.Tokens[l.tidx]
		if len(tok.Text) >= MaxIdentLen {
			l.Status |= StatusErr
			l.Err |= ErrLexemeOverflow
			return
		}
		tok.Text += string(c)
		return
	}
	if l.prevTT != TTNull {
		l.tidx++
	}
	if l.tidx >= MaxTokens {
		l.Status |= StatusErr
		l.Err |= ErrLexemeOverflow
		return
	}
	l.Tokens[l.tidx] = Token{Type: TTIdentifier, Text: string(c)}
	l.prevTT = TTIdentifier
}

// Len returns the number of tokens produced so far.
func (l *Lexer) Len() int {
	if l.prevTT == TTNull {
		return 0
	}
	return l.tidx + 1
}
