package scpi

// Pipeline wires the lexer, parser, and dispatcher into the single
// entry point the SCPI server (internal/scpiserver) calls per
// complete input line, per spec.md §2's data-flow description.
type Pipeline struct {
	Dispatcher *Dispatcher
}

func NewPipeline(d *Dispatcher) *Pipeline {
	return &Pipeline{Dispatcher: d}
}

// HandleLine lexes, parses, and dispatches one SCPI command line
// (including its trailing '\n'), returning the concatenated response
// text for every query command on the line, in input order.
func (p *Pipeline) HandleLine(line []byte) string {
	var lex Lexer
	lex.Run(line)
	if lex.Status&StatusErr != 0 {
		p.Dispatcher.ErrQueue.Push(ErrSyntax)
		return ""
	}

	commands, perr := Parse(lex.Tokens[:lex.Len()])
	if perr != nil {
		p.Dispatcher.ErrQueue.Push(ErrSyntax)
	}

	var out string
	for _, cmd := range commands {
		out += p.Dispatcher.Dispatch(cmd)
	}
	return out
}
