package asm

import (
	"stackvm/pkg/lexer"

	"github.com/charmbracelet/log"
)

// Directive keywords understood by the resolver and encoder
const (
	KeywordLabel = "label"
	KeywordProc  = "Proc"
	KeywordEnd   = "End"
	KeywordCall  = "Call"
)

// Labels maps a label name to its program position
type Labels map[string]int

// Span locates a procedure: Decl is the position of its Proc line and End
// is the position right after its End line.
type Span struct {
	Decl int `cbor:"1,keyasint"`
	End  int `cbor:"2,keyasint"`
}

// Entry is the position of the first instruction of the procedure body
func (s Span) Entry() int {
	return s.Decl + 1
}

// Procedures maps a procedure name to its span
type Procedures map[string]Span

// Resolve scans the lines once and records every label and procedure.
// The first End after a Proc closes it; procedures do not nest.
func Resolve(lines []lexer.Line) (Labels, Procedures, error) {
	labels := make(Labels)
	procs := make(Procedures)

	open := -1 // position of the Proc line currently open
	var openName string

	for pos, line := range lines {
		switch line.Head() {
		case KeywordLabel:
			if len(line.Tokens) != 2 {
				return nil, nil, newError(MalformedInstruction, line, "label expects exactly one name")
			}
			name := line.Tokens[1].Text
			if _, exists := labels[name]; exists {
				return nil, nil, newError(DuplicateLabel, line, "`"+name+"`")
			}
			labels[name] = pos

		case KeywordProc:
			if len(line.Tokens) != 2 {
				return nil, nil, newError(MalformedInstruction, line, "Proc expects exactly one name")
			}
			if open >= 0 {
				return nil, nil, newError(NestedProcedure, line, "`"+line.Tokens[1].Text+"` inside `"+openName+"`")
			}
			name := line.Tokens[1].Text
			if _, exists := procs[name]; exists {
				return nil, nil, newError(DuplicateProcedure, line, "`"+name+"`")
			}
			open, openName = pos, name

		case KeywordEnd:
			// a stray End outside a procedure is a no-op
			if open >= 0 {
				procs[openName] = Span{Decl: open, End: pos + 1}
				log.Debug("Resolved procedure", "name", openName, "decl", open, "end", pos+1)
				open, openName = -1, ""
			}
		}
	}

	if open >= 0 {
		return nil, nil, newError(UnterminatedProc, lines[open], "`"+openName+"` has no End")
	}

	log.Debug("Resolved symbols", "labels", len(labels), "procedures", len(procs))
	return labels, procs, nil
}
