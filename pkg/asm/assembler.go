package asm

import (
	"fmt"
	"strconv"

	"stackvm/pkg/lexer"

	"github.com/charmbracelet/log"
)

var zeroOperandOps = map[string]Opcode{
	"Pop":        OpPop,
	"Add":        OpAdd,
	"Sub":        OpSub,
	"Mul":        OpMul,
	"Div":        OpDiv,
	"Incr":       OpIncr,
	"Decr":       OpDecr,
	"Print":      OpPrint,
	"PrintC":     OpPrintC,
	"PrintStack": OpPrintStack,
	"Ret":        OpRet,
	"Noop":       OpNoop,
}

var branchOps = map[string]Opcode{
	"Jump": OpJump,
	"JE":   OpJE,
	"JNE":  OpJNE,
	"JGT":  OpJGT,
	"JLT":  OpJLT,
	"JGE":  OpJGE,
	"JLE":  OpJLE,
}

var indexOps = map[string]Opcode{
	"Get":    OpGet,
	"Set":    OpSet,
	"GetArg": OpGetArg,
	"SetArg": OpSetArg,
}

// Program is an assembled, read-only instruction list with the symbol
// tables it was resolved against.
type Program struct {
	Instructions []Instruction
	Labels       Labels
	Procedures   Procedures
	SourceLines  []int // source line number of each position
}

// Len returns the number of program positions
func (p *Program) Len() int {
	return len(p.Instructions)
}

// SourceLine returns the source line of a position, or 0 when unknown
func (p *Program) SourceLine(pos int) int {
	if pos < 0 || pos >= len(p.SourceLines) {
		return 0
	}
	return p.SourceLines[pos]
}

// AssembleSource tokenizes and assembles source text
func AssembleSource(src string) (*Program, error) {
	return Assemble(lexer.NewLexer(src).Lines())
}

// Assemble resolves labels and procedures, then encodes every line into
// exactly one instruction.
func Assemble(lines []lexer.Line) (*Program, error) {
	labels, procs, err := Resolve(lines)
	if err != nil {
		return nil, err
	}

	e := encoder{labels: labels, procs: procs, size: len(lines)}
	prog := &Program{
		Instructions: make([]Instruction, 0, len(lines)),
		Labels:       labels,
		Procedures:   procs,
		SourceLines:  make([]int, 0, len(lines)),
	}

	for _, line := range lines {
		in, err := e.encodeLine(line)
		if err != nil {
			return nil, err
		}
		prog.Instructions = append(prog.Instructions, in)
		prog.SourceLines = append(prog.SourceLines, line.Pos.Line)
	}

	log.Debug("Assembled program", "instructions", prog.Len())
	return prog, nil
}

type encoder struct {
	labels Labels
	procs  Procedures
	size   int // program length, the largest valid jump target
}

// encodeLine lowers one tokenized line
func (e *encoder) encodeLine(line lexer.Line) (Instruction, error) {
	if len(line.Tokens) == 0 {
		return NewInstruction(OpNoop), nil
	}

	head := line.Head()
	args := line.Tokens[1:]

	switch head {
	case KeywordLabel, KeywordEnd:
		// resolver already validated label lines; both only hold a position
		if head == KeywordEnd && len(args) != 0 {
			return Instruction{}, newError(MalformedInstruction, line, "End takes no operand")
		}
		return NewInstruction(OpNoop), nil

	case KeywordProc:
		span, ok := e.procs[args[0].Text]
		if !ok {
			return Instruction{}, undefinedProcedureError(args[0].Text, line)
		}
		return NewWithArg(OpJump, uint64(span.End)), nil

	case KeywordCall:
		if len(args) != 1 {
			return Instruction{}, newError(MalformedInstruction, line, "Call expects a procedure name")
		}
		span, ok := e.procs[args[0].Text]
		if !ok {
			return Instruction{}, undefinedProcedureError(args[0].Text, line)
		}
		return NewWithArg(OpCall, uint64(span.Entry())), nil

	case "Push":
		if len(args) != 1 {
			return Instruction{}, newError(MalformedInstruction, line, "Push expects one integer")
		}
		if !args[0].IsInteger() {
			return Instruction{}, newError(InvalidLiteral, line, "`"+args[0].Text+"`: not an integer")
		}
		v, err := strconv.ParseInt(args[0].Text, 10, 64)
		if err != nil {
			return Instruction{}, invalidLiteralError(args[0].Text, line, err)
		}
		return NewPush(v), nil
	}

	if op, ok := zeroOperandOps[head]; ok {
		if len(args) != 0 {
			return Instruction{}, newError(MalformedInstruction, line, fmt.Sprintf("%s takes no operand", head))
		}
		return NewInstruction(op), nil
	}

	if op, ok := branchOps[head]; ok {
		if len(args) != 1 {
			return Instruction{}, newError(MalformedInstruction, line, fmt.Sprintf("%s expects one target", head))
		}
		target, err := e.resolveTarget(args[0], line)
		if err != nil {
			return Instruction{}, err
		}
		return NewWithArg(op, uint64(target)), nil
	}

	if op, ok := indexOps[head]; ok {
		if len(args) != 1 {
			return Instruction{}, newError(MalformedInstruction, line, fmt.Sprintf("%s expects one index", head))
		}
		if args[0].Kind != lexer.UINT {
			return Instruction{}, newError(InvalidLiteral, line, "`"+args[0].Text+"`: not an unsigned integer")
		}
		idx, err := strconv.ParseUint(args[0].Text, 10, 64)
		if err != nil {
			return Instruction{}, invalidLiteralError(args[0].Text, line, err)
		}
		return NewWithArg(op, idx), nil
	}

	return Instruction{}, newError(UnknownInstruction, line, "`"+head+"`")
}

// resolveTarget turns a jump operand into a position. Label names win over
// numeric positions.
func (e *encoder) resolveTarget(tok lexer.Token, line lexer.Line) (int, error) {
	if pos, ok := e.labels[tok.Text]; ok {
		return pos, nil
	}

	if tok.Kind != lexer.UINT {
		return 0, undefinedLabelError(tok.Text, line)
	}

	pos, err := strconv.ParseUint(tok.Text, 10, 64)
	if err != nil {
		return 0, invalidLiteralError(tok.Text, line, err)
	}
	if pos > uint64(e.size) {
		return 0, newError(TargetOutOfRange, line, fmt.Sprintf("position %d, program has %d", pos, e.size))
	}
	return int(pos), nil
}
