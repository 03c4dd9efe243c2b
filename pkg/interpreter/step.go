package interpreter

import (
	"stackvm/pkg/asm"

	"github.com/charmbracelet/log"
)

// coreStep is the single-step function for tagged programs. It returns
// (halted, error); running past the last position halts.
func coreStep(i *Interpreter) (bool, error) {
	pc := i.pc
	if pc < 0 || pc >= len(i.pb) {
		return true, nil
	}

	in := i.pb[pc]
	if i.trace {
		log.Debug("step", "pc", pc, "ins", in.String(), "stack", i.stack.String())
	}

	if in.Op == asm.OpHalt {
		return true, nil
	}

	size := i.stack.Size()
	next, err := i.dispatch(in, pc+1)
	if err != nil {
		return false, i.fault(err, in.Op, pc, size)
	}

	i.pc = next
	return false, nil
}

// dispatch applies one tagged instruction and returns the next position
func (i *Interpreter) dispatch(in asm.Instruction, next int) (int, error) {
	switch in.Op {
	case asm.OpNoop:
		return next, nil

	case asm.OpPush:
		i.stack.Push(in.Imm)
		return next, nil

	case asm.OpPop:
		_, err := i.stack.Pop()
		return next, err

	case asm.OpAdd, asm.OpSub, asm.OpMul, asm.OpDiv:
		return next, i.arith(in.Op)

	case asm.OpIncr:
		return next, i.stack.AddTop(1)

	case asm.OpDecr:
		return next, i.stack.AddTop(-1)

	case asm.OpJump:
		return address(in.Arg, len(i.pb)), nil

	case asm.OpJE, asm.OpJNE, asm.OpJGT, asm.OpJLT, asm.OpJGE, asm.OpJLE:
		taken, err := i.branch(in.Op)
		if err != nil {
			return next, err
		}
		if taken {
			return address(in.Arg, len(i.pb)), nil
		}
		return next, nil

	case asm.OpGet, asm.OpSet, asm.OpGetArg, asm.OpSetArg:
		return next, i.access(in.Op, in.Arg)

	case asm.OpPrint, asm.OpPrintC, asm.OpPrintStack:
		return next, i.print(in.Op)

	case asm.OpCall:
		i.call(next)
		return address(in.Arg, len(i.pb)), nil

	case asm.OpRet:
		return i.ret()

	default:
		return next, &Fault{Kind: InvalidOpcode}
	}
}
