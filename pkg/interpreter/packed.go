package interpreter

import (
	"stackvm/pkg/asm"

	"github.com/charmbracelet/log"
)

// packedHandler applies one decoded byte code instruction. next is the
// offset right after the instruction; the handler returns where to go.
type packedHandler func(i *Interpreter, operand uint64, next int) (int, error)

// packedHandlers is indexed by opcode. OpHalt has no handler, packedStep
// stops on it before dispatching.
var packedHandlers = [asm.OpCount]packedHandler{
	asm.OpNoop: func(i *Interpreter, _ uint64, next int) (int, error) {
		return next, nil
	},
	asm.OpPush: func(i *Interpreter, v uint64, next int) (int, error) {
		i.stack.Push(int64(v))
		return next, nil
	},
	asm.OpPop: func(i *Interpreter, _ uint64, next int) (int, error) {
		_, err := i.stack.Pop()
		return next, err
	},
	asm.OpAdd: arithHandler(asm.OpAdd),
	asm.OpSub: arithHandler(asm.OpSub),
	asm.OpMul: arithHandler(asm.OpMul),
	asm.OpDiv: arithHandler(asm.OpDiv),
	asm.OpIncr: func(i *Interpreter, _ uint64, next int) (int, error) {
		return next, i.stack.AddTop(1)
	},
	asm.OpDecr: func(i *Interpreter, _ uint64, next int) (int, error) {
		return next, i.stack.AddTop(-1)
	},
	asm.OpJump: func(i *Interpreter, target uint64, _ int) (int, error) {
		return address(target, len(i.code)), nil
	},
	asm.OpJE:         branchHandler(asm.OpJE),
	asm.OpJNE:        branchHandler(asm.OpJNE),
	asm.OpJGT:        branchHandler(asm.OpJGT),
	asm.OpJLT:        branchHandler(asm.OpJLT),
	asm.OpJGE:        branchHandler(asm.OpJGE),
	asm.OpJLE:        branchHandler(asm.OpJLE),
	asm.OpGet:        accessHandler(asm.OpGet),
	asm.OpSet:        accessHandler(asm.OpSet),
	asm.OpGetArg:     accessHandler(asm.OpGetArg),
	asm.OpSetArg:     accessHandler(asm.OpSetArg),
	asm.OpPrint:      printHandler(asm.OpPrint),
	asm.OpPrintC:     printHandler(asm.OpPrintC),
	asm.OpPrintStack: printHandler(asm.OpPrintStack),
	asm.OpCall: func(i *Interpreter, target uint64, next int) (int, error) {
		i.call(next)
		return address(target, len(i.code)), nil
	},
	asm.OpRet: func(i *Interpreter, _ uint64, _ int) (int, error) {
		return i.ret()
	},
}

func arithHandler(op asm.Opcode) packedHandler {
	return func(i *Interpreter, _ uint64, next int) (int, error) {
		return next, i.arith(op)
	}
}

func branchHandler(op asm.Opcode) packedHandler {
	return func(i *Interpreter, target uint64, next int) (int, error) {
		taken, err := i.branch(op)
		if err != nil {
			return next, err
		}
		if taken {
			return address(target, len(i.code)), nil
		}
		return next, nil
	}
}

func accessHandler(op asm.Opcode) packedHandler {
	return func(i *Interpreter, n uint64, next int) (int, error) {
		return next, i.access(op, n)
	}
}

func printHandler(op asm.Opcode) packedHandler {
	return func(i *Interpreter, _ uint64, next int) (int, error) {
		return next, i.print(op)
	}
}

// packedStep decodes the opcode byte at the current offset, reads its
// operand if it has one, and runs the handler for it.
func packedStep(i *Interpreter) (bool, error) {
	pc := i.pc
	if pc < 0 || pc >= len(i.code) {
		return true, nil
	}

	op := asm.Opcode(i.code[pc])
	if op == asm.OpHalt {
		return true, nil
	}
	if !op.Valid() || packedHandlers[op] == nil {
		return false, i.fault(&Fault{Kind: InvalidOpcode}, op, pc, i.stack.Size())
	}

	next := pc + 1
	var operand uint64
	if op.HasOperand() {
		v, ok := asm.ReadOperand(i.code, pc)
		if !ok {
			return false, i.fault(&Fault{Kind: InvalidOpcode}, op, pc, i.stack.Size())
		}
		operand = v
		next = pc + asm.Width(op)
	}

	if i.trace {
		log.Debug("step", "offset", pc, "op", op.String(), "operand", operand, "stack", i.stack.String())
	}

	size := i.stack.Size()
	n, err := packedHandlers[op](i, operand, next)
	if err != nil {
		return false, i.fault(err, op, pc, size)
	}

	i.pc = n
	return false, nil
}
