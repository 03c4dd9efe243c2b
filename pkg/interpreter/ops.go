package interpreter

import (
	"fmt"
	"math"
	"strconv"

	"stackvm/pkg/asm"
)

// The operations below are shared by the tagged and packed step functions,
// so both see the same effects and fail at the same points.

// arith pops x then y and pushes y op x
func (i *Interpreter) arith(op asm.Opcode) error {
	x, err := i.stack.Pop()
	if err != nil {
		return err
	}
	y, err := i.stack.Pop()
	if err != nil {
		return err
	}

	var r int64
	switch op {
	case asm.OpAdd:
		r = y + x
	case asm.OpSub:
		r = y - x
	case asm.OpMul:
		r = y * x
	case asm.OpDiv:
		if x == 0 {
			return &Fault{Kind: DivisionByZero}
		}
		r = y / x
	default:
		return &Fault{Kind: InvalidOpcode}
	}

	i.stack.Push(r)
	return nil
}

// branch tests the top value and pops it only when the jump is taken
func (i *Interpreter) branch(op asm.Opcode) (bool, error) {
	v, err := i.stack.Peek()
	if err != nil {
		return false, err
	}

	var taken bool
	switch op {
	case asm.OpJE:
		taken = v == 0
	case asm.OpJNE:
		taken = v != 0
	case asm.OpJGT:
		taken = v > 0
	case asm.OpJLT:
		taken = v < 0
	case asm.OpJGE:
		taken = v >= 0
	case asm.OpJLE:
		taken = v <= 0
	default:
		return false, &Fault{Kind: InvalidOpcode}
	}

	if taken {
		if _, err := i.stack.Pop(); err != nil {
			return false, err
		}
	}
	return taken, nil
}

// slot computes the absolute stack index addressed by Get/Set/GetArg/SetArg
func (i *Interpreter) slot(op asm.Opcode, n uint64) (int, error) {
	if op == asm.OpGet || op == asm.OpSet {
		base := i.frameOffset()
		if n > uint64(math.MaxInt-base) {
			return 0, &Fault{Kind: IndexOutOfRange, Index: math.MaxInt64}
		}
		return base + int(n), nil
	}

	f := i.currentFrame()
	if f == nil {
		return 0, &Fault{Kind: CallStackUnderflow}
	}
	if n >= uint64(f.Offset) {
		idx := int64(math.MinInt64)
		if n <= math.MaxInt32 {
			idx = int64(f.Offset) - 1 - int64(n)
		}
		return 0, &Fault{Kind: IndexOutOfRange, Index: idx}
	}
	return f.Offset - 1 - int(n), nil
}

// access runs Get/Set/GetArg/SetArg against slot n
func (i *Interpreter) access(op asm.Opcode, n uint64) error {
	idx, err := i.slot(op, n)
	if err != nil {
		return err
	}

	switch op {
	case asm.OpGet, asm.OpGetArg:
		v, err := i.stack.Get(idx)
		if err != nil {
			return err
		}
		i.stack.Push(v)
		return nil

	default:
		top, err := i.stack.Peek()
		if err != nil {
			return err
		}
		return i.stack.Set(idx, top)
	}
}

// print writes the top of the stack, or the whole stack, without popping
func (i *Interpreter) print(op asm.Opcode) error {
	var s string
	switch op {
	case asm.OpPrintStack:
		s = i.stack.String() + "\n"
	default:
		v, err := i.stack.Peek()
		if err != nil {
			return err
		}
		if op == asm.OpPrintC {
			s = string(rune(uint8(v)))
		} else {
			s = strconv.FormatInt(v, 10)
		}
	}

	if _, err := fmt.Fprint(i.out, s); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// call pushes a frame recording the current stack length
func (i *Interpreter) call(returnTo int) {
	i.frames = append(i.frames, Frame{
		Offset:   i.stack.Size(),
		ReturnTo: returnTo,
	})
}

// ret pops the current frame and returns its return address
func (i *Interpreter) ret() (int, error) {
	if len(i.frames) == 0 {
		return 0, &Fault{Kind: CallStackUnderflow}
	}

	f := i.frames[len(i.frames)-1]
	i.frames = i.frames[:len(i.frames)-1]
	return f.ReturnTo, nil
}

// address converts a target operand, sending anything past limit to limit
func address(arg uint64, limit int) int {
	if arg > uint64(limit) {
		return limit
	}
	return int(arg)
}
