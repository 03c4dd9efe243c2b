package interpreter

import (
	"errors"
	"fmt"
	"strings"

	"stackvm/pkg/asm"
)

// FaultKind classifies runtime faults
type FaultKind int

const (
	StackUnderflow FaultKind = iota + 1
	IndexOutOfRange
	CallStackUnderflow
	DivisionByZero
	InvalidOpcode
)

var (
	ErrNotImplemented   = errors.New("interpreter step function not linked")
	ErrMaxStepsExceeded = errors.New("maximum steps exceeded")

	ErrStackUnderflow     = errors.New("stack underflow")
	ErrIndexOutOfRange    = errors.New("stack index out of range")
	ErrCallStackUnderflow = errors.New("no active call frame")
	ErrDivisionByZero     = errors.New("division by zero")
	ErrInvalidOpcode      = errors.New("invalid opcode")
)

var faultErrors = map[FaultKind]error{
	StackUnderflow:     ErrStackUnderflow,
	IndexOutOfRange:    ErrIndexOutOfRange,
	CallStackUnderflow: ErrCallStackUnderflow,
	DivisionByZero:     ErrDivisionByZero,
	InvalidOpcode:      ErrInvalidOpcode,
}

// Fault is a fatal runtime error. The interpreter stops at the first one.
type Fault struct {
	Kind     FaultKind
	Op       asm.Opcode
	PC       int  // position, or byte offset when Packed
	Packed   bool // PC is a byte offset into packed code
	Index    int64
	StackLen int
}

func (f *Fault) Error() string {
	var b strings.Builder
	b.WriteString(faultErrors[f.Kind].Error())

	where := "position"
	if f.Packed {
		where = "offset"
	}
	fmt.Fprintf(&b, ": %s at %s %d", f.Op, where, f.PC)

	if f.Kind == IndexOutOfRange {
		fmt.Fprintf(&b, " addressed index %d", f.Index)
	}
	fmt.Fprintf(&b, " (stack length %d)", f.StackLen)
	return b.String()
}

// Unwrap exposes the sentinel for the fault kind, so errors.Is works
func (f *Fault) Unwrap() error {
	return faultErrors[f.Kind]
}
