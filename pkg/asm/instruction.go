package asm

import (
	"fmt"
)

// Opcode is the one-byte discriminant of an instruction. The same values
// are used in tagged programs and in packed byte code.
type Opcode byte

// List of opcodes
const (
	OpHalt Opcode = iota // packed terminator; never produced from source
	OpNoop
	OpPush
	OpPop
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpIncr
	OpDecr
	OpJump
	OpJE
	OpJNE
	OpJGT
	OpJLT
	OpJGE
	OpJLE
	OpGet
	OpSet
	OpGetArg
	OpSetArg
	OpPrint
	OpPrintC
	OpPrintStack
	OpCall
	OpRet

	OpCount // number of opcodes, not an instruction
)

var opNames = [OpCount]string{
	OpHalt:       "Halt",
	OpNoop:       "Noop",
	OpPush:       "Push",
	OpPop:        "Pop",
	OpAdd:        "Add",
	OpSub:        "Sub",
	OpMul:        "Mul",
	OpDiv:        "Div",
	OpIncr:       "Incr",
	OpDecr:       "Decr",
	OpJump:       "Jump",
	OpJE:         "JE",
	OpJNE:        "JNE",
	OpJGT:        "JGT",
	OpJLT:        "JLT",
	OpJGE:        "JGE",
	OpJLE:        "JLE",
	OpGet:        "Get",
	OpSet:        "Set",
	OpGetArg:     "GetArg",
	OpSetArg:     "SetArg",
	OpPrint:      "Print",
	OpPrintC:     "PrintC",
	OpPrintStack: "PrintStack",
	OpCall:       "Call",
	OpRet:        "Ret",
}

// String returns the mnemonic of the opcode
func (op Opcode) String() string {
	if op < OpCount {
		return opNames[op]
	}
	return fmt.Sprintf("Opcode(%d)", byte(op))
}

// Valid reports whether op is a known opcode
func (op Opcode) Valid() bool {
	return op < OpCount
}

// HasOperand reports whether the opcode carries an integer operand
func (op Opcode) HasOperand() bool {
	return op == OpPush || op.IsBranch() || op.IsIndexed() || op == OpCall
}

// IsBranch reports whether the operand is a program position reached by a jump
func (op Opcode) IsBranch() bool {
	return op >= OpJump && op <= OpJLE
}

// IsIndexed reports whether the operand is a frame-relative stack index
func (op Opcode) IsIndexed() bool {
	return op >= OpGet && op <= OpSetArg
}

// IsTarget reports whether the operand is a program position (jump or call)
func (op Opcode) IsTarget() bool {
	return op.IsBranch() || op == OpCall
}

// Instruction is one decoded program step. Imm holds the literal of a Push,
// Arg holds positions and stack indices.
type Instruction struct {
	Op  Opcode `cbor:"1,keyasint"`
	Imm int64  `cbor:"2,keyasint,omitempty"`
	Arg uint64 `cbor:"3,keyasint,omitempty"`
}

// NewInstruction creates an instruction without an operand
func NewInstruction(op Opcode) Instruction {
	return Instruction{Op: op}
}

// NewPush creates a Push of a literal value
func NewPush(v int64) Instruction {
	return Instruction{Op: OpPush, Imm: v}
}

// NewWithArg creates a positional or indexed instruction
func NewWithArg(op Opcode, arg uint64) Instruction {
	return Instruction{Op: op, Arg: arg}
}

// Operand returns the raw 64-bit operand as it is packed into byte code
func (i Instruction) Operand() uint64 {
	if i.Op == OpPush {
		return uint64(i.Imm)
	}
	return i.Arg
}

// String returns a string representation of the instruction
func (i Instruction) String() string {
	switch {
	case i.Op == OpPush:
		return fmt.Sprintf("%s %d", i.Op, i.Imm)
	case i.Op.HasOperand():
		return fmt.Sprintf("%s %d", i.Op, i.Arg)
	default:
		return i.Op.String()
	}
}
