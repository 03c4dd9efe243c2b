package asm

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"
)

// OperandWidth is the size in bytes of a packed operand
const OperandWidth = 8

// Packed is byte code lowered from a tagged program. Offsets maps every
// program position, plus one past the end, to its byte offset in Code.
type Packed struct {
	Code    []byte `cbor:"1,keyasint"`
	Offsets []int  `cbor:"2,keyasint"`
}

// Width returns the encoded size of an instruction with opcode op
func Width(op Opcode) int {
	if op.HasOperand() {
		return 1 + OperandWidth
	}
	return 1
}

// Offsets computes the position -> byte offset translation table for
// instructions. The extra final entry is where the terminator lives.
func Offsets(instructions []Instruction) []int {
	offsets := make([]int, len(instructions)+1)
	for i, in := range instructions {
		offsets[i+1] = offsets[i] + Width(in.Op)
	}
	return offsets
}

// Pack lowers instructions into byte code. Every jump and call target is
// retargeted through the translation table before encoding.
func Pack(instructions []Instruction) (*Packed, error) {
	offsets := Offsets(instructions)
	code := make([]byte, 0, offsets[len(instructions)]+1)

	for pos, in := range instructions {
		if !in.Op.Valid() || in.Op == OpHalt {
			return nil, fmt.Errorf("cannot pack %s at position %d", in.Op, pos)
		}

		operand := in.Operand()
		if in.Op.IsTarget() {
			if in.Arg > uint64(len(instructions)) {
				return nil, &Error{
					Kind:   TargetOutOfRange,
					Detail: fmt.Sprintf("%s at position %d targets %d, program has %d", in.Op, pos, in.Arg, len(instructions)),
				}
			}
			operand = uint64(offsets[in.Arg])
		}

		code = append(code, byte(in.Op))
		if in.Op.HasOperand() {
			code = binary.BigEndian.AppendUint64(code, operand)
		}
	}
	code = append(code, byte(OpHalt))

	log.Debug("Packed program", "instructions", len(instructions), "bytes", len(code))
	return &Packed{Code: code, Offsets: offsets}, nil
}

// ReadOperand decodes the operand that follows the opcode at offset at.
// ok is false when the code is truncated.
func ReadOperand(code []byte, at int) (uint64, bool) {
	start := at + 1
	if start < 0 || start+OperandWidth > len(code) {
		return 0, false
	}
	return binary.BigEndian.Uint64(code[start : start+OperandWidth]), true
}

// Position maps a byte offset back to its program position
func (p *Packed) Position(offset int) (int, bool) {
	i := sort.SearchInts(p.Offsets, offset)
	if i < len(p.Offsets) && p.Offsets[i] == offset {
		return i, true
	}
	return 0, false
}

// Decode reads the instruction at byte offset at, with targets translated
// back into program positions when the table allows it.
func (p *Packed) Decode(at int) (Instruction, int, error) {
	if at < 0 || at >= len(p.Code) {
		return Instruction{}, 0, fmt.Errorf("offset %d outside code of %d bytes", at, len(p.Code))
	}

	op := Opcode(p.Code[at])
	if !op.Valid() {
		return Instruction{}, 0, fmt.Errorf("invalid opcode %#02x at offset %d", byte(op), at)
	}
	if !op.HasOperand() {
		return NewInstruction(op), 1, nil
	}

	raw, ok := ReadOperand(p.Code, at)
	if !ok {
		return Instruction{}, 0, fmt.Errorf("truncated operand for %s at offset %d", op, at)
	}
	if op == OpPush {
		return NewPush(int64(raw)), Width(op), nil
	}
	if op.IsTarget() {
		if pos, found := p.Position(int(raw)); found {
			raw = uint64(pos)
		}
	}
	return NewWithArg(op, raw), Width(op), nil
}
