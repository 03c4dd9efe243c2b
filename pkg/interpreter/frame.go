package interpreter

// Frame represents a procedure call frame.
type Frame struct {
	Offset   int // operand stack length when the call was made; base for Get/Set
	ReturnTo int // address of the instruction after the Call
}
