package interpreter

import (
	"io"
	"os"

	"stackvm/pkg/asm"

	"github.com/charmbracelet/log"
)

// Interpreter executes a tagged program or packed byte code against one
// operand stack and one call stack.
type Interpreter struct {
	pb   []asm.Instruction // tagged program block
	code []byte            // packed byte code, used instead of pb when set
	pc   int               // position in pb, or byte offset in code

	stack  *Stack  // operand stack
	frames []Frame // call stack

	out io.Writer // output writer for the print instructions

	// Exec hook, coreStep for tagged programs and packedStep for byte code
	execStep func(*Interpreter) (halted bool, err error)

	maxSteps int  // maximum steps (0 = unlimited)
	steps    int  // steps executed
	trace    bool // log every step at debug level
}

type Option func(*Interpreter)

// WithWriter sets the output writer for print instructions
func WithWriter(w io.Writer) Option {
	return func(i *Interpreter) { i.out = w }
}

// WithMaxSteps sets a maximum number of interpreter steps before returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// WithTrace logs each executed instruction with the stack it sees
func WithTrace(on bool) Option {
	return func(i *Interpreter) { i.trace = on }
}

// NewInterpreter creates an Interpreter for a tagged program
func NewInterpreter(pb []asm.Instruction, opts ...Option) *Interpreter {
	it := newInterpreter(opts)
	it.pb = append([]asm.Instruction(nil), pb...)
	it.execStep = coreStep
	return it
}

// NewPackedInterpreter creates an Interpreter for packed byte code
func NewPackedInterpreter(code []byte, opts ...Option) *Interpreter {
	it := newInterpreter(opts)
	it.code = append([]byte(nil), code...)
	it.execStep = packedStep
	return it
}

func newInterpreter(opts []Option) *Interpreter {
	it := &Interpreter{
		stack:    NewStack(),
		frames:   make([]Frame, 0, 8),
		out:      nil, // caller should set, or use WithWriter
		maxSteps: 0,   // 0 => unlimited
	}

	for _, o := range opts {
		o(it)
	}

	if it.out == nil {
		it.out = os.Stdout
	}

	return it
}

// Reset clears runtime state (stacks, PC, counters)
func (i *Interpreter) Reset() {
	i.pc = 0
	i.stack.Reset()
	i.frames = i.frames[:0]
	i.steps = 0
}

// SetExecStep replaces the step function
func (i *Interpreter) SetExecStep(fn func(*Interpreter) (bool, error)) {
	i.execStep = fn
}

// Step executes a single instruction, returning (halted, error)
func (i *Interpreter) Step() (bool, error) {
	if i.execStep == nil {
		return false, ErrNotImplemented
	}

	if i.maxSteps > 0 && i.steps >= i.maxSteps {
		return false, ErrMaxStepsExceeded
	}

	halted, err := i.execStep(i)
	if !halted {
		i.steps++
	}

	return halted, err
}

// Run executes until halt or error
func (i *Interpreter) Run() error {
	for {
		halted, err := i.Step()
		if err != nil {
			log.Debug("Execution stopped", "pc", i.pc, "steps", i.steps, "error", err)
			return err
		}

		if halted {
			log.Debug("Execution halted", "steps", i.steps, "stack", i.stack.String())
			return nil
		}
	}
}

// PC returns the current position (byte offset for packed code)
func (i *Interpreter) PC() int {
	return i.pc
}

// Steps returns the number of instructions executed so far
func (i *Interpreter) Steps() int {
	return i.steps
}

// Stack returns a copy of the operand stack, bottom first
func (i *Interpreter) Stack() []int64 {
	return i.stack.Array()
}

// Frames returns a copy of the call stack, outermost first
func (i *Interpreter) Frames() []Frame {
	return append([]Frame(nil), i.frames...)
}

// currentFrame returns the current call frame, or nil if none
func (i *Interpreter) currentFrame() *Frame {
	if len(i.frames) == 0 {
		return nil
	}

	return &i.frames[len(i.frames)-1]
}

// frameOffset is the base for Get/Set, 0 outside any call
func (i *Interpreter) frameOffset() int {
	if f := i.currentFrame(); f != nil {
		return f.Offset
	}

	return 0
}

// fault fills in where a fault happened; other errors pass through.
// size is the stack length before the faulting instruction ran.
func (i *Interpreter) fault(err error, op asm.Opcode, pc, size int) error {
	if f, ok := err.(*Fault); ok {
		f.Op = op
		f.PC = pc
		f.Packed = i.code != nil
		f.StackLen = size
	}
	return err
}
