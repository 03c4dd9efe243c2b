package interpreter

import (
	"strconv"
	"strings"
)

// Stack is the operand stack. Every access is bounds checked and reports
// a Fault instead of clamping.
type Stack struct {
	a []int64
}

// NewStack creates a new stack instance
func NewStack(elm ...int64) *Stack {
	stack := Stack{
		a: make([]int64, 0, 64),
	}

	stack.a = append(stack.a, elm...)

	return &stack
}

// Push adds an element to the top of the stack
func (s *Stack) Push(elm int64) {
	s.a = append(s.a, elm)
}

// Pop removes and returns the top element of the stack
func (s *Stack) Pop() (int64, error) {
	if len(s.a) < 1 {
		return 0, &Fault{Kind: StackUnderflow}
	}

	elm := s.a[len(s.a)-1]
	s.a = s.a[:len(s.a)-1]

	return elm, nil
}

// Peek returns the top element of the stack without removing it
func (s *Stack) Peek() (int64, error) {
	if len(s.a) < 1 {
		return 0, &Fault{Kind: StackUnderflow}
	}

	return s.a[len(s.a)-1], nil
}

// AddTop adds delta to the top element in place
func (s *Stack) AddTop(delta int64) error {
	if len(s.a) < 1 {
		return &Fault{Kind: StackUnderflow}
	}

	s.a[len(s.a)-1] += delta
	return nil
}

// Get returns the element at absolute index i
func (s *Stack) Get(i int) (int64, error) {
	if i < 0 || i >= len(s.a) {
		return 0, &Fault{Kind: IndexOutOfRange, Index: int64(i)}
	}

	return s.a[i], nil
}

// Set overwrites the element at absolute index i
func (s *Stack) Set(i int, v int64) error {
	if i < 0 || i >= len(s.a) {
		return &Fault{Kind: IndexOutOfRange, Index: int64(i)}
	}

	s.a[i] = v
	return nil
}

// Get the size of the stack
func (s *Stack) Size() int {
	return len(s.a)
}

// Array returns a copy of the stack contents, bottom first
func (s *Stack) Array() []int64 {
	return append([]int64(nil), s.a...)
}

// Reset empties the stack, keeping its capacity
func (s *Stack) Reset() {
	s.a = s.a[:0]
}

// String renders the stack as [a, b, c]
func (s *Stack) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range s.a {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatInt(v, 10))
	}
	b.WriteByte(']')
	return b.String()
}
