package asm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"stackvm/pkg/color"
	"stackvm/pkg/lexer"
)

// ErrorKind classifies assembly-time failures
type ErrorKind int

const (
	InvalidLiteral ErrorKind = iota + 1
	UnknownInstruction
	MalformedInstruction
	UndefinedLabel
	UndefinedProcedure
	UnterminatedProc
	DuplicateLabel
	DuplicateProcedure
	NestedProcedure
	TargetOutOfRange
)

var (
	ErrInvalidLiteral       = errors.New("invalid integer literal")
	ErrUnknownInstruction   = errors.New("unknown instruction")
	ErrMalformedInstruction = errors.New("malformed instruction")
	ErrUndefinedLabel       = errors.New("undefined label")
	ErrUndefinedProcedure   = errors.New("undefined procedure")
	ErrUnterminatedProc     = errors.New("unterminated procedure")
	ErrDuplicateLabel       = errors.New("duplicate label")
	ErrDuplicateProcedure   = errors.New("duplicate procedure")
	ErrNestedProcedure      = errors.New("nested procedure")
	ErrTargetOutOfRange     = errors.New("target out of range")
)

var kindErrors = map[ErrorKind]error{
	InvalidLiteral:       ErrInvalidLiteral,
	UnknownInstruction:   ErrUnknownInstruction,
	MalformedInstruction: ErrMalformedInstruction,
	UndefinedLabel:       ErrUndefinedLabel,
	UndefinedProcedure:   ErrUndefinedProcedure,
	UnterminatedProc:     ErrUnterminatedProc,
	DuplicateLabel:       ErrDuplicateLabel,
	DuplicateProcedure:   ErrDuplicateProcedure,
	NestedProcedure:      ErrNestedProcedure,
	TargetOutOfRange:     ErrTargetOutOfRange,
}

// Error is an assembly-time diagnostic tied to one source line
type Error struct {
	Kind   ErrorKind
	Line   int      // 1-based source line, 0 when unknown
	Tokens []string // offending line
	Detail string
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	b.WriteString(kindErrors[e.Kind].Error())
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if len(e.Tokens) > 0 {
		fmt.Fprintf(&b, " (%q)", strings.Join(e.Tokens, " "))
	}
	return b.String()
}

// Unwrap exposes the sentinel for the error kind, so errors.Is works
func (e *Error) Unwrap() error {
	return kindErrors[e.Kind]
}

// Pretty renders the error for a terminal
func (e *Error) Pretty() string {
	msg := color.RedText(kindErrors[e.Kind].Error())
	if e.Detail != "" {
		msg += " " + color.BlueText(e.Detail)
	}
	return color.ErrorWithLine(e.Line, msg, strings.Join(e.Tokens, " "))
}

func newError(kind ErrorKind, line lexer.Line, detail string) *Error {
	return &Error{
		Kind:   kind,
		Line:   line.Pos.Line,
		Tokens: line.Texts(),
		Detail: detail,
	}
}

func undefinedLabelError(name string, line lexer.Line) *Error {
	return newError(UndefinedLabel, line, "`"+name+"`")
}

func undefinedProcedureError(name string, line lexer.Line) *Error {
	return newError(UndefinedProcedure, line, "`"+name+"`")
}

func invalidLiteralError(text string, line lexer.Line, err error) *Error {
	detail := "`" + text + "`"
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		detail += ": " + ne.Err.Error()
	}
	return newError(InvalidLiteral, line, detail)
}
