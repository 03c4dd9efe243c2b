package asm_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"stackvm/pkg/asm"
	"stackvm/pkg/color"
)

func TestAssembleProcedureLowering(t *testing.T) {
	prog, err := asm.AssembleSource("Proc add\nAdd\nRet\nEnd\nPush 2\nPush 5\nCall add\nPrint")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []asm.Instruction{
		asm.NewWithArg(asm.OpJump, 4), // Proc skips past its End
		asm.NewInstruction(asm.OpAdd),
		asm.NewInstruction(asm.OpRet),
		asm.NewInstruction(asm.OpNoop),
		asm.NewPush(2),
		asm.NewPush(5),
		asm.NewWithArg(asm.OpCall, 1), // first instruction of the body
		asm.NewInstruction(asm.OpPrint),
	}

	if !reflect.DeepEqual(prog.Instructions, expected) {
		t.Errorf("expected %v, got %v", expected, prog.Instructions)
	}
	if !reflect.DeepEqual(prog.SourceLines, []int{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("unexpected source lines %v", prog.SourceLines)
	}
}

func TestAssembleOperands(t *testing.T) {
	src := `Push -12
Push +5
Push 9223372036854775807
label here
Get 3
SetArg 1
JLE here
Jump 0
Jump 9`

	prog, err := asm.AssembleSource(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []asm.Instruction{
		asm.NewPush(-12),
		asm.NewPush(5),
		asm.NewPush(9223372036854775807),
		asm.NewInstruction(asm.OpNoop),
		asm.NewWithArg(asm.OpGet, 3),
		asm.NewWithArg(asm.OpSetArg, 1),
		asm.NewWithArg(asm.OpJLE, 3),
		asm.NewWithArg(asm.OpJump, 0),
		asm.NewWithArg(asm.OpJump, 9), // one past the end halts
	}

	if !reflect.DeepEqual(prog.Instructions, expected) {
		t.Errorf("expected %v, got %v", expected, prog.Instructions)
	}
}

func TestAssembleEveryMnemonic(t *testing.T) {
	src := `label l
Proc p
Ret
End
Push 1
Pop
Add
Sub
Mul
Div
Incr
Decr
Jump l
JE l
JNE l
JGT l
JLT l
JGE l
JLE l
Get 0
Set 0
GetArg 0
SetArg 0
Print
PrintC
PrintStack
Call p
Noop`

	prog, err := asm.AssembleSource(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ops := make([]asm.Opcode, 0, prog.Len())
	for _, in := range prog.Instructions {
		ops = append(ops, in.Op)
	}

	expected := []asm.Opcode{
		asm.OpNoop, asm.OpJump, asm.OpRet, asm.OpNoop,
		asm.OpPush, asm.OpPop, asm.OpAdd, asm.OpSub, asm.OpMul, asm.OpDiv, asm.OpIncr, asm.OpDecr,
		asm.OpJump, asm.OpJE, asm.OpJNE, asm.OpJGT, asm.OpJLT, asm.OpJGE, asm.OpJLE,
		asm.OpGet, asm.OpSet, asm.OpGetArg, asm.OpSetArg,
		asm.OpPrint, asm.OpPrintC, asm.OpPrintStack, asm.OpCall, asm.OpNoop,
	}

	if !reflect.DeepEqual(ops, expected) {
		t.Errorf("expected %v, got %v", expected, ops)
	}
}

func TestAssembleUnicodeWhitespace(t *testing.T) {
	prog, err := asm.AssembleSource("Push\u00a05\nPush\u20037\nAdd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []asm.Instruction{asm.NewPush(5), asm.NewPush(7), asm.NewInstruction(asm.OpAdd)}
	if !reflect.DeepEqual(prog.Instructions, expected) {
		t.Errorf("expected %v, got %v", expected, prog.Instructions)
	}
}

func TestLiteralKindDetail(t *testing.T) {
	tests := []struct {
		src    string
		detail string
	}{
		{"Push one", "not an integer"},
		{"Push 1\nSet -1", "not an unsigned integer"},
		{"Push 1\nGetArg x", "not an unsigned integer"},
	}

	for _, tc := range tests {
		_, err := asm.AssembleSource(tc.src)

		var ae *asm.Error
		if !errors.As(err, &ae) || ae.Kind != asm.InvalidLiteral {
			t.Fatalf("%q: expected invalid literal, got %v", tc.src, err)
		}
		if !strings.Contains(ae.Detail, tc.detail) {
			t.Errorf("%q: expected detail %q, got %q", tc.src, tc.detail, ae.Detail)
		}
	}
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		target error
		line   int
	}{
		{"non-numeric push", "Push one", asm.ErrInvalidLiteral, 1},
		{"push overflow", "Push 9223372036854775808", asm.ErrInvalidLiteral, 1},
		{"negative index", "Push 1\nGet -1", asm.ErrInvalidLiteral, 2},
		{"unknown mnemonic", "Push 1\n\nFrob", asm.ErrUnknownInstruction, 3},
		{"mnemonics are case sensitive", "push 1", asm.ErrUnknownInstruction, 1},
		{"undefined label", "Jump nowhere", asm.ErrUndefinedLabel, 1},
		{"undefined procedure", "Call nope", asm.ErrUndefinedProcedure, 1},
		{"missing operand", "Push", asm.ErrMalformedInstruction, 1},
		{"extra operand", "Add 1", asm.ErrMalformedInstruction, 1},
		{"target past end", "Jump 5", asm.ErrTargetOutOfRange, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := asm.AssembleSource(tc.src)
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}

			var ae *asm.Error
			if !errors.As(err, &ae) {
				t.Fatalf("expected *asm.Error, got %T", err)
			}
			if ae.Line != tc.line {
				t.Errorf("expected line %d, got %d", tc.line, ae.Line)
			}
		})
	}
}

func TestErrorMessageNamesTheOffendingLine(t *testing.T) {
	color.EnableColor(false)

	_, err := asm.AssembleSource("Push 1\nJump missing")
	if err == nil {
		t.Fatal("expected an error")
	}

	msg := err.Error()
	for _, want := range []string{"line 2", "undefined label", "missing", `"Jump missing"`} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}

	var ae *asm.Error
	errors.As(err, &ae)
	if pretty := ae.Pretty(); !strings.Contains(pretty, "Error at line 2") {
		t.Errorf("unexpected pretty error %q", pretty)
	}
}

func TestListing(t *testing.T) {
	color.EnableColor(false)

	prog, err := asm.AssembleSource("Proc p\nRet\nEnd\nlabel top\nPush 4\nCall p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	listing := asm.Listing(prog)
	for _, want := range []string{"proc p", "label top", "Push", " 4", "Call"} {
		if !strings.Contains(listing, want) {
			t.Errorf("expected %q in listing:\n%s", want, listing)
		}
	}
	if n := strings.Count(listing, "\n"); n != prog.Len() {
		t.Errorf("expected %d listing lines, got %d", prog.Len(), n)
	}
}
