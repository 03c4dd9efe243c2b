package runner_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stackvm/internal/config"
	"stackvm/internal/runner"
	"stackvm/pkg/asm"
	"stackvm/pkg/color"
	"stackvm/pkg/interpreter"
)

func writeSource(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func newRunner(file string) (*runner.Runner, *bytes.Buffer, *bytes.Buffer) {
	color.EnableColor(false)

	var stdout, stderr bytes.Buffer
	return &runner.Runner{
		ShouldRun:  true,
		SourceFile: file,
		Stdout:     &stdout,
		Stderr:     &stderr,
	}, &stdout, &stderr
}

func TestRunSource(t *testing.T) {
	for _, packed := range []bool{false, true} {
		r, stdout, _ := newRunner(writeSource(t, "add.svm", "Proc add\nAdd\nRet\nEnd\nPush 2\nPush 5\nCall add\nPrint"))
		r.Packed = packed

		if err := r.Run(); err != nil {
			t.Fatalf("packed=%v: unexpected error: %v", packed, err)
		}
		if stdout.String() != "7" {
			t.Errorf("packed=%v: expected 7, got %q", packed, stdout.String())
		}
	}
}

func TestWriteImageThenRunIt(t *testing.T) {
	src := writeSource(t, "loop.svm", "Push 3\nlabel loop\nPrint\nDecr\nGet 0\nJE done\nPop\nJump loop\nlabel done\n")
	img := filepath.Join(t.TempDir(), "loop.svmc")

	r, stdout, _ := newRunner(src)
	r.ShouldRun = false
	r.OutputFile = img
	if err := r.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no output when not running, got %q", stdout.String())
	}

	for _, packed := range []bool{false, true} {
		r, stdout, _ := newRunner(img)
		r.Packed = packed
		if err := r.Run(); err != nil {
			t.Fatalf("packed=%v: unexpected error: %v", packed, err)
		}
		if stdout.String() != "321" {
			t.Errorf("packed=%v: expected 321, got %q", packed, stdout.String())
		}
	}
}

func TestAssemblyErrorIsReported(t *testing.T) {
	r, stdout, stderr := newRunner(writeSource(t, "bad.svm", "Push 1\nJump nowhere"))

	err := r.Run()
	if !errors.Is(err, asm.ErrUndefinedLabel) {
		t.Fatalf("expected %v, got %v", asm.ErrUndefinedLabel, err)
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no program output, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Assembly Error") || !strings.Contains(stderr.String(), "line 2") {
		t.Errorf("unexpected diagnostic %q", stderr.String())
	}
}

func TestRuntimeFaultPointsAtSourceLine(t *testing.T) {
	for _, packed := range []bool{false, true} {
		r, stdout, stderr := newRunner(writeSource(t, "fault.svm", "Push 1\nPrint\n\n-- underflow next\nPop\nPop\n"))
		r.Packed = packed

		err := r.Run()
		if !errors.Is(err, interpreter.ErrStackUnderflow) {
			t.Fatalf("packed=%v: expected %v, got %v", packed, interpreter.ErrStackUnderflow, err)
		}
		// output produced before the fault is still flushed
		if stdout.String() != "1" {
			t.Errorf("packed=%v: expected 1, got %q", packed, stdout.String())
		}
		if !strings.Contains(stderr.String(), "Error at line 6") {
			t.Errorf("packed=%v: expected the fault at line 6, got %q", packed, stderr.String())
		}
	}
}

func TestMaxSteps(t *testing.T) {
	r, _, _ := newRunner(writeSource(t, "spin.svm", "label l\nJump l"))
	r.MaxSteps = 50

	if err := r.Run(); !errors.Is(err, interpreter.ErrMaxStepsExceeded) {
		t.Fatalf("expected %v, got %v", interpreter.ErrMaxStepsExceeded, err)
	}
}

func TestListingGoesToStderr(t *testing.T) {
	r, stdout, stderr := newRunner(writeSource(t, "list.svm", "Push 3\nPush 4\nAdd\nPrint"))
	r.Listing = true
	r.Packed = true

	if err := r.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stdout.String() != "7" {
		t.Errorf("expected 7, got %q", stdout.String())
	}
	for _, want := range []string{"Assembled Program", "Packed Byte Code (21 bytes)", "Halt"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("expected %q in listing:\n%s", want, stderr.String())
		}
	}
}

func TestApplyConfig(t *testing.T) {
	off := false
	c := &config.Config{
		Run:    config.Run{Packed: true, MaxSteps: 10, Trace: true},
		Output: config.Output{Color: &off, Listing: true},
	}

	r := &runner.Runner{MaxSteps: 99}
	r.ApplyConfig(c, map[string]bool{"m": true})

	if !r.Packed || !r.Trace || !r.Listing || !r.NoColor {
		t.Errorf("config values not applied: %+v", r)
	}
	if r.MaxSteps != 99 {
		t.Errorf("explicit flag was overridden: %d", r.MaxSteps)
	}
}

func TestApplyConfigOutputOnly(t *testing.T) {
	tests := []struct {
		set      map[string]bool
		expected bool
	}{
		{map[string]bool{}, true},
		{map[string]bool{"o": true}, false},
		{map[string]bool{"o": true, "r": true}, true},
	}

	for _, test := range tests {
		r := &runner.Runner{ShouldRun: true, OutputFile: "out.svmc"}
		r.ApplyConfig(config.Default(), test.set)
		if r.ShouldRun != test.expected {
			t.Errorf("flags %v: expected ShouldRun=%v, got %v", test.set, test.expected, r.ShouldRun)
		}
	}
}

func TestLoadConfigFromSourceDir(t *testing.T) {
	src := writeSource(t, "prog.svm", "Push 1")
	if err := os.WriteFile(filepath.Join(filepath.Dir(src), config.FileName), []byte("[run]\npacked = true\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	r, _, _ := newRunner(src)
	c, err := r.LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Run.Packed {
		t.Errorf("expected packed from %s", config.FileName)
	}
}
