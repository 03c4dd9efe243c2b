package runner

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"stackvm/internal/config"
	"stackvm/pkg/asm"
	"stackvm/pkg/color"
	"stackvm/pkg/image"
	"stackvm/pkg/interpreter"
	"stackvm/pkg/lexer"

	"github.com/charmbracelet/log"
)

type Runner struct {
	Help       bool   // Show help message
	Verbose    bool   // Enable verbose output
	ShouldRun  bool   // Whether to execute the program
	Packed     bool   // Execute packed byte code instead of tagged instructions
	Trace      bool   // Log every executed instruction
	Listing    bool   // Print the assembled program before running
	NoColor    bool   // Disable colored output
	MaxSteps   int    // Step limit, 0 for none
	ConfigFile string // Explicit path to a stackvm.toml
	SourceFile string // Path to the source file or image
	OutputFile string // Path to write an image to

	Stdout io.Writer // program output, os.Stdout when nil
	Stderr io.Writer // diagnostics, os.Stderr when nil
}

// ApplyConfig fills options from a configuration file. Options named in
// set were given on the command line and keep their value. Writing an
// image with -o only assembles unless -r was given explicitly.
func (opts *Runner) ApplyConfig(c *config.Config, set map[string]bool) {
	if set["o"] && !set["r"] {
		opts.ShouldRun = false
	}
	if !set["p"] {
		opts.Packed = c.Run.Packed
	}
	if !set["m"] {
		opts.MaxSteps = c.Run.MaxSteps
	}
	if !set["t"] {
		opts.Trace = c.Run.Trace
	}
	if !set["l"] {
		opts.Listing = c.Output.Listing
	}
	if !set["n"] {
		opts.NoColor = !c.ColorEnabled(!opts.NoColor)
	}
}

// LoadConfig reads the explicit config file, or looks for one next to the source file
func (opts *Runner) LoadConfig() (*config.Config, error) {
	if opts.ConfigFile != "" {
		return config.Load(opts.ConfigFile)
	}
	return config.FindAndLoad(filepath.Dir(opts.SourceFile))
}

// Run assembles (or loads) the program, optionally writes an image, and executes it.
func (opts *Runner) Run() error {
	log.Info("Processing file", "file", opts.SourceFile)

	prog, packed, err := opts.load()
	if err != nil {
		return err
	}

	if (opts.Packed || opts.OutputFile != "") && packed == nil {
		packed, err = asm.Pack(prog.Instructions)
		if err != nil {
			return fmt.Errorf("packing failed: %w", err)
		}
	}

	if opts.Verbose || opts.Listing {
		opts.printListing(prog, packed)
	}

	if opts.OutputFile != "" {
		img := image.New(opts.SourceFile, prog, packed)
		if err := image.Write(opts.OutputFile, img); err != nil {
			return err
		}
		log.Info("Wrote image", "file", opts.OutputFile, "instructions", prog.Len())
	}

	if !opts.ShouldRun {
		return nil
	}

	return opts.execute(prog, packed)
}

// load returns the program from a source file or an image file
func (opts *Runner) load() (*asm.Program, *asm.Packed, error) {
	if strings.EqualFold(filepath.Ext(opts.SourceFile), image.Extension) {
		img, err := image.Read(opts.SourceFile)
		if err != nil {
			return nil, nil, err
		}
		log.Debug("Loaded image", "file", opts.SourceFile, "source", img.Source)
		return img.Program(), img.Packed, nil
	}

	input, err := os.ReadFile(opts.SourceFile)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read %s: %w", opts.SourceFile, err)
	}

	lines := lexer.NewLexer(string(input)).Lines()
	log.Debug("Tokenized source", "lines", len(lines))

	prog, err := asm.Assemble(lines)
	if err != nil {
		var ae *asm.Error
		if errors.As(err, &ae) {
			fmt.Fprintln(opts.stderr(), color.BrightRedText("=== Assembly Error ==="))
			fmt.Fprintln(opts.stderr(), ae.Pretty())
		}
		return nil, nil, fmt.Errorf("assembly failed: %w", err)
	}

	return prog, nil, nil
}

func (opts *Runner) execute(prog *asm.Program, packed *asm.Packed) error {
	out := bufio.NewWriter(opts.stdout())
	defer out.Flush()

	iopts := []interpreter.Option{
		interpreter.WithWriter(out),
		interpreter.WithMaxSteps(opts.MaxSteps),
		interpreter.WithTrace(opts.Trace),
	}

	var it *interpreter.Interpreter
	if opts.Packed {
		it = interpreter.NewPackedInterpreter(packed.Code, iopts...)
	} else {
		it = interpreter.NewInterpreter(prog.Instructions, iopts...)
	}

	err := it.Run()
	if ferr := out.Flush(); ferr != nil && err == nil {
		err = fmt.Errorf("write output: %w", ferr)
	}
	if err != nil {
		var f *interpreter.Fault
		if errors.As(err, &f) {
			fmt.Fprintln(opts.stderr())
			fmt.Fprintln(opts.stderr(), color.BrightRedText("=== Runtime Fault ==="))
			fmt.Fprintln(opts.stderr(), describeFault(f, prog, packed))
		}
		return fmt.Errorf("execution failed: %w", err)
	}

	log.Debug("Program finished", "steps", it.Steps(), "stack", it.Stack())
	return nil
}

// describeFault points a fault back at the source line that caused it
func describeFault(f *interpreter.Fault, prog *asm.Program, packed *asm.Packed) string {
	pos, ok := f.PC, true
	if f.Packed && packed != nil {
		pos, ok = packed.Position(f.PC)
	}

	context := ""
	if ok && pos >= 0 && pos < prog.Len() {
		context = prog.Instructions[pos].String()
	}
	return color.ErrorWithLine(prog.SourceLine(pos), f.Error(), context)
}

func (opts *Runner) printListing(prog *asm.Program, packed *asm.Packed) {
	w := opts.stderr()
	fmt.Fprintln(w, color.GreenText("=== Assembled Program ==="))
	if prog.Len() == 0 {
		fmt.Fprintln(w, color.GrayText("No instructions."))
	} else {
		fmt.Fprint(w, asm.Listing(prog))
	}

	if packed != nil {
		fmt.Fprintln(w, color.GreenText(fmt.Sprintf("\n=== Packed Byte Code (%d bytes) ===", len(packed.Code))))
		fmt.Fprint(w, asm.PackedListing(packed))
	}
}

func (opts *Runner) stdout() io.Writer {
	if opts.Stdout != nil {
		return opts.Stdout
	}
	return os.Stdout
}

func (opts *Runner) stderr() io.Writer {
	if opts.Stderr != nil {
		return opts.Stderr
	}
	return os.Stderr
}
