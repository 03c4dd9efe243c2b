package main

import (
	"flag"
	"fmt"
	"os"

	"stackvm/internal/logger"
	"stackvm/internal/runner"
	"stackvm/pkg/color"

	"github.com/charmbracelet/log"
)

// Main entry point for the stackvm assembler and virtual machine.
func main() {
	options := runner.Runner{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&options.ShouldRun, "r", true, "Run the program (off with -o unless given)")
	flag.BoolVar(&options.Packed, "p", false, "Run packed byte code")
	flag.BoolVar(&options.Trace, "t", false, "Trace every instruction")
	flag.BoolVar(&options.Listing, "l", false, "Print the assembled program")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.IntVar(&options.MaxSteps, "m", 0, "Maximum instructions to execute (0 = unlimited)")
	flag.StringVar(&options.ConfigFile, "c", "", "Path to a stackvm.toml (default: search upwards from the source file)")
	flag.StringVar(&options.OutputFile, "o", "", "Write the assembled image to this file (.svmc)")

	flag.Parse()
	args := flag.Args()

	logger.Init(options.Verbose, options.NoColor)
	if options.Help {
		fmt.Printf("Usage: %s [options] <file>\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if len(args) == 0 {
		log.Fatal("No input file provided", "help", fmt.Sprintf("%s -h", os.Args[0]))
	}

	options.SourceFile = args[0]

	cfg, err := options.LoadConfig()
	if err != nil {
		log.Fatal("Invalid configuration", "error", err)
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	options.ApplyConfig(cfg, set)

	logger.Init(options.Verbose || options.Trace, options.NoColor)
	if options.NoColor {
		color.EnableColor(false)
	}
	if cfg.Path != "" {
		log.Debug("Loaded configuration", "file", cfg.Path)
	}

	if err := options.Run(); err != nil {
		log.Fatal("Run failed", "error", err)
	}
}
