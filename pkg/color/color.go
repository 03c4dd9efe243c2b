package color

import (
	"fmt"
	"os"

	"github.com/muesli/termenv"
)

const (
	Reset = "\033[0m"
	Bold  = "\033[1m"

	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
	Gray   = "\033[90m"

	BrightRed = "\033[91m"
)

var colorEnabled = true

func init() {
	// EnvColorProfile honours NO_COLOR, CLICOLOR_FORCE and whether stdout is a tty
	if termenv.NewOutput(os.Stdout).EnvColorProfile() == termenv.Ascii {
		colorEnabled = false
	}
}

func EnableColor(enable bool) {
	colorEnabled = enable
}

func Colorize(color, text string) string {
	if !colorEnabled {
		return text
	}
	return color + text + Reset
}

func RedText(text string) string {
	return Colorize(Red, text)
}

func BrightRedText(text string) string {
	return Colorize(BrightRed, text)
}

func GreenText(text string) string {
	return Colorize(Green, text)
}

func YellowText(text string) string {
	return Colorize(Yellow, text)
}

func BlueText(text string) string {
	return Colorize(Blue, text)
}

func CyanText(text string) string {
	return Colorize(Cyan, text)
}

func GrayText(text string) string {
	return Colorize(Gray, text)
}

func BoldText(text string) string {
	return Colorize(Bold, text)
}

// Address renders a program position or byte offset, zero padded
func Address(n, width int) string {
	return CyanText(fmt.Sprintf("%0*d", width, n))
}

// Line renders a source line reference
func Line(line int) string {
	return YellowText(fmt.Sprintf("line %d", line))
}

func ErrorWithLine(line int, message, context string) string {
	if !colorEnabled {
		return fmt.Sprintf("Error at line %d: %s\n    %s", line, message, context)
	}

	return fmt.Sprintf("%s at %s: %s\n    %s",
		BrightRedText(BoldText("Error")),
		Line(line),
		message,
		GrayText(context))
}
