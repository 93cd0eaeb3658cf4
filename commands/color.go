package commands

import (
	"fmt"

	"github.com/fatih/color"
)

const (
	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

var (
	StyleError   = []color.Attribute{color.FgRed, color.Bold}
	StyleSuccess = []color.Attribute{color.FgGreen, color.Bold}
	StyleFailure = []color.Attribute{color.FgRed, color.Bold}
	StyleHeading = []color.Attribute{color.FgCyan, color.Bold}
	StyleWarning = []color.Attribute{color.FgYellow}
)

// ColorPrinter decides whether output gets ANSI colors.
type ColorPrinter struct {
	// Mode is one of always, auto or never. Auto colors when stdout is a
	// terminal.
	Mode string
}

// Apply sets the process-wide color default to match the printer so output
// from other packages agrees with it.
func (c *ColorPrinter) Apply() {
	switch c.Mode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	}
}

func (c *ColorPrinter) ShouldColor() bool {
	switch {
	case c == nil || c.Mode == ColorNever:
		return false
	case c.Mode == ColorAlways:
		return true
	default:
		return !color.NoColor
	}
}

func (c *ColorPrinter) Sprintf(style []color.Attribute, format string, a ...interface{}) string {
	if !c.ShouldColor() {
		return fmt.Sprintf(format, a...)
	}
	col := color.New(style...)
	col.EnableColor()
	return col.Sprintf(format, a...)
}
