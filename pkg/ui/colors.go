package ui

import (
	"fmt"
	"io"
)

// ANSI colour and control sequences shared by the terminal components.
const (
	Reset   = "\x1b[0m"
	Bold    = "\x1b[1m"
	Red     = "\x1b[31m"
	Green   = "\x1b[32m"
	Yellow  = "\x1b[33m"
	Blue    = "\x1b[34m"
	Magenta = "\x1b[35m"
	Cyan    = "\x1b[36m"

	ClearScreen = "\x1b[2J\x1b[H"
	ClearLine   = "\r\x1b[2K"
)

// Colorize wraps text in the given colour.
func Colorize(color, text string) string {
	return color + text + Reset
}

// Printf writes a coloured, formatted line to w.
func Printf(w io.Writer, color, format string, args ...any) {
	fmt.Fprint(w, Colorize(color, fmt.Sprintf(format, args...))+"\n")
}
