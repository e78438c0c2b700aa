package console

import "fmt"

// ANSI escape sequence helpers for the input area. Only relative moves are
// used so the editor works wherever the prompt happens to be on screen.

// cursorUpSeq moves the cursor up n lines; n <= 0 yields "".
func cursorUpSeq(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("\x1b[%dA", n)
}

// cursorForwardSeq moves the cursor right n columns; n <= 0 yields "".
func cursorForwardSeq(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("\x1b[%dC", n)
}

// clearToEndOfScreenSeq returns to column 0 and clears everything below.
func clearToEndOfScreenSeq() string { return "\r\x1b[J" }
