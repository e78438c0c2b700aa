package console

import "strings"

// DefaultWidth is used when the terminal size cannot be read.
const DefaultWidth = 80

// renderer redraws the input area after every mutation. It remembers which
// physical row of the input area the terminal cursor was left on so the next
// redraw can climb back to the first row with relative moves only.
//
// A logical line that is wider than the terminal wraps onto further rows.
// Each logical line takes len/width+1 rows: a line that exactly fills its
// last row is followed by an explicit line break so the cursor never sits in
// the terminal's pending-wrap column.
type renderer struct {
	prompt       string
	continuation string
	// width is the terminal width in columns; 0 disables wrapping.
	width     int
	cursorRow int
}

// reset forgets the previous draw, for use after the screen was cleared or
// other output was written below the prompt.
func (r *renderer) reset() {
	r.cursorRow = 0
}

func (r *renderer) prefix(line int) string {
	if line == 0 {
		return r.prompt
	}
	return r.continuation
}

// place returns the row, relative to the first row of its logical line, and
// column of offset, a visible column count from the start of that line.
func (r *renderer) place(offset int) (row, col int) {
	if r.width <= 0 {
		return 0, offset
	}
	return offset / r.width, offset % r.width
}

// render returns the escape sequence that redraws buf and parks the cursor.
func (r *renderer) render(buf *Buffer) string {
	var sb strings.Builder

	sb.WriteString(cursorUpSeq(r.cursorRow))
	sb.WriteString(clearToEndOfScreenSeq())

	line, lineCol := buf.LineCol()
	row, col, endRow := 0, 0, 0
	for i, text := range strings.Split(buf.String(), "\n") {
		if i > 0 {
			sb.WriteString("\r\n")
			endRow++
		}
		p := r.prefix(i)
		sb.WriteString(p)
		sb.WriteString(text)

		width := visibleWidth(p) + len(text)
		rows, c := r.place(width)
		if rows > 0 && c == 0 {
			sb.WriteString("\r\n")
		}
		if i == line {
			cr, cc := r.place(visibleWidth(p) + lineCol)
			row, col = endRow+cr, cc
		}
		endRow += rows
	}

	sb.WriteString(cursorUpSeq(endRow - row))
	sb.WriteString("\r")
	sb.WriteString(cursorForwardSeq(col))

	r.cursorRow = row
	return sb.String()
}

// visibleWidth counts the bytes of s that occupy a column, skipping CSI
// escape sequences used for colour.
func visibleWidth(s string) int {
	width := 0
	for i := 0; i < len(s); i++ {
		if s[i] == escape && i+1 < len(s) && s[i+1] == '[' {
			i += 2
			for i < len(s) && (s[i] < 0x40 || s[i] > 0x7e) {
				i++
			}
			continue
		}
		width++
	}
	return width
}
