package console

// Buffer is the text being composed plus a byte-indexed cursor.
// The cursor always satisfies 0 <= cursor <= len(text).
type Buffer struct {
	text   []byte
	cursor int
}

// String returns the buffer contents.
func (b *Buffer) String() string { return string(b.text) }

// Len returns the number of bytes in the buffer.
func (b *Buffer) Len() int { return len(b.text) }

// Cursor returns the cursor offset.
func (b *Buffer) Cursor() int { return b.cursor }

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.text = b.text[:0]
	b.cursor = 0
}

// Insert puts c at the cursor and advances it.
func (b *Buffer) Insert(c byte) {
	b.text = append(b.text, 0)
	copy(b.text[b.cursor+1:], b.text[b.cursor:])
	b.text[b.cursor] = c
	b.cursor++
}

// Backspace removes the byte left of the cursor.
func (b *Buffer) Backspace() bool {
	if b.cursor == 0 {
		return false
	}
	b.text = append(b.text[:b.cursor-1], b.text[b.cursor:]...)
	b.cursor--
	return true
}

// Delete removes the byte under the cursor.
func (b *Buffer) Delete() bool {
	if b.cursor >= len(b.text) {
		return false
	}
	b.text = append(b.text[:b.cursor], b.text[b.cursor+1:]...)
	return true
}

func (b *Buffer) MoveLeft() {
	if b.cursor > 0 {
		b.cursor--
	}
}

func (b *Buffer) MoveRight() {
	if b.cursor < len(b.text) {
		b.cursor++
	}
}

func (b *Buffer) Home() { b.cursor = 0 }

func (b *Buffer) End() { b.cursor = len(b.text) }

// wordStart returns the offset reached by skipping spaces then non-spaces
// to the left of the cursor.
func (b *Buffer) wordStart() int {
	i := b.cursor
	for i > 0 && b.text[i-1] == ' ' {
		i--
	}
	for i > 0 && b.text[i-1] != ' ' {
		i--
	}
	return i
}

// WordLeft moves to the start of the previous word.
func (b *Buffer) WordLeft() {
	b.cursor = b.wordStart()
}

// WordRight moves past the current word and the spaces after it, landing on
// the start of the next word. From any word start it undoes WordLeft.
func (b *Buffer) WordRight() {
	i := b.cursor
	for i < len(b.text) && b.text[i] != ' ' {
		i++
	}
	for i < len(b.text) && b.text[i] == ' ' {
		i++
	}
	b.cursor = i
}

// DeleteWord removes the previous word (Ctrl-W).
func (b *Buffer) DeleteWord() bool {
	start := b.wordStart()
	if start == b.cursor {
		return false
	}
	b.text = append(b.text[:start], b.text[b.cursor:]...)
	b.cursor = start
	return true
}

// KillToStart removes everything before the cursor (Ctrl-U).
func (b *Buffer) KillToStart() bool {
	if b.cursor == 0 {
		return false
	}
	b.text = append(b.text[:0], b.text[b.cursor:]...)
	b.cursor = 0
	return true
}

// LineCol derives the cursor's line and column by counting newlines before it.
func (b *Buffer) LineCol() (line, col int) {
	lineStart := 0
	for i := 0; i < b.cursor; i++ {
		if b.text[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, b.cursor - lineStart
}

// LineCount returns the number of display lines the buffer occupies.
func (b *Buffer) LineCount() int {
	n := 1
	for _, c := range b.text {
		if c == '\n' {
			n++
		}
	}
	return n
}

// lineBounds returns the [start, end) offsets of line n, or ok=false.
func (b *Buffer) lineBounds(n int) (start, end int, ok bool) {
	line := 0
	start = 0
	for i, c := range b.text {
		if c != '\n' {
			continue
		}
		if line == n {
			return start, i, true
		}
		line++
		start = i + 1
	}
	if line == n {
		return start, len(b.text), true
	}
	return 0, 0, false
}

// MoveUp moves to the same column on the previous line, clamped to its length.
func (b *Buffer) MoveUp() {
	line, col := b.LineCol()
	if line == 0 {
		return
	}
	b.moveToLine(line-1, col)
}

// MoveDown moves to the same column on the next line, clamped to its length.
func (b *Buffer) MoveDown() {
	line, col := b.LineCol()
	b.moveToLine(line+1, col)
}

func (b *Buffer) moveToLine(line, col int) {
	start, end, ok := b.lineBounds(line)
	if !ok {
		return
	}
	if start+col > end {
		b.cursor = end
		return
	}
	b.cursor = start + col
}
