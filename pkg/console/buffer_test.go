package console

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bufferWith(text string, cursor int) *Buffer {
	b := &Buffer{text: []byte(text), cursor: cursor}
	return b
}

func TestBufferInsertAndBackspace(t *testing.T) {
	var b Buffer
	for _, c := range []byte("helo") {
		b.Insert(c)
	}
	b.MoveLeft()
	b.Insert('l')
	assert.Equal(t, "hello", b.String())
	assert.Equal(t, 4, b.Cursor())

	assert.True(t, b.Backspace())
	assert.Equal(t, "helo", b.String())
	assert.Equal(t, 3, b.Cursor())

	b.Home()
	assert.False(t, b.Backspace())
	assert.True(t, b.Delete())
	assert.Equal(t, "elo", b.String())

	b.End()
	assert.False(t, b.Delete())
	assert.Equal(t, 3, b.Cursor())
}

func TestBufferCursorStaysInBounds(t *testing.T) {
	b := bufferWith("ab", 0)
	b.MoveLeft()
	assert.Equal(t, 0, b.Cursor())
	b.End()
	b.MoveRight()
	assert.Equal(t, 2, b.Cursor())
}

func TestBufferDeleteWord(t *testing.T) {
	b := bufferWith("git commit   ", 13)
	assert.True(t, b.DeleteWord())
	assert.Equal(t, "git ", b.String())
	assert.Equal(t, 4, b.Cursor())

	b = bufferWith("one two three", 7)
	assert.True(t, b.DeleteWord())
	assert.Equal(t, "one  three", b.String())
	assert.Equal(t, 4, b.Cursor())

	b = bufferWith("abc", 0)
	assert.False(t, b.DeleteWord())
}

func TestBufferKillToStart(t *testing.T) {
	b := bufferWith("hello world", 6)
	assert.True(t, b.KillToStart())
	assert.Equal(t, "world", b.String())
	assert.Equal(t, 0, b.Cursor())
	assert.False(t, b.KillToStart())
}

func TestBufferWordMovement(t *testing.T) {
	b := bufferWith("ls -la  /tmp", 12)
	b.WordLeft()
	assert.Equal(t, 8, b.Cursor())
	b.WordLeft()
	assert.Equal(t, 3, b.Cursor())
	b.WordLeft()
	assert.Equal(t, 0, b.Cursor())
	b.WordLeft()
	assert.Equal(t, 0, b.Cursor())

	b.WordRight()
	assert.Equal(t, 3, b.Cursor())
	b.WordRight()
	assert.Equal(t, 8, b.Cursor())
	b.WordRight()
	assert.Equal(t, 12, b.Cursor())
}

func TestBufferWordMovementIsSymmetric(t *testing.T) {
	texts := []string{
		"echo hello world",
		"  leading spaces",
		"trailing   ",
		"a b  c   d",
		"multi\nline text",
	}
	for _, text := range texts {
		b := bufferWith(text, 0)
		// Every offset WordLeft can land on, plus the end of the buffer.
		stops := map[int]bool{len(text): true}
		for p := 0; p <= len(text); p++ {
			b.cursor = p
			b.WordLeft()
			stops[b.cursor] = true
		}
		for p := range stops {
			if p == 0 {
				continue
			}
			b.cursor = p
			b.WordLeft()
			b.WordRight()
			assert.Equal(t, p, b.Cursor(), "text %q from %d", text, p)
		}
	}
}

func TestBufferLineCol(t *testing.T) {
	text := "first\nsecond line\n\nlast"
	b := bufferWith(text, 0)
	for p := 0; p <= len(text); p++ {
		b.cursor = p
		line, col := b.LineCol()
		before := text[:p]
		assert.Equal(t, strings.Count(before, "\n"), line, "offset %d", p)
		assert.Equal(t, p-(strings.LastIndex(before, "\n")+1), col, "offset %d", p)
	}
	assert.Equal(t, 4, b.LineCount())
}

func TestBufferVerticalMovement(t *testing.T) {
	b := bufferWith("abcdef\nxy\nlonger line", 5)

	b.MoveDown()
	line, col := b.LineCol()
	require.Equal(t, 1, line)
	assert.Equal(t, 2, col, "clamped to the shorter line")

	b.MoveDown()
	line, col = b.LineCol()
	assert.Equal(t, 2, line)
	assert.Equal(t, 2, col)

	b.MoveDown()
	line, _ = b.LineCol()
	assert.Equal(t, 2, line, "no line below the last")

	b.MoveUp()
	b.MoveUp()
	line, col = b.LineCol()
	assert.Equal(t, 0, line)
	assert.Equal(t, 2, col)

	b.MoveUp()
	assert.Equal(t, 2, b.Cursor())
	assert.Equal(t, "abcdef\nxy\nlonger line", b.String(), "vertical moves never edit")
}
