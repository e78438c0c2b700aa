package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapitalizeWords(t *testing.T) {
	assert.Equal(t, "Replace", CapitalizeWords("replace"))
	assert.Equal(t, "Write File", CapitalizeWords("write file"))
}

func TestTrimLines(t *testing.T) {
	lines := TrimLines("  first line  \n\n\t second\n   \nthird")
	assert.Equal(t, []string{"first line", "second", "third"}, lines)
	assert.Empty(t, TrimLines("\n \n\t\n"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abcd...", Truncate("abcdefghij", 7))
	assert.Equal(t, "ab", Truncate("abcdef", 2))
}
