package prompts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemPromptDescribesTags(t *testing.T) {
	t.Setenv(SystemPromptEnv, "")
	prompt := SystemPrompt()
	for _, tag := range []string{"[exec]", "[/exec]", "[edit]", "[/edit]", "[writefile(", "[/writefile]", `"content": {"new"`} {
		assert.Contains(t, prompt, tag)
	}
}

func TestSystemPromptOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("  You are terse.\n"), 0o644))
	t.Setenv(SystemPromptEnv, path)
	assert.Equal(t, "You are terse.", SystemPrompt())

	require.NoError(t, os.WriteFile(path, []byte("\n\n"), 0o644))
	assert.Contains(t, SystemPrompt(), "[exec]", "an empty file keeps the built-in prompt")

	t.Setenv(SystemPromptEnv, filepath.Join(t.TempDir(), "missing"))
	assert.Contains(t, SystemPrompt(), "[exec]")
}

func TestNewConversation(t *testing.T) {
	t.Setenv(SystemPromptEnv, "")
	history := NewConversation()
	require.Len(t, history, 1)
	assert.Equal(t, "system", history[0].Role)
	assert.True(t, strings.HasPrefix(history[0].Content, "You are Ori"))
}

func TestHelpTextListsCommands(t *testing.T) {
	for _, cmd := range []string{"/help", "/quit", "/exit", "/clear", "/log", "/restore"} {
		assert.Contains(t, HelpText(), cmd)
	}
}
