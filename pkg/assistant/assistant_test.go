package assistant

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alantheprice/ori/pkg/configuration"
	"github.com/alantheprice/ori/pkg/edit"
	"github.com/alantheprice/ori/pkg/model"
	"github.com/alantheprice/ori/pkg/protocol"
	"github.com/alantheprice/ori/pkg/ui"
)

type scriptedModel struct {
	mu      sync.Mutex
	prompts []string
	replies []string
}

func (m *scriptedModel) SendQuery(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if len(m.replies) == 0 {
		return "", nil
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

func (m *scriptedModel) Model() string { return "scripted" }

func quietConfig() *configuration.Config {
	cfg := configuration.NewConfig()
	cfg.NoBanner = true
	cfg.NoClear = true
	cfg.PollIntervalMs = 10
	return cfg
}

func newTestAssistant(cfg *configuration.Config, client model.Client, input string) (*Assistant, *bytes.Buffer) {
	var out bytes.Buffer
	return New(cfg, client, strings.NewReader(input), &out, WithShell("/bin/sh")), &out
}

func TestRunSlashCommands(t *testing.T) {
	m := &scriptedModel{}
	a, out := newTestAssistant(quietConfig(), m, "/help\n/bogus\n/restore\n/quit\nnever sent\n")

	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "Available commands")
	assert.Contains(t, out.String(), "Unknown command: /bogus")
	assert.Contains(t, out.String(), "Usage: /restore <file>")
	assert.Empty(t, m.prompts, "nothing after /quit is read")
}

func TestRunBannerAndClear(t *testing.T) {
	cfg := configuration.NewConfig()
	a, out := newTestAssistant(cfg, &scriptedModel{}, "/exit\n")

	require.NoError(t, a.Run(context.Background()))
	assert.True(t, strings.HasPrefix(out.String(), ui.ClearScreen))
	assert.Contains(t, out.String(), "ORI Terminal Assistant "+Version)
	assert.Contains(t, out.String(), "/help")
}

func TestRunExecutesAndFeedsBack(t *testing.T) {
	cfg := quietConfig()
	cfg.AutoConfirm = true
	m := &scriptedModel{replies: []string{"Let me look.\n[exec]echo hi[/exec]", "It printed hi."}}
	a, out := newTestAssistant(cfg, m, "what does echo say?\n/log\n")

	require.NoError(t, a.Run(context.Background()), "end of input ends the session")

	require.Len(t, m.prompts, 2)
	assert.Equal(t, "what does echo say?", m.prompts[0])
	assert.Equal(t, protocol.FeedbackPrompt("echo hi", "hi\n"), m.prompts[1])
	assert.Contains(t, out.String(), "It printed hi.\n")

	entries := a.Session().Log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "echo hi", entries[0].Command)
	assert.Contains(t, out.String(), "$ echo hi", "/log renders the command log")
}

func TestRunConfirmationSharesInput(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	m := &scriptedModel{replies: []string{"[exec]touch created[/exec]", "Understood."}}
	a, out := newTestAssistant(quietConfig(), m, "make a file\nn\n")

	require.NoError(t, a.Run(context.Background()))
	assert.NoFileExists(t, filepath.Join(dir, "created"))
	assert.Contains(t, out.String(), "Proceed? (y/n)")
	assert.Contains(t, out.String(), "Command execution cancelled.")
	require.Len(t, m.prompts, 2)
	assert.Contains(t, m.prompts[1], "The user cancelled the command execution")
	assert.Zero(t, a.Session().Log.Len())
}

func TestRunWithoutModelReportsError(t *testing.T) {
	a, out := newTestAssistant(quietConfig(), nil, "hello\n")
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "Error: no model configured")
}

func TestRunRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("edited"), 0o644))
	require.NoError(t, os.WriteFile(edit.BackupPath(path), []byte("original"), 0o644))

	a, out := newTestAssistant(quietConfig(), &scriptedModel{}, "/restore "+path+"\n")
	require.NoError(t, a.Run(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
	assert.Contains(t, out.String(), "Backup restored successfully")
}

func TestRunOnceWritesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	m := &scriptedModel{replies: []string{"Writing it now.\n[writefile(hello.txt)]hello world[/writefile]\nDone."}}
	a, out := newTestAssistant(quietConfig(), m, "")

	require.NoError(t, a.RunOnce(context.Background(), "create hello.txt"))
	data, err := os.ReadFile(filepath.Join(dir, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.Contains(t, out.String(), "File created: hello.txt")
	assert.Contains(t, out.String(), "Done.\n")
}

func TestRunStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := &scriptedModel{}
	a, _ := newTestAssistant(quietConfig(), m, "hello\n")

	require.NoError(t, a.Run(ctx))
	assert.Empty(t, m.prompts)
}
