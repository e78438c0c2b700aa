package configuration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(APIKeyEnvVar, "")
	return home
}

func TestLoadCreatesDefaults(t *testing.T) {
	home := withHome(t)

	config, err := Load()
	require.NoError(t, err)
	assert.Equal(t, NewConfig(), config)
	assert.FileExists(t, filepath.Join(home, ".config", "ori", "config.json"))
	assert.Equal(t, 50*time.Millisecond, config.PollInterval())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	withHome(t)

	config := NewConfig()
	require.NoError(t, config.Set("model", "openai/gpt-4o"))
	require.NoError(t, config.Set("no_banner", "true"))
	require.NoError(t, config.Set("provider", "ollama"))
	require.NoError(t, config.Save())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o", loaded.Model)
	assert.True(t, loaded.NoBanner)
	assert.Equal(t, ProviderOllama, loaded.Provider)
	assert.Equal(t, DefaultPort, loaded.Port)
}

func TestLoadFillsMissingFields(t *testing.T) {
	home := withHome(t)
	dir := filepath.Join(home, ".config", "ori")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"no_clear": true}`), 0o644))

	config, err := Load()
	require.NoError(t, err)
	assert.True(t, config.NoClear)
	assert.Equal(t, DefaultModel, config.Model)
	assert.Equal(t, DefaultPollMillis, config.PollIntervalMs)
}

func TestLoadRejectsBadJSON(t *testing.T) {
	home := withHome(t)
	dir := filepath.Join(home, ".config", "ori")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{port:`), 0o644))

	_, err := Load()
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoadExternalSavesAsUserConfig(t *testing.T) {
	withHome(t)
	external := filepath.Join(t.TempDir(), "team.json")
	require.NoError(t, os.WriteFile(external, []byte(`{"model":"team/model","port":9000}`), 0o644))

	config, err := LoadExternal(external)
	require.NoError(t, err)
	assert.Equal(t, "team/model", config.Model)
	assert.Equal(t, 9000, config.Port)

	reloaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, config, reloaded)

	_, err = LoadExternal(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSetValidation(t *testing.T) {
	tests := []struct {
		key, value string
		errMsg     string
	}{
		{"port", "abc", "invalid port"},
		{"port", "70000", "invalid port"},
		{"no_banner", "maybe", "want true or false"},
		{"provider", "openai", "unsupported provider"},
		{"poll_interval_ms", "0", "invalid poll interval"},
		{"model", "", "cannot be empty"},
		{"colour", "blue", "unknown configuration key"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			config := NewConfig()
			err := config.Set(tt.key, tt.value)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.Equal(t, NewConfig(), config, "a rejected value leaves the config unchanged")
		})
	}
}

func TestGetAndKeys(t *testing.T) {
	config := NewConfig()
	for _, key := range config.Keys() {
		_, err := config.Get(key)
		assert.NoError(t, err, key)
	}

	require.NoError(t, config.Set("auto_confirm", "1"))
	v, err := config.Get("auto_confirm")
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	_, err = config.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownKey)
	assert.Contains(t, err.Error(), "known keys: auto_confirm, model, no_banner")

	all, err := config.All()
	require.NoError(t, err)
	assert.Contains(t, all, `"model": "qwen/qwen3-coder:free"`)
	assert.NotContains(t, all, "Debug")
}

func TestLoadAPIKeyOrder(t *testing.T) {
	withHome(t)

	_, err := LoadAPIKey()
	assert.ErrorIs(t, err, ErrNoAPIKey)

	require.NoError(t, SaveAPIKey("from-file"))
	key, err := LoadAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "from-file", key)

	t.Setenv(APIKeyEnvVar, " from-env ")
	key, err = LoadAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}

func TestResolveAPIKeyPromptsAndSaves(t *testing.T) {
	withHome(t)
	var out strings.Builder

	key, err := ResolveAPIKey(strings.NewReader("sk-typed\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "sk-typed", key)
	assert.Contains(t, out.String(), "Please enter your OpenRouter API key")

	path, err := GetAPIKeyPath()
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	out.Reset()
	key, err = ResolveAPIKey(strings.NewReader(""), &out)
	require.NoError(t, err)
	assert.Equal(t, "sk-typed", key)
	assert.Empty(t, out.String(), "a stored key needs no prompt")
}

func TestPromptForAPIKeyEmpty(t *testing.T) {
	var out strings.Builder
	_, err := PromptForAPIKey(strings.NewReader("\n"), &out)
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = PromptForAPIKey(strings.NewReader(""), &out)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}
