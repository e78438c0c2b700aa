package configuration

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

const (
	APIKeyEnvVar   = "OPENROUTER_API_KEY"
	APIKeyFileName = "key"
)

// ErrNoAPIKey means no OpenRouter key was found or entered.
var ErrNoAPIKey = errors.New("no OpenRouter API key: set " + APIKeyEnvVar + " or store one in ~/" + ConfigDirName + "/" + APIKeyFileName)

// GetAPIKeyPath returns the full path to the stored key file
func GetAPIKeyPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, APIKeyFileName), nil
}

// LoadAPIKey returns the key from the environment, then from the key file.
func LoadAPIKey() (string, error) {
	if key := strings.TrimSpace(os.Getenv(APIKeyEnvVar)); key != "" {
		return key, nil
	}

	path, err := GetAPIKeyPath()
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoAPIKey
	}
	if err != nil {
		return "", fmt.Errorf("failed to read API key file: %w", err)
	}
	key, _, _ := strings.Cut(string(data), "\n")
	if key = strings.TrimSpace(key); key == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}

// SaveAPIKey stores key in the key file, readable by the owner only.
func SaveAPIKey(key string) error {
	path, err := GetAPIKeyPath()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(path, 0o600)
}

// ResolveAPIKey loads the stored key, prompting on in/out and saving the
// answer when none is found.
func ResolveAPIKey(in io.Reader, out io.Writer) (string, error) {
	key, err := LoadAPIKey()
	if !errors.Is(err, ErrNoAPIKey) {
		return key, err
	}

	key, err = PromptForAPIKey(in, out)
	if err != nil {
		return "", err
	}
	if err := SaveAPIKey(key); err != nil {
		return "", err
	}
	return key, nil
}

// PromptForAPIKey asks for the key. Input is hidden when in is a terminal.
func PromptForAPIKey(in io.Reader, out io.Writer) (string, error) {
	fmt.Fprint(out, "Please enter your OpenRouter API key: ")

	var raw string
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		byteKey, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}
		raw = string(byteKey)
	} else {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return "", ErrNoAPIKey
		}
		raw = line
	}

	key := strings.TrimSpace(raw)
	if key == "" {
		return "", ErrNoAPIKey
	}
	return key, nil
}
