package prompts

import "fmt"

// --- Config Prompts ---
func ConfigSaved(path string) string {
	return fmt.Sprintf("Config saved to %s", path)
}

// --- Interactive session ---
func Greeting(version string) string {
	return fmt.Sprintf("ORI Terminal Assistant %s", version)
}

func HelpHint() string {
	return "Type '/help' for available commands or '/quit' to exit."
}

func HelpText() string {
	return `Available commands:
  /help            Show this help message
  /quit, /exit     Exit the assistant
  /clear           Clear the screen
  /log             Show the commands run in this session
  /restore <file>  Restore <file> from its backup
Keys: Enter submits, Alt-Enter inserts a newline, Ctrl-F toggles the command log,
Esc or Ctrl-C cancels the line, Ctrl-D on an empty line exits.
Or type any query to send to the AI assistant.
`
}

func UnknownCommand(input string) string {
	return fmt.Sprintf("Unknown command: %s", input)
}

func RestoreUsage() string {
	return "Usage: /restore <file>"
}

func Goodbye() string {
	return "Goodbye!"
}
