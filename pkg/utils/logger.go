package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync" // For thread-safe initialization

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the log file written inside the ori config directory.
const LogFileName = "ori.log"

// Logger represents the session logger.
type Logger struct {
	logger                 *log.Logger
	userInteractionEnabled bool // Flag to control user interaction
	jsonMode               bool
	debug                  bool
	console                io.Writer
	correlationID          string
}

var (
	globalLogger *Logger
	once         sync.Once
)

// LogDir returns the directory the log file is written to. ORI_LOG_DIR
// overrides the default of ~/.config/ori.
func LogDir() string {
	if dir := os.Getenv("ORI_LOG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ori"
	}
	return filepath.Join(home, ".config", "ori")
}

// GetLogger returns the singleton instance of Logger.
// It initializes the logger with a file handler that rotates logs.
// The skipPrompts parameter determines if user interaction is enabled.
// This value can be overridden on subsequent calls to GetLogger.
func GetLogger(skipPrompts bool) *Logger {
	once.Do(func() {
		logFile := &lumberjack.Logger{
			Filename:   filepath.Join(LogDir(), LogFileName),
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28,   // days
			Compress:   true, // disabled by default
		}
		globalLogger = &Logger{
			logger:  log.New(logFile, "", log.LstdFlags),
			console: os.Stderr,
		}
	})
	// Always update userInteractionEnabled, allowing it to be overridden
	globalLogger.userInteractionEnabled = !skipPrompts
	if os.Getenv("ORI_JSON_LOGS") == "1" {
		globalLogger.jsonMode = true
	}
	if cid := os.Getenv("ORI_CORRELATION_ID"); cid != "" {
		globalLogger.correlationID = cid
	}
	return globalLogger
}

// SetDebug mirrors process steps to the console writer.
func (w *Logger) SetDebug(enabled bool) {
	w.debug = enabled
}

// UserInteractionEnabled reports whether prompts may be shown to the user.
func (w *Logger) UserInteractionEnabled() bool {
	return w.userInteractionEnabled
}

// Close closes the logger resources.
func (w *Logger) Close() error {
	if logFile, ok := w.logger.Writer().(*lumberjack.Logger); ok {
		return logFile.Close()
	}
	return nil
}

// LogUserInteraction logs user interactions that require a response, and prints to stdout.
func (w *Logger) LogUserInteraction(message string) {
	w.logger.Printf("User Interaction: %s", message)
	fmt.Fprint(os.Stdout, message+"\n")
}

// LogProcessStep logs the current step in a process. In debug mode the step
// is echoed to stderr as well.
func (w *Logger) LogProcessStep(step string) {
	w.Log("Process Step: " + step)
	if w.debug && w.console != nil {
		fmt.Fprintf(w.console, "[ORI_DEBUG] %s\r\n", step)
	}
}

// Log logs a general message only to the log file.
func (w *Logger) Log(message string) {
	if w.jsonMode {
		_ = json.NewEncoder(w.logger.Writer()).Encode(map[string]any{"level": "info", "msg": message, "cid": w.correlationID})
		return
	}
	w.logger.Print(message)
}

// Logf logs a formatted general message only to the log file.
func (w *Logger) Logf(format string, v ...interface{}) {
	if w.jsonMode {
		w.Log(fmt.Sprintf(format, v...))
		return
	}
	w.logger.Printf(format, v...)
}

func (w *Logger) LogError(err error) {
	if w.jsonMode {
		_ = json.NewEncoder(w.logger.Writer()).Encode(map[string]any{"level": "error", "error": err.Error(), "cid": w.correlationID})
		return
	}
	w.logger.Printf("Error: %s", err)
}
