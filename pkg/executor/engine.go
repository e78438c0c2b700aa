// Package executor runs shell commands on behalf of the assistant: it asks for
// confirmation, runs each command in its own process group, captures combined
// output and honours the session interrupt flag.
package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/alantheprice/ori/pkg/console"
	"github.com/alantheprice/ori/pkg/session"
	"github.com/alantheprice/ori/pkg/ui"
	"github.com/alantheprice/ori/pkg/utils"
)

// CancelledMarker is appended to the output of a run stopped by the user.
const CancelledMarker = "[cancelled by user]"

const DefaultPollInterval = 50 * time.Millisecond

var ErrEmptyCommand = errors.New("empty command provided")

// Result is the outcome of Execute. Declined runs carry no log entry.
type Result struct {
	session.Entry
	Declined bool
	Err      error
}

// Engine executes commands one at a time.
type Engine struct {
	session      *session.Session
	in           *bufio.Reader
	out          io.Writer
	logger       *utils.Logger
	shell        string
	pollInterval time.Duration
}

type Option func(*Engine)

func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

func WithShell(shell string) Option {
	return func(e *Engine) {
		if shell != "" {
			e.shell = shell
		}
	}
}

func WithLogger(logger *utils.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an engine. in is read for confirmations and should be
// the same reader the line editor uses.
func NewEngine(sess *session.Session, in *bufio.Reader, out io.Writer, opts ...Option) *Engine {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	e := &Engine{
		session:      sess,
		in:           in,
		out:          out,
		shell:        shell,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RequiresElevation reports whether command mentions sudo or a standalone su.
func RequiresElevation(command string) bool {
	if strings.Contains(command, "sudo") {
		return true
	}
	words := strings.FieldsFunc(command, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-'
	})
	for _, w := range words {
		if w == "su" {
			return true
		}
	}
	return false
}

// Confirm asks the user whether to run command. Anything but y or yes,
// a read error, or an interrupt while waiting declines.
func (e *Engine) Confirm(command string) bool {
	if RequiresElevation(command) {
		ui.Printf(e.out, ui.Yellow, "Warning: this command requests elevated privileges.")
	}
	fmt.Fprintf(e.out, "%s %s\n", ui.Colorize(ui.Bold, "Execute command:"), command)
	fmt.Fprint(e.out, "Proceed? (y/n): ")

	answer, err := e.in.ReadString('\n')
	if e.session.ConsumeInterrupt() {
		e.logf("confirmation interrupted for %q", command)
		return false
	}
	if err != nil {
		e.logf("confirmation read failed for %q: %v", command, err)
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// Execute confirms (unless autoConfirm) and runs command, appending exactly
// one CommandLog entry for every run that was attempted.
func (e *Engine) Execute(ctx context.Context, command string, autoConfirm bool) Result {
	command = strings.TrimSpace(command)
	if command == "" {
		return Result{Entry: session.Entry{Command: command, ExitCode: -1}, Err: ErrEmptyCommand}
	}

	if !autoConfirm && !e.Confirm(command) {
		e.logf("command declined: %s", command)
		return Result{Entry: session.Entry{Command: command}, Declined: true}
	}

	// A signal from before the run must not cancel it.
	e.session.ConsumeInterrupt()
	ui.Printf(e.out, ui.Magenta, "Executing command: %s", command)

	res := e.run(ctx, command)
	e.session.Log.Append(res.Entry)
	return res
}

func (e *Engine) run(ctx context.Context, command string) Result {
	started := time.Now()
	res := Result{Entry: session.Entry{Command: command, StartedAt: started}}

	r, err := spawn(e.shell, command)
	if err != nil {
		e.logf("spawn failed for %q: %v", command, err)
		res.Output = err.Error()
		res.ExitCode = -1
		res.Err = err
		res.Duration = time.Since(started)
		return res
	}
	defer r.close()
	e.logf("spawned pid %d: %s", r.pid, command)

	cancelled, err := e.capturer(command).capture(ctx, r)
	if err != nil {
		e.logf("capture error for pid %d: %v", r.pid, err)
		res.Err = err
	}

	output := r.output.String()
	if cancelled {
		if output != "" && !strings.HasSuffix(output, "\n") {
			output += "\n"
		}
		output += CancelledMarker
		e.logf("cancelled pid %d", r.pid)
	}

	res.Output = output
	res.ExitCode = r.exitCode
	res.Cancelled = cancelled
	res.Duration = time.Since(started)
	e.logf("reaped pid %d exit=%d after %s", r.pid, r.exitCode, res.Duration)
	return res
}

func (e *Engine) capturer(command string) capturer {
	if e.session.LogView() {
		return &blockingCapture{session: e.session, interval: e.pollInterval}
	}
	label := fmt.Sprintf("running %s...", utils.Truncate(command, 40))
	return &polledCapture{
		session:  e.session,
		interval: e.pollInterval,
		spinner:  console.NewSpinner(e.out, label),
	}
}

func (e *Engine) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Logf(format, args...)
	}
}
