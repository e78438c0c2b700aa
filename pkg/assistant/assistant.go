// Package assistant wires the line editor, the model and the response
// dispatcher into the interactive session and the one-shot mode.
package assistant

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alantheprice/ori/pkg/configuration"
	"github.com/alantheprice/ori/pkg/console"
	"github.com/alantheprice/ori/pkg/edit"
	"github.com/alantheprice/ori/pkg/executor"
	"github.com/alantheprice/ori/pkg/model"
	"github.com/alantheprice/ori/pkg/prompts"
	"github.com/alantheprice/ori/pkg/protocol"
	"github.com/alantheprice/ori/pkg/session"
	"github.com/alantheprice/ori/pkg/ui"
	"github.com/alantheprice/ori/pkg/utils"
)

// Version is reported in the banner and by `ori version`.
var Version = "v1.2.0"

const banner = `
   ██████  ██████  ██
  ██    ██ ██   ██ ██
  ██    ██ ██████  ██
  ██    ██ ██   ██ ██
   ██████  ██   ██ ██
`

type Assistant struct {
	cfg        *configuration.Config
	out        io.Writer
	session    *session.Session
	editor     *console.LineEditor
	edits      *edit.Editor
	dispatcher *protocol.Dispatcher
	logger     *utils.Logger
}

type settings struct {
	logger *utils.Logger
	shell  string
}

type Option func(*settings)

func WithLogger(logger *utils.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithShell runs commands with shell instead of $SHELL.
func WithShell(shell string) Option {
	return func(s *settings) { s.shell = shell }
}

// New builds an assistant that reads from in and writes to out. All prompts,
// from the line editor to command and edit confirmations, share one buffered
// reader over in.
func New(cfg *configuration.Config, client model.Client, in io.Reader, out io.Writer, opts ...Option) *Assistant {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	a := &Assistant{cfg: cfg, out: out, session: session.New(), logger: s.logger}
	a.editor = console.NewLineEditor(in, out, a.session,
		console.WithBanner(a.Banner),
		console.WithLogger(s.logger))

	engineOpts := []executor.Option{
		executor.WithPollInterval(cfg.PollInterval()),
		executor.WithLogger(s.logger),
	}
	if s.shell != "" {
		engineOpts = append(engineOpts, executor.WithShell(s.shell))
	}
	engine := executor.NewEngine(a.session, a.editor.Reader(), out, engineOpts...)
	a.edits = edit.NewEditor(a.editor.Reader(), out, edit.WithLogger(s.logger))

	dispatchOpts := []protocol.Option{
		protocol.WithSession(a.session),
		protocol.WithLogger(s.logger),
	}
	if client != nil {
		dispatchOpts = append(dispatchOpts, protocol.WithModel(client))
	}
	a.dispatcher = protocol.NewDispatcher(out, engine, a.edits, dispatchOpts...)
	return a
}

// Session returns the session whose log and flags the assistant uses.
func (a *Assistant) Session() *session.Session {
	return a.session
}

// Banner prints the logo, version and help hint.
func (a *Assistant) Banner(w io.Writer) {
	fmt.Fprint(w, ui.Colorize(ui.Blue, banner))
	fmt.Fprintln(w, ui.Colorize(ui.Bold+ui.Blue, prompts.Greeting(Version)))
	fmt.Fprintln(w, prompts.HelpHint())
}

// Run is the interactive loop. It returns when the user quits, input ends or
// ctx is done.
func (a *Assistant) Run(ctx context.Context) error {
	a.session.HandleInterrupts()
	defer a.session.Stop()

	if !a.cfg.NoClear {
		fmt.Fprint(a.out, ui.ClearScreen)
	}
	if !a.cfg.NoBanner {
		a.Banner(a.out)
	}

	for ctx.Err() == nil {
		line, status := a.editor.ReadLine()
		switch status {
		case console.StatusEOF:
			a.logf("input closed, leaving interactive session")
			return nil
		case console.StatusCancelled:
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			if a.command(input) {
				return nil
			}
			continue
		}
		a.ask(ctx, input)
	}
	return nil
}

// RunOnce sends prompt, dispatches the reply and returns.
func (a *Assistant) RunOnce(ctx context.Context, prompt string) error {
	a.session.HandleInterrupts()
	defer a.session.Stop()

	a.logf("one-shot prompt: %s", prompt)
	return a.dispatcher.Ask(ctx, prompt, a.cfg.AutoConfirm)
}

func (a *Assistant) ask(ctx context.Context, input string) {
	a.logf("user prompt: %s", input)
	fmt.Fprintln(a.out)
	if err := a.dispatcher.Ask(ctx, input, a.cfg.AutoConfirm); err != nil {
		a.logf("query failed: %v", err)
		ui.Printf(a.out, ui.Red, "Error: %v", err)
	}
}

// command handles a slash command and reports whether the session should end.
func (a *Assistant) command(input string) bool {
	name, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprint(a.out, prompts.HelpText())
	case "/clear":
		fmt.Fprint(a.out, ui.ClearScreen)
	case "/log":
		a.session.Log.Render(a.out, "\n")
	case "/restore":
		if arg == "" {
			ui.Printf(a.out, ui.Yellow, "%s", prompts.RestoreUsage())
			break
		}
		a.edits.RestoreBackup(arg)
	default:
		ui.Printf(a.out, ui.Red, "%s", prompts.UnknownCommand(input))
	}
	return false
}

func (a *Assistant) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Logf(format, args...)
	}
}
