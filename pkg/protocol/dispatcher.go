package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/alantheprice/ori/pkg/console"
	"github.com/alantheprice/ori/pkg/executor"
	"github.com/alantheprice/ori/pkg/session"
	"github.com/alantheprice/ori/pkg/ui"
	"github.com/alantheprice/ori/pkg/utils"
)

// Executor runs [exec] commands.
type Executor interface {
	Execute(ctx context.Context, command string, autoConfirm bool) executor.Result
}

// EditCollaborator applies [edit] operations to the filesystem.
type EditCollaborator interface {
	ApplyChanges(op EditOperation) bool
	ShowDiff(fileA, fileB string) bool
	CreateBackup(file string) bool
}

// Querier sends a prompt to the model.
type Querier interface {
	SendQuery(ctx context.Context, prompt string) (string, error)
}

// StatusReporter is implemented by queriers that report progress, such as a
// rate-limit wait, while a query is in flight.
type StatusReporter interface {
	SetStatusFunc(fn func(string))
}

var (
	// ErrNoModel is returned by Ask when the dispatcher has no model.
	ErrNoModel = errors.New("no model configured")
	// ErrQueryCancelled is returned when the user interrupts a pending query.
	ErrQueryCancelled = errors.New("request cancelled by user")
)

// interruptPoll is how often a pending query checks the interrupt flag.
const interruptPoll = 50 * time.Millisecond

// DefaultMaxDepth bounds how many model replies one response may chain
// through command feedback.
const DefaultMaxDepth = 8

const declinedPrompt = "The user cancelled the command execution. Please inform the user that you cannot answer the question without running the command."

// FeedbackPrompt is what the model receives after one of its commands ran.
func FeedbackPrompt(command, output string) string {
	return fmt.Sprintf("The command \"%s\" produced the following output:\n---\n%s\n---\nPlease summarize this output or answer the original question based on it.", command, output)
}

// Dispatcher walks a response, printing its text and executing its
// directives in order.
type Dispatcher struct {
	out      io.Writer
	exec     Executor
	edit     EditCollaborator
	model    Querier
	session  *session.Session
	logger   *utils.Logger
	maxDepth int
}

type Option func(*Dispatcher)

// WithModel enables command feedback: the output of every confirmed command
// is sent back through q and the reply is dispatched in turn.
func WithModel(q Querier) Option {
	return func(d *Dispatcher) { d.model = q }
}

// WithSession lets the dispatcher print command output directly while the
// command log view is active.
func WithSession(sess *session.Session) Option {
	return func(d *Dispatcher) { d.session = sess }
}

func WithLogger(logger *utils.Logger) Option {
	return func(d *Dispatcher) { d.logger = logger }
}

func WithMaxDepth(n int) Option {
	return func(d *Dispatcher) { d.maxDepth = n }
}

func NewDispatcher(out io.Writer, exec Executor, edit EditCollaborator, opts ...Option) *Dispatcher {
	d := &Dispatcher{out: out, exec: exec, edit: edit, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch consumes response once, left to right. A malformed tag stops it;
// everything before the tag has already been emitted.
func (d *Dispatcher) Dispatch(ctx context.Context, response string, autoConfirm bool) {
	d.dispatch(ctx, response, autoConfirm, 0)
}

func (d *Dispatcher) dispatch(ctx context.Context, response string, autoConfirm bool, depth int) {
	sc := NewScanner(response)
	for {
		tok := sc.Next()
		switch tok.Kind {
		case TokenEOF:
			return
		case TokenMalformed:
			d.logf("malformed %s tag at offset %d, stopping dispatch", tok.Directive.Kind, tok.Directive.Start)
			return
		case TokenText:
			if tok.Tail {
				for _, line := range utils.TrimLines(tok.Text) {
					fmt.Fprintln(d.out, line)
				}
				continue
			}
			fmt.Fprint(d.out, tok.Text)
		case TokenDirective:
			if ctx.Err() != nil {
				d.logf("dispatch stopped: %v", ctx.Err())
				return
			}
			d.logf("%s directive at [%d,%d)", tok.Directive.Kind, tok.Directive.Start, tok.Directive.End)
			switch tok.Directive.Kind {
			case DirectiveExec:
				d.runExec(ctx, tok.Directive.Command, autoConfirm, depth)
			case DirectiveEdit:
				d.runEdit(tok.Directive.Payload)
			case DirectiveWriteFile:
				d.writeFile(tok.Directive.Path, tok.Directive.Content)
			}
		}
	}
}

func (d *Dispatcher) runExec(ctx context.Context, command string, autoConfirm bool, depth int) {
	res := d.exec.Execute(ctx, command, autoConfirm)

	if res.Declined {
		ui.Printf(d.out, ui.Yellow, "Command execution cancelled.")
		fmt.Fprintln(d.out)
		if d.model != nil {
			d.followUp(ctx, declinedPrompt, autoConfirm, depth)
		}
		return
	}
	if errors.Is(res.Err, executor.ErrEmptyCommand) {
		ui.Printf(d.out, ui.Yellow, "[exec] block contains no command")
		return
	}

	if d.model == nil || res.Cancelled || d.logViewActive() {
		d.printOutput(res.Output)
	}
	if d.model == nil || res.Cancelled {
		return
	}
	d.followUp(ctx, FeedbackPrompt(strings.TrimSpace(command), res.Output), autoConfirm, depth)
}

func (d *Dispatcher) followUp(ctx context.Context, prompt string, autoConfirm bool, depth int) {
	if depth >= d.maxDepth {
		d.logf("feedback depth %d reached, not sending follow-up", depth)
		ui.Printf(d.out, ui.Yellow, "Stopping: too many chained commands in one reply.")
		return
	}

	reply, err := d.query(ctx, prompt)
	if err != nil {
		ui.Printf(d.out, ui.Red, "Error: %v", err)
		return
	}
	d.dispatch(ctx, reply, autoConfirm, depth+1)
}

// Ask sends prompt to the model and dispatches the reply.
func (d *Dispatcher) Ask(ctx context.Context, prompt string, autoConfirm bool) error {
	if d.model == nil {
		return ErrNoModel
	}
	reply, err := d.query(ctx, prompt)
	if err != nil {
		return err
	}
	d.dispatch(ctx, reply, autoConfirm, 0)
	return nil
}

// query runs one model round trip behind a spinner. An interrupt while it
// is pending cancels the request.
func (d *Dispatcher) query(ctx context.Context, prompt string) (string, error) {
	qctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := d.watchInterrupts(cancel)

	spinner := console.NewSpinner(d.out, "thinking...")
	if r, ok := d.model.(StatusReporter); ok {
		r.SetStatusFunc(spinner.SetLabel)
		defer r.SetStatusFunc(nil)
	}
	spinner.Start()
	reply, err := d.model.SendQuery(qctx, prompt)
	spinner.Stop()
	stop()

	if err != nil && ctx.Err() == nil && qctx.Err() != nil {
		d.logf("query interrupted by user")
		return "", ErrQueryCancelled
	}
	return reply, err
}

func (d *Dispatcher) watchInterrupts(cancel context.CancelFunc) (stop func()) {
	if d.session == nil {
		return func() {}
	}
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interruptPoll)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if d.session.ConsumeInterrupt() {
					cancel()
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		wg.Wait()
	}
}

func (d *Dispatcher) runEdit(payload string) {
	op, err := ParseEdit(payload)
	if err != nil {
		ui.Printf(d.out, ui.Yellow, "[edit] %v", err)
		if errors.Is(err, ErrInvalidJSON) {
			fmt.Fprintln(d.out, payload)
		}
		return
	}

	switch op.Kind {
	case EditCompare:
		d.edit.ShowDiff(op.Files[0], op.Files[1])
	case EditRename:
		if err := os.Rename(op.File, op.NewName); err != nil {
			d.logf("rename %s -> %s failed: %v", op.File, op.NewName, err)
			ui.Printf(d.out, ui.Red, "Failed to rename %s", op.File)
			return
		}
		ui.Printf(d.out, ui.Green, "Renamed %s -> %s", op.File, op.NewName)
	default:
		if !d.edit.ApplyChanges(op) {
			d.logf("%s of %s was not applied", op.Kind, op.File)
		}
	}
}

func (d *Dispatcher) writeFile(path, content string) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			ui.Printf(d.out, ui.Red, "Failed to create file: %s (%v)", path, err)
			return
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		ui.Printf(d.out, ui.Red, "Failed to create file: %s (%v)", path, err)
		return
	}
	ui.Printf(d.out, ui.Green, "File created: %s", path)
}

func (d *Dispatcher) printOutput(output string) {
	if output == "" {
		return
	}
	fmt.Fprint(d.out, output)
	if !strings.HasSuffix(output, "\n") {
		fmt.Fprintln(d.out)
	}
}

func (d *Dispatcher) logViewActive() bool {
	return d.session != nil && d.session.LogView()
}

func (d *Dispatcher) logf(format string, args ...any) {
	if d.logger != nil {
		d.logger.Logf(format, args...)
	}
}
