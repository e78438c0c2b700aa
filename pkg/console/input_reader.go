package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alantheprice/ori/pkg/session"
	"github.com/alantheprice/ori/pkg/ui"
	"github.com/alantheprice/ori/pkg/utils"
)

// ReadStatus tells the caller how ReadLine ended.
type ReadStatus int

const (
	StatusSubmitted ReadStatus = iota
	StatusCancelled
	StatusEOF
)

func (s ReadStatus) String() string {
	switch s {
	case StatusSubmitted:
		return "submitted"
	case StatusCancelled:
		return "cancelled"
	case StatusEOF:
		return "eof"
	}
	return "unknown"
}

const (
	DefaultPrompt       = "> "
	DefaultContinuation = ". "
)

// LineEditor reads multi-line input from a raw-mode terminal.
type LineEditor struct {
	in      *bufio.Reader
	fd      int
	out     io.Writer
	session *session.Session
	logger  *utils.Logger

	prompt       string
	continuation string
	banner       func(io.Writer)
}

// Option configures a LineEditor.
type Option func(*LineEditor)

// WithPrompt sets the first-line and continuation prompts.
func WithPrompt(prompt, continuation string) Option {
	return func(e *LineEditor) {
		e.prompt = prompt
		e.continuation = continuation
	}
}

// WithBanner sets what is drawn after the screen is cleared by the log toggle.
func WithBanner(banner func(io.Writer)) Option {
	return func(e *LineEditor) { e.banner = banner }
}

// WithLogger routes editor diagnostics to logger.
func WithLogger(logger *utils.Logger) Option {
	return func(e *LineEditor) { e.logger = logger }
}

// NewLineEditor creates an editor over in and out. Raw mode is only
// attempted when in is an *os.File attached to a terminal.
func NewLineEditor(in io.Reader, out io.Writer, sess *session.Session, opts ...Option) *LineEditor {
	e := &LineEditor{
		in:           bufio.NewReader(in),
		fd:           -1,
		out:          out,
		session:      sess,
		prompt:       DefaultPrompt,
		continuation: DefaultContinuation,
	}
	if f, ok := in.(*os.File); ok {
		e.fd = int(f.Fd())
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reader exposes the buffered input so prompts outside the editor consume
// the same stream.
func (e *LineEditor) Reader() *bufio.Reader {
	return e.in
}

// ReadLine reads one submission. On cancel it returns "" and StatusCancelled;
// on end of input it returns StatusEOF.
func (e *LineEditor) ReadLine() (string, ReadStatus) {
	e.session.ConsumeInterrupt()

	guard, err := enterRaw(e.fd)
	if err != nil {
		e.logf("raw mode unavailable, using buffered input: %v", err)
		return e.readBuffered()
	}
	defer func() {
		if err := guard.restore(); err != nil {
			e.logf("failed to restore terminal: %v", err)
		}
	}()

	keys := &keyReader{r: e.in, ready: func() bool { return readable(e.fd, escapeWait) }}
	return e.edit(keys, guard.suspend)
}

// readBuffered is the fallback when the input is not a terminal.
func (e *LineEditor) readBuffered() (string, ReadStatus) {
	fmt.Fprint(e.out, e.prompt)
	line, err := e.in.ReadString('\n')
	if e.session.ConsumeInterrupt() {
		return "", StatusCancelled
	}
	if err != nil && line == "" {
		return "", StatusEOF
	}
	return strings.TrimRight(line, "\r\n"), StatusSubmitted
}

// edit runs the keystroke loop. suspend may be nil.
func (e *LineEditor) edit(keys *keyReader, suspend func() error) (string, ReadStatus) {
	var buf Buffer
	r := &renderer{prompt: e.prompt, continuation: e.continuation}
	e.draw(r, &buf)

	for {
		k, err := keys.next()
		if err != nil {
			if err != io.EOF {
				e.logf("terminal read failed: %v", err)
			}
			e.finish(r, &buf)
			return "", StatusEOF
		}

		switch k.kind {
		case keyEnter:
			e.finish(r, &buf)
			return strings.TrimRight(buf.String(), "\r\n"), StatusSubmitted
		case keyInterrupt, keyEscape:
			e.finish(r, &buf)
			return "", StatusCancelled
		case keyEOF:
			if buf.Len() == 0 {
				e.finish(r, &buf)
				return "", StatusEOF
			}
			continue
		case keySuspend:
			if suspend == nil {
				continue
			}
			if err := suspend(); err != nil {
				e.logf("suspend failed: %v", err)
			}
			r.reset()
		case keyToggleLog:
			e.toggleLog()
			r.reset()
		default:
			if !applyKey(&buf, k) {
				continue
			}
		}
		e.draw(r, &buf)
	}
}

// applyKey performs the buffer edit or cursor move bound to k and reports
// whether k was one.
func applyKey(buf *Buffer, k key) bool {
	switch k.kind {
	case keyInsert:
		buf.Insert(k.b)
	case keyNewline:
		buf.Insert('\n')
	case keyBackspace:
		buf.Backspace()
	case keyDelete:
		buf.Delete()
	case keyHome:
		buf.Home()
	case keyEnd:
		buf.End()
	case keyLeft:
		buf.MoveLeft()
	case keyRight:
		buf.MoveRight()
	case keyUp:
		buf.MoveUp()
	case keyDown:
		buf.MoveDown()
	case keyWordLeft:
		buf.WordLeft()
	case keyWordRight:
		buf.WordRight()
	case keyDeleteWord:
		buf.DeleteWord()
	case keyKillToStart:
		buf.KillToStart()
	default:
		return false
	}
	return true
}

// draw re-reads the terminal width each time so a resize takes effect on
// the next keystroke.
func (e *LineEditor) draw(r *renderer, buf *Buffer) {
	r.width = terminalWidth(e.fd)
	fmt.Fprint(e.out, r.render(buf))
}

// finish parks the cursor below the input area.
func (e *LineEditor) finish(r *renderer, buf *Buffer) {
	buf.End()
	r.width = terminalWidth(e.fd)
	fmt.Fprint(e.out, r.render(buf)+"\r\n")
}

// toggleLog flips the log view, clears the screen and replays the log.
func (e *LineEditor) toggleLog() {
	enabled := e.session.ToggleLogView()
	e.logf("command log view enabled=%v", enabled)

	fmt.Fprint(e.out, ui.ClearScreen)
	if e.banner != nil {
		var sb strings.Builder
		e.banner(&sb)
		fmt.Fprint(e.out, strings.ReplaceAll(sb.String(), "\n", "\r\n"))
	}
	if enabled {
		e.session.Log.Render(e.out, "\r\n")
	}
}

func (e *LineEditor) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Logf(format, args...)
	}
}
