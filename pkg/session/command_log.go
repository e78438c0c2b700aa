package session

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/alantheprice/ori/pkg/ui"
)

// Entry is one executed command and everything it printed.
type Entry struct {
	Command   string
	Output    string
	ExitCode  int
	Cancelled bool
	StartedAt time.Time
	Duration  time.Duration
}

// CommandLog is the append-only record of commands run during the session.
type CommandLog struct {
	mu      sync.Mutex
	entries []Entry
}

// NewCommandLog creates an empty log.
func NewCommandLog() *CommandLog {
	return &CommandLog{}
}

// Append records a finished or cancelled run.
func (l *CommandLog) Append(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
}

// Entries returns a copy of the log in append order.
func (l *CommandLog) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of recorded runs.
func (l *CommandLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Render writes every entry to w. newline lets raw-mode callers pass "\r\n".
func (l *CommandLog) Render(w io.Writer, newline string) {
	entries := l.Entries()
	if len(entries) == 0 {
		fmt.Fprint(w, ui.Colorize(ui.Yellow, "No commands have been run yet.")+newline)
		return
	}
	for i, e := range entries {
		status := fmt.Sprintf("exit %d", e.ExitCode)
		if e.Cancelled {
			status = "cancelled"
		}
		header := fmt.Sprintf("[%d] $ %s (%s, %s)", i+1, e.Command, status, e.Duration.Round(time.Millisecond))
		fmt.Fprint(w, ui.Colorize(ui.Bold+ui.Cyan, header)+newline)
		output := strings.TrimRight(e.Output, "\n")
		if output != "" {
			fmt.Fprint(w, strings.ReplaceAll(output, "\n", newline)+newline)
		}
	}
}
