// Package session holds the state shared by the line editor and the command
// engine for the lifetime of one interactive run: the interrupt flag, the
// command log and the log-view switch.
package session

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// Session is the process-wide context of an interactive run.
type Session struct {
	interrupted atomic.Bool
	logView     atomic.Bool

	Log *CommandLog

	sigCh chan os.Signal
	done  chan struct{}
}

// New creates a session with an empty command log.
func New() *Session {
	return &Session{Log: NewCommandLog()}
}

// Interrupt raises the cancellation flag.
func (s *Session) Interrupt() {
	s.interrupted.Store(true)
}

// ConsumeInterrupt reports whether the flag was raised and clears it.
func (s *Session) ConsumeInterrupt() bool {
	return s.interrupted.Swap(false)
}

// LogView reports whether the command log view is active.
func (s *Session) LogView() bool {
	return s.logView.Load()
}

// SetLogView switches the command log view on or off.
func (s *Session) SetLogView(enabled bool) {
	s.logView.Store(enabled)
}

// ToggleLogView flips the command log view and returns the new state.
func (s *Session) ToggleLogView() bool {
	for {
		old := s.logView.Load()
		if s.logView.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// HandleInterrupts routes SIGINT into the interrupt flag until Stop is
// called. The signal goroutine touches nothing but the flag.
func (s *Session) HandleInterrupts() {
	if s.sigCh != nil {
		return
	}
	s.sigCh = make(chan os.Signal, 1)
	s.done = make(chan struct{})
	signal.Notify(s.sigCh, interruptSignals()...)

	go func(sigCh <-chan os.Signal, done <-chan struct{}) {
		for {
			select {
			case <-sigCh:
				s.interrupted.Store(true)
			case <-done:
				return
			}
		}
	}(s.sigCh, s.done)
}

// Stop restores default signal handling.
func (s *Session) Stop() {
	if s.sigCh == nil {
		return
	}
	signal.Stop(s.sigCh)
	close(s.done)
	s.sigCh = nil
}

func interruptSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT}
}
