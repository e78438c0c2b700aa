package console

import (
	"errors"
	"fmt"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

var errNotTerminal = errors.New("input is not a terminal")

// rawGuard holds the terminal attributes captured before entering raw mode.
type rawGuard struct {
	fd         int
	state      *term.State
	unregister func()
}

func enterRaw(fd int) (*rawGuard, error) {
	if fd < 0 || !term.IsTerminal(fd) {
		return nil, errNotTerminal
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}
	g := &rawGuard{fd: fd, state: state}
	g.unregister = cleanup.register(g.restoreState)
	return g, nil
}

func (g *rawGuard) restore() error {
	if g.unregister != nil {
		g.unregister()
		g.unregister = nil
	}
	return g.restoreState()
}

func (g *rawGuard) restoreState() error {
	return term.Restore(g.fd, g.state)
}

// suspend restores the terminal, stops the process with SIGTSTP and
// re-enters raw mode once the shell resumes it.
func (g *rawGuard) suspend() error {
	if err := g.restoreState(); err != nil {
		return err
	}
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTSTP); err != nil {
		return err
	}
	state, err := term.MakeRaw(g.fd)
	if err != nil {
		return err
	}
	g.state = state
	return nil
}

// terminalWidth returns the column count of fd, or DefaultWidth when fd is
// not a terminal.
func terminalWidth(fd int) int {
	if fd >= 0 {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	return DefaultWidth
}

// escapeWait is how long a byte may take to follow ESC before the ESC is
// read as a key of its own.
const escapeWait = 30 * time.Millisecond

// readable polls fd for input for at most timeout.
func readable(fd int, timeout time.Duration) bool {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, int(timeout/time.Millisecond))
		if err == unix.EINTR {
			continue
		}
		return err == nil && n > 0 && fds[0].Revents&unix.POLLIN != 0
	}
}
