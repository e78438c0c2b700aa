package executor

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/alantheprice/ori/pkg/console"
	"github.com/alantheprice/ori/pkg/session"
)

// capturer collects a run's output until it exits or is cancelled, and
// leaves the run reaped. It reports whether the run was cancelled.
type capturer interface {
	capture(ctx context.Context, r *run) (cancelled bool, err error)
}

// polledCapture reads the pipe in non-blocking mode on a fixed interval so
// the interrupt flag is seen promptly. A spinner runs meanwhile.
type polledCapture struct {
	session  *session.Session
	interval time.Duration
	spinner  *console.Spinner
}

func (p *polledCapture) capture(ctx context.Context, r *run) (bool, error) {
	fd := int(r.out.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		return false, fmt.Errorf("failed to make output pipe non-blocking: %w", err)
	}

	p.spinner.Start()
	defer p.spinner.Stop()

	buf := make([]byte, 4096)
	for {
		if p.session.ConsumeInterrupt() || ctx.Err() != nil {
			p.spinner.SetLabel("cancelling...")
			if err := r.kill(); err != nil {
				return true, err
			}
			_, err := r.reap(0)
			r.drain(fd, buf)
			return true, err
		}

		if _, err := r.drain(fd, buf); err != nil {
			return false, fmt.Errorf("failed to read command output: %w", err)
		}

		done, err := r.reap(unix.WNOHANG)
		if done {
			// Descendants may still hold the pipe open; take what is there.
			r.drain(fd, buf)
			return false, err
		}
		time.Sleep(p.interval)
	}
}

// blockingCapture reads the pipe to end of file. It is used while the
// command log view is active, where output is shown after the run instead
// of behind a spinner. A watcher kills the group if the interrupt flag is
// raised, which ends the read.
type blockingCapture struct {
	session  *session.Session
	interval time.Duration
}

func (b *blockingCapture) capture(ctx context.Context, r *run) (bool, error) {
	var (
		cancelled atomic.Bool
		killErr   error
		wg        sync.WaitGroup
	)
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
			case <-ticker.C:
				if !b.session.ConsumeInterrupt() {
					continue
				}
			}
			cancelled.Store(true)
			killErr = r.kill()
			return
		}
	}()

	_, readErr := io.Copy(&r.output, r.out)
	close(stop)
	wg.Wait()

	_, err := r.reap(0)
	if killErr != nil {
		return true, killErr
	}
	if readErr != nil && err == nil {
		err = fmt.Errorf("failed to read command output: %w", readErr)
	}
	return cancelled.Load(), err
}
