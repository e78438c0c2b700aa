package executor

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// run is one spawned command. The read end of the combined output pipe is
// owned here; the write end is closed in the parent right after spawn.
type run struct {
	cmd    *exec.Cmd
	pid    int
	out    *os.File
	output bytes.Buffer

	exitCode int
	reaped   bool
}

// spawn starts command under shell in a new process group with stdout and
// stderr sharing one pipe and stdin reading /dev/null.
func spawn(shell, command string) (*run, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create output pipe: %w", err)
	}

	cmd := exec.Command(shell, "-c", command)
	cmd.Stdout = pw
	cmd.Stderr = pw
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return nil, fmt.Errorf("failed to start command: %w", err)
	}
	pw.Close()

	return &run{cmd: cmd, pid: cmd.Process.Pid, out: pr}, nil
}

// reap waits for the child. With unix.WNOHANG it returns false while the
// child is still running.
func (r *run) reap(options int) (bool, error) {
	if r.reaped {
		return true, nil
	}
	var ws unix.WaitStatus
	for {
		pid, err := unix.Wait4(r.pid, &ws, options, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			r.reaped = true
			r.exitCode = -1
			return true, fmt.Errorf("failed to wait for pid %d: %w", r.pid, err)
		}
		if pid == 0 {
			return false, nil
		}
		break
	}

	r.reaped = true
	r.exitCode = exitCode(ws)
	r.cmd.Process.Release()
	return true, nil
}

func exitCode(ws unix.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	}
	return -1
}

// kill sends SIGKILL to the whole process group.
func (r *run) kill() error {
	if err := unix.Kill(-r.pid, unix.SIGKILL); err != nil && err != unix.ESRCH {
		return fmt.Errorf("failed to kill process group %d: %w", r.pid, err)
	}
	return nil
}

// drain reads whatever is available on a non-blocking fd and reports
// whether the pipe reached end of file.
func (r *run) drain(fd int, buf []byte) (bool, error) {
	for {
		n, err := unix.Read(fd, buf)
		switch {
		case err == unix.EINTR:
			continue
		case err == unix.EAGAIN:
			return false, nil
		case err != nil:
			return false, err
		case n == 0:
			return true, nil
		}
		r.output.Write(buf[:n])
	}
}

func (r *run) close() {
	r.out.Close()
}
