package console

import (
	"os"
	"os/signal"
	"syscall"
)

// cleanupSignals end the process after the terminal has been restored.
// SIGINT is left to the session's interrupt flag.
func cleanupSignals() []os.Signal {
	return []os.Signal{
		syscall.SIGTERM,
		syscall.SIGQUIT,
		syscall.SIGHUP,
	}
}

// reRaiseSignal re-raises a signal so the default handler can run.
func reRaiseSignal(sig os.Signal) {
	signal.Reset(sig)
	syscall.Kill(syscall.Getpid(), sig.(syscall.Signal))
}
