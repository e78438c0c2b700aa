package console

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
)

// terminalCleanup restores the terminal when the process is terminated while
// it is in raw mode.
type terminalCleanup struct {
	mu     sync.Mutex
	funcs  map[int]func() error
	order  []int
	nextID int
	once   sync.Once
}

var cleanup = &terminalCleanup{}

// register adds fn and returns a function that removes it again.
func (h *terminalCleanup) register(fn func() error) (unregister func()) {
	h.once.Do(h.installSignalHandlers)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.funcs == nil {
		h.funcs = make(map[int]func() error)
	}
	id := h.nextID
	h.nextID++
	h.funcs[id] = fn
	h.order = append(h.order, id)

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.funcs, id)
	}
}

// run calls the registered functions, newest first, and forgets them.
func (h *terminalCleanup) run() {
	h.mu.Lock()
	var pending []func() error
	for i := len(h.order) - 1; i >= 0; i-- {
		if fn, ok := h.funcs[h.order[i]]; ok {
			pending = append(pending, fn)
		}
	}
	h.funcs = nil
	h.order = nil
	h.mu.Unlock()

	for _, fn := range pending {
		if err := fn(); err != nil {
			fmt.Fprintf(os.Stderr, "Cleanup error: %v\n", err)
		}
	}
}

func (h *terminalCleanup) installSignalHandlers() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, cleanupSignals()...)

	go func() {
		sig := <-sigChan
		h.run()
		reRaiseSignal(sig)
	}()
}
