package console

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alantheprice/ori/pkg/ui"
)

var spinnerFrames = []string{"⠾", "⠽", "⠻", "⠯", "⠷"}

// Spinner draws a one-line activity indicator from a background goroutine.
// The goroutine only reads the run flag and the label and writes to out;
// Stop joins it before returning.
type Spinner struct {
	out      io.Writer
	interval time.Duration

	label   atomic.Value
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewSpinner creates a stopped spinner with the given label.
func NewSpinner(out io.Writer, label string) *Spinner {
	s := &Spinner{out: out, interval: 100 * time.Millisecond}
	s.label.Store(label)
	return s
}

// SetLabel changes the text shown next to the animation.
func (s *Spinner) SetLabel(label string) {
	s.label.Store(label)
}

// Label returns the current text.
func (s *Spinner) Label() string {
	return s.label.Load().(string)
}

// Start begins drawing. Starting a running spinner is a no-op.
func (s *Spinner) Start() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for frame := 0; s.running.Load(); frame++ {
			glyph := spinnerFrames[frame%len(spinnerFrames)]
			fmt.Fprintf(s.out, "%s%s %s", ui.ClearLine, ui.Colorize(ui.Cyan, glyph), s.Label())
			time.Sleep(s.interval)
		}
		fmt.Fprint(s.out, ui.ClearLine)
	}()
}

// Stop halts the animation, waits for the goroutine and clears the line.
func (s *Spinner) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.wg.Wait()
}
