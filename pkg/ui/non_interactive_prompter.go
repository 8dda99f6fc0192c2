// Package ui renders the loading overlay on a terminal: a progress bar in
// interactive sessions and periodic status lines everywhere else.
package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// DefaultStatusInterval is how often a NonInteractivePrompter reports.
const DefaultStatusInterval = 3 * time.Second

// NonInteractivePrompter reports loading progress as coloured status lines
// for sessions without a terminal (e.g., a CI pipeline). A line is printed
// on each tick when the percentage moved, and on Finish unless the final
// percentage was already reported.
type NonInteractivePrompter struct {
	w        io.Writer
	interval time.Duration

	mu       sync.Mutex
	percent  int
	printed  int
	started  bool
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewNonInteractivePrompter creates a prompter writing to w every interval.
// A zero interval uses DefaultStatusInterval.
//
// Example:
//
//	prompter := ui.NewNonInteractivePrompter(os.Stderr, 0)
//	overlay := ui.NewOverlay(prompter, nil)
func NewNonInteractivePrompter(w io.Writer, interval time.Duration) *NonInteractivePrompter {
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	return &NonInteractivePrompter{
		w:        w,
		interval: interval,
		printed:  -1,
		stopChan: make(chan struct{}),
	}
}

// Update records the latest percentage and starts the ticker on first use.
func (p *NonInteractivePrompter) Update(percent int) {
	p.mu.Lock()
	p.percent = percent
	start := !p.started
	p.started = true
	p.mu.Unlock()

	if start {
		go p.loop()
	}
}

func (p *NonInteractivePrompter) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			p.report()
		}
	}
}

// report prints the current percentage unless it was the last one printed.
func (p *NonInteractivePrompter) report() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.percent == p.printed {
		return
	}
	p.printed = p.percent
	c := color.New(color.FgGreen)
	c.Fprintln(p.w, fmt.Sprintf("%s %3d%%", Caption, p.percent))
}

// Finish stops the ticker and reports the final percentage. It is safe to
// call Finish multiple times.
func (p *NonInteractivePrompter) Finish() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
		p.report()
	})
}

// IsInteractive checks if w is a terminal. Anything that is not a file,
// such as a buffer or a pipe, is non-interactive.
func IsInteractive(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewRenderer picks the renderer for w: a progress bar on a terminal, status
// lines otherwise.
func NewRenderer(w io.Writer) Renderer {
	if IsInteractive(w) {
		return NewBarRenderer(w)
	}
	return NewNonInteractivePrompter(w, 0)
}
