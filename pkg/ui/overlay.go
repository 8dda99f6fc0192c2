package ui

import (
	"sync"
	"time"

	"github.com/Snider/Preloader/pkg/session"
)

const (
	// DefaultHideDelay is how long a finished overlay stays fully visible.
	DefaultHideDelay = 500 * time.Millisecond
	// DefaultDestroyDelay is measured from completion, not from hiding.
	DefaultDestroyDelay = 1500 * time.Millisecond
)

// Renderer draws the overlay's percentage.
type Renderer interface {
	Update(percent int)
	Finish()
}

// Phase is the overlay's position in its exit sequence.
type Phase int

const (
	Visible Phase = iota
	Hiding
	Destroyed
)

func (p Phase) String() string {
	switch p {
	case Visible:
		return "visible"
	case Hiding:
		return "hiding"
	case Destroyed:
		return "destroyed"
	}
	return "unknown"
}

// Overlay blocks the page while assets load. It follows a session's state,
// and once progress reaches 100 with preloading finished it hides after
// HideDelay, is destroyed after DestroyDelay and calls OnHidden exactly once.
type Overlay struct {
	HideDelay    time.Duration
	DestroyDelay time.Duration
	OnHidden     func()

	renderer Renderer
	hidden   chan struct{}

	mu      sync.Mutex
	phase   Phase
	percent int
	timers  []*time.Timer
	stopped bool
}

// NewOverlay returns an overlay drawing with r. onHidden may be nil.
func NewOverlay(r Renderer, onHidden func()) *Overlay {
	return &Overlay{
		HideDelay:    DefaultHideDelay,
		DestroyDelay: DefaultDestroyDelay,
		OnHidden:     onHidden,
		renderer:     r,
		hidden:       make(chan struct{}),
	}
}

// Attach subscribes the overlay to s and returns the unsubscribe function.
func (o *Overlay) Attach(s *session.Session) func() {
	return s.Subscribe(o.Observe)
}

// Observe renders st and starts the exit sequence the first time st is done.
func (o *Overlay) Observe(st session.State) {
	o.mu.Lock()
	if o.stopped || o.phase == Destroyed {
		o.mu.Unlock()
		return
	}
	o.percent = Percent(st.Progress)
	arm := st.Done() && o.timers == nil
	if arm {
		o.timers = []*time.Timer{
			time.AfterFunc(o.HideDelay, o.hide),
			time.AfterFunc(o.DestroyDelay, o.destroy),
		}
	}
	percent := o.percent
	o.mu.Unlock()

	if o.renderer != nil {
		o.renderer.Update(percent)
	}
}

func (o *Overlay) hide() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopped || o.phase != Visible {
		return
	}
	o.phase = Hiding
}

func (o *Overlay) destroy() {
	o.mu.Lock()
	if o.stopped || o.phase == Destroyed {
		o.mu.Unlock()
		return
	}
	o.phase = Destroyed
	o.mu.Unlock()

	if o.renderer != nil {
		o.renderer.Finish()
	}
	close(o.hidden)
	if o.OnHidden != nil {
		o.OnHidden()
	}
}

// Phase returns where the overlay is in its exit sequence.
func (o *Overlay) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Percent returns the rounded percentage last shown.
func (o *Overlay) Percent() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.percent
}

// Hidden is closed when the overlay is destroyed.
func (o *Overlay) Hidden() <-chan struct{} {
	return o.hidden
}

// Stop abandons the overlay: pending timers are cleared and OnHidden is not
// called. Stopping a destroyed overlay does nothing.
func (o *Overlay) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase == Destroyed {
		return
	}
	o.stopped = true
	for _, t := range o.timers {
		t.Stop()
	}
}
