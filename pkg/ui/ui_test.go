package ui

import (
	"bytes"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Snider/Preloader/pkg/session"
)

type fakeRenderer struct {
	mu       sync.Mutex
	updates  []int
	finished int
}

func (f *fakeRenderer) Update(p int) {
	f.mu.Lock()
	f.updates = append(f.updates, p)
	f.mu.Unlock()
}

func (f *fakeRenderer) Finish() {
	f.mu.Lock()
	f.finished++
	f.mu.Unlock()
}

func (f *fakeRenderer) state() ([]int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.updates...), f.finished
}

// syncBuffer guards a bytes.Buffer written by the prompter's ticker.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func fastOverlay(r Renderer, onHidden func()) *Overlay {
	o := NewOverlay(r, onHidden)
	o.HideDelay = 10 * time.Millisecond
	o.DestroyDelay = 30 * time.Millisecond
	return o
}

func TestOverlay_Good(t *testing.T) {
	r := &fakeRenderer{}
	var calls atomic.Int32
	o := fastOverlay(r, func() { calls.Add(1) })

	o.Observe(session.State{Progress: 33.4, Preloading: true})
	o.Observe(session.State{Progress: 100, Preloading: true})
	if o.Phase() != Visible {
		t.Fatalf("expected the overlay to stay visible while preloading, got %v", o.Phase())
	}

	o.Observe(session.State{Progress: 100, Preloading: false})
	o.Observe(session.State{Progress: 100, Preloading: false})

	select {
	case <-o.Hidden():
	case <-time.After(2 * time.Second):
		t.Fatal("overlay was never destroyed")
	}
	if o.Phase() != Destroyed {
		t.Errorf("expected destroyed, got %v", o.Phase())
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected OnHidden exactly once, got %d", n)
	}

	updates, finished := r.state()
	if len(updates) != 4 || updates[0] != 33 || updates[3] != 100 {
		t.Errorf("unexpected renderer updates: %v", updates)
	}
	if finished != 1 {
		t.Errorf("expected the renderer to finish once, got %d", finished)
	}

	// A destroyed overlay ignores further state.
	o.Observe(session.State{Progress: 100})
	if updates, _ := r.state(); len(updates) != 4 {
		t.Errorf("expected no renders after destruction, got %v", updates)
	}
}

func TestOverlay_PhaseOrder(t *testing.T) {
	o := NewOverlay(nil, nil)
	o.HideDelay = 10 * time.Millisecond
	o.DestroyDelay = 300 * time.Millisecond

	o.Observe(session.State{Progress: 100})
	deadline := time.Now().Add(250 * time.Millisecond)
	for o.Phase() != Hiding {
		if time.Now().After(deadline) {
			t.Fatalf("expected the overlay to hide before it is destroyed, got %v", o.Phase())
		}
		time.Sleep(time.Millisecond)
	}
	<-o.Hidden()
	if o.Phase() != Destroyed {
		t.Errorf("expected destroyed, got %v", o.Phase())
	}
}

func TestOverlay_Stop(t *testing.T) {
	var calls atomic.Int32
	o := fastOverlay(nil, func() { calls.Add(1) })
	o.Observe(session.State{Progress: 100})
	o.Stop()

	time.Sleep(80 * time.Millisecond)
	if calls.Load() != 0 {
		t.Error("expected a stopped overlay never to call OnHidden")
	}
	if o.Phase() == Destroyed {
		t.Error("expected a stopped overlay not to be destroyed")
	}
}

func TestPercent(t *testing.T) {
	tests := map[float64]int{
		0:       0,
		33.3333: 33,
		66.6666: 67,
		99.5:    100,
		100:     100,
		-1:      0,
		250:     100,
	}
	for in, want := range tests {
		if got := Percent(in); got != want {
			t.Errorf("Percent(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestNonInteractivePrompter(t *testing.T) {
	var buf syncBuffer
	p := NewNonInteractivePrompter(&buf, 5*time.Millisecond)
	p.Update(42)

	deadline := time.Now().Add(2 * time.Second)
	for !strings.Contains(buf.String(), "42%") {
		if time.Now().After(deadline) {
			t.Fatalf("expected a status line, got %q", buf.String())
		}
		time.Sleep(time.Millisecond)
	}

	p.Update(100)
	p.Finish()
	p.Finish()
	out := buf.String()
	if !strings.Contains(out, Caption+" 100%") {
		t.Errorf("expected a final status line, got %q", out)
	}
	if n := strings.Count(out, "100%"); n != 1 {
		t.Errorf("expected the final line once, got %d in %q", n, out)
	}
}

func TestNewRenderer_NonInteractive(t *testing.T) {
	var buf bytes.Buffer
	if IsInteractive(&buf) {
		t.Fatal("a buffer is never a terminal")
	}
	if _, ok := NewRenderer(&buf).(*NonInteractivePrompter); !ok {
		t.Error("expected status lines for a non-terminal writer")
	}
}

func TestBarRenderer(t *testing.T) {
	var buf bytes.Buffer
	r := NewBarRenderer(&buf)
	r.Update(50)
	r.Finish()
	if buf.Len() == 0 {
		t.Error("expected the bar to draw something")
	}
}
