// Package session holds the state a page shares while its assets preload:
// the progress percentage, whether preloading is still underway, and the
// handle map consumers resolve media URLs through.
package session

import (
	"context"
	"net/url"
	"sync"

	"github.com/Snider/Preloader/pkg/asset"
	"github.com/Snider/Preloader/pkg/blob"
	"github.com/Snider/Preloader/pkg/preload"
)

// State is what subscribers observe.
type State struct {
	Progress   float64
	Preloading bool
}

// Done reports whether the overlay may start its exit sequence.
func (s State) Done() bool {
	return s.Progress >= 100 && !s.Preloading
}

// Session owns one preload run from start to teardown.
type Session struct {
	run  *preload.Run
	done chan struct{}

	// deliverMu serializes subscriber calls.
	deliverMu sync.Mutex

	mu      sync.Mutex
	state   State
	handles preload.HandleMap
	subs    map[int]func(State)
	nextSub int
	closed  bool

	closeOnce sync.Once
}

// Start begins preloading descriptors with p. The session reports progress
// from zero and Preloading true until the run settles.
func Start(ctx context.Context, p *preload.Preloader, descriptors []asset.Descriptor) *Session {
	s := &Session{
		done:    make(chan struct{}),
		state:   State{Preloading: true},
		handles: preload.HandleMap{},
		subs:    make(map[int]func(State)),
	}
	s.run = p.Start(ctx, descriptors, s.setProgress)
	go s.watch()
	return s
}

func (s *Session) setProgress(percent float64) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.state.Progress = percent
	st := s.state
	s.mu.Unlock()
	s.publish(st)
}

func (s *Session) watch() {
	res := s.run.Wait()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(s.done)
		return
	}
	s.handles = res.Handles
	s.state = State{Progress: res.Progress, Preloading: false}
	st := s.state
	s.mu.Unlock()

	s.publish(st)
	close(s.done)
}

func (s *Session) publish(st State) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// State returns the current progress and preloading flag.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress returns the completion percentage in [0, 100].
func (s *Session) Progress() float64 {
	return s.State().Progress
}

// IsPreloading reports whether the run has yet to settle.
func (s *Session) IsPreloading() bool {
	return s.State().Preloading
}

// Handles returns the handle map. It is empty until the run settles and is
// replaced once at that point; the returned map must not be modified.
func (s *Session) Handles() preload.HandleMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles
}

// Resolve returns the handle loaded for rawURL.
func (s *Session) Resolve(rawURL string) (blob.Handle, bool) {
	return s.Handles().Resolve(rawURL)
}

// SourceFor returns the handle for rawURL as a string, or "" when there is
// none yet. Media elements treat an empty source as nothing to play.
func (s *Session) SourceFor(rawURL string) string {
	h, _ := s.Resolve(rawURL)
	return string(h)
}

// Soundtrack returns the handle for a navigation section's theme, or "" when
// the section has none or its audio has not loaded.
func (s *Session) Soundtrack(section string) string {
	path, ok := asset.Soundtrack(section)
	if !ok {
		return ""
	}
	handles := s.Handles()
	if h, ok := handles.Resolve(path); ok {
		return string(h)
	}
	// Manifests rebased onto a site carry absolute URLs.
	for raw, h := range handles {
		if u, err := url.Parse(raw); err == nil && u.Path == path {
			return string(h)
		}
	}
	return ""
}

// Subscribe registers fn for state changes and calls it once with the
// current state. Calls for one session are not concurrent with each other
// but may come from any goroutine; fn must not call Close. The returned
// function removes the subscription.
func (s *Session) Subscribe(fn func(State)) (unsubscribe func()) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	closed := s.closed
	if !closed {
		s.subs[id] = fn
	}
	st := s.state
	s.mu.Unlock()

	if !closed {
		fn(st)
	}
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Done is closed once the run has settled.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the run settles and returns its result.
func (s *Session) Wait() preload.Result {
	<-s.done
	return s.run.Wait()
}

// Close tears the session down. An active run is canceled and no further
// notifications are delivered; every handle the run produced is released
// exactly once. Close may be called more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.deliverMu.Lock()
		s.mu.Lock()
		s.closed = true
		s.subs = map[int]func(State){}
		s.handles = preload.HandleMap{}
		s.mu.Unlock()
		s.deliverMu.Unlock()
		s.run.Release()
	})
}
