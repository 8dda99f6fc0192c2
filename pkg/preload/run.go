package preload

import (
	"context"
	"sync"

	"github.com/Snider/Preloader/pkg/blob"
)

// HandleMap maps an asset's original URL to its in-memory handle.
type HandleMap map[string]blob.Handle

// Resolve returns the handle loaded for url. Every lookup of the same URL
// yields the same handle.
func (m HandleMap) Resolve(url string) (blob.Handle, bool) {
	h, ok := m[url]
	return h, ok
}

// Clone returns an independent copy of m.
func (m HandleMap) Clone() HandleMap {
	out := make(HandleMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Result is the settled state of a run.
type Result struct {
	// Progress is 100 once every attempt settled.
	Progress float64
	// Total is the number of descriptors the run was started with.
	Total int
	// Failed counts the descriptors whose attempt failed. A URL listed
	// twice that fails counts twice but has one entry in Failures.
	Failed int
	// Handles holds one entry per video or audio URL that loaded. It is
	// empty for a canceled run, whose handles were released.
	Handles HandleMap
	// Failures lists every asset that failed, whatever its kind.
	Failures []*LoadError
	// Cancelled reports whether the run was canceled before it settled.
	Cancelled bool
}

// Loaded returns the number of descriptors that did not fail.
func (r Result) Loaded() int {
	return r.Total - r.Failed
}

// Run is one execution of a manifest, from dispatch to teardown.
type Run struct {
	agg    *aggregator
	cancel context.CancelFunc
	store  *blob.Store
	done   chan struct{}

	mu            sync.Mutex
	finished      bool
	revokePending bool
	result        Result
	revokeOnce    sync.Once
}

// Done is closed once every attempt has settled.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run settles and returns its result. Each call
// returns a fresh copy. Unless the run was canceled, ownership of the
// result's handles passes to the caller, who releases them with Release.
func (r *Run) Wait() Result {
	<-r.done
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.result
	res.Handles = r.result.Handles.Clone()
	res.Failures = append([]*LoadError(nil), r.result.Failures...)
	return res
}

// Cancel marks the run canceled. Once Cancel returns the progress callback
// is not called again. In-flight requests are aborted, and every handle the
// run produced, before or after this point, is released when the last
// attempt settles. Canceling a settled run does nothing.
func (r *Run) Cancel() {
	r.teardown(false)
}

// Release tears the run down: it cancels the run if it is still active and
// releases every handle it produced, exactly once. Call it when the
// consumers of the handles are gone.
func (r *Run) Release() {
	r.teardown(true)
}

func (r *Run) teardown(release bool) {
	r.mu.Lock()
	if !r.finished {
		r.agg.cancel()
		r.cancel()
		r.revokePending = true
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	if release {
		r.revokeAll()
	}
}

// finish records the result and, if teardown was requested while the run
// was active, releases its handles before Done is closed.
func (r *Run) finish() {
	r.mu.Lock()
	r.finished = true
	r.result = r.agg.snapshot()
	revoke := r.revokePending
	r.mu.Unlock()

	if revoke {
		r.revokeAll()
	}
	close(r.done)
}

func (r *Run) revokeAll() {
	r.revokeOnce.Do(func() {
		for _, h := range r.agg.allHandles() {
			r.store.Revoke(h)
		}
	})
}
