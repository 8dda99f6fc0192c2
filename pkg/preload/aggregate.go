package preload

import (
	"sync"

	"github.com/Snider/Preloader/pkg/asset"
	"github.com/Snider/Preloader/pkg/blob"
)

// ProgressFunc receives the run's completion percentage in [0, 100].
type ProgressFunc func(percent float64)

// outcome is the settled state of one load attempt.
type outcome struct {
	desc   asset.Descriptor
	weight int
	handle blob.Handle
	err    error
}

// aggregator is the only mutable state of a run. Every task settles into it
// and progress notifications are issued while its lock is held, so the
// callback never runs concurrently with itself and never runs after cancel
// returns.
type aggregator struct {
	mu         sync.Mutex
	total      int
	settled    int
	failed     int
	handles    map[string]blob.Handle
	failures   []*LoadError
	onProgress ProgressFunc
	canceled   bool
}

func newAggregator(total int, onProgress ProgressFunc) *aggregator {
	return &aggregator{
		total:      total,
		handles:    make(map[string]blob.Handle),
		onProgress: onProgress,
	}
}

// settle folds one outcome in. A descriptor listed several times carries a
// weight and advances the counter once per listing.
func (a *aggregator) settle(o outcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if o.err != nil {
		a.failures = append(a.failures, &LoadError{URL: o.desc.URL, Kind: o.desc.Kind, Err: o.err})
		a.failed += o.weight
	} else if o.handle != "" {
		a.handles[o.desc.URL] = o.handle
	}
	for i := 0; i < o.weight; i++ {
		a.settled++
		a.notify()
	}
}

// notify must be called with a.mu held.
func (a *aggregator) notify() {
	if a.canceled || a.onProgress == nil {
		return
	}
	a.onProgress(a.percentLocked())
}

func (a *aggregator) percentLocked() float64 {
	if a.total == 0 {
		return 100
	}
	return float64(a.settled) / float64(a.total) * 100
}

// complete reports 100 for an empty run, which never settles anything.
func (a *aggregator) complete() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.total == 0 {
		a.notify()
	}
}

func (a *aggregator) cancel() {
	a.mu.Lock()
	a.canceled = true
	a.mu.Unlock()
}

func (a *aggregator) isCanceled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.canceled
}

// allHandles returns every handle produced so far, whether or not the run
// was canceled.
func (a *aggregator) allHandles() []blob.Handle {
	a.mu.Lock()
	defer a.mu.Unlock()
	hs := make([]blob.Handle, 0, len(a.handles))
	for _, h := range a.handles {
		hs = append(hs, h)
	}
	return hs
}

// snapshot copies the aggregated state. The copy is what callers own; the
// aggregator's own map is never handed out.
func (a *aggregator) snapshot() Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	res := Result{
		Progress:  a.percentLocked(),
		Total:     a.total,
		Failed:    a.failed,
		Handles:   make(HandleMap, len(a.handles)),
		Failures:  append([]*LoadError(nil), a.failures...),
		Cancelled: a.canceled,
	}
	if !a.canceled {
		for u, h := range a.handles {
			res.Handles[u] = h
		}
	}
	return res
}

// settleAll waits for n outcomes and folds each into agg. It returns only
// after every dispatched attempt has settled; no outcome can fail the batch.
func settleAll(outcomes <-chan outcome, n int, agg *aggregator) {
	for i := 0; i < n; i++ {
		agg.settle(<-outcomes)
	}
}
