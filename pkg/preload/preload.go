// Package preload fetches a manifest of media up front, reports aggregate
// progress while it does, and hands back in-memory handles for video and
// audio so playback never waits on the network.
//
// A run follows a settle-all, fail-none policy: every asset is attempted,
// failures are recorded and counted toward progress, and the run always
// completes.
package preload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Snider/Preloader/pkg/asset"
	"github.com/Snider/Preloader/pkg/blob"
)

// Options configures a Preloader. The zero value is usable.
type Options struct {
	// Client performs every fetch. Defaults to http.DefaultClient.
	Client *http.Client
	// Store receives video and audio data. Defaults to a new blob.Store.
	Store *blob.Store
	// Logger records per-asset failures. Defaults to a discarding logger.
	Logger *slog.Logger
	// AssetTimeout bounds each asset's load. Zero means no limit, so one
	// hung request can hold the run open indefinitely.
	AssetTimeout time.Duration
	// Concurrency bounds simultaneous loads. Zero dispatches everything at
	// once.
	Concurrency int
}

// Preloader runs asset manifests. It holds no per-run state, so one
// Preloader can drive any number of concurrent runs.
type Preloader struct {
	store       *blob.Store
	log         *slog.Logger
	timeout     time.Duration
	concurrency int
	loaders     map[asset.Kind]Loader
}

// New returns a Preloader configured by opts.
func New(opts Options) *Preloader {
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	store := opts.Store
	if store == nil {
		store = blob.New()
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	media := &mediaLoader{client: client, store: store}
	return &Preloader{
		store:       store,
		log:         log,
		timeout:     opts.AssetTimeout,
		concurrency: opts.Concurrency,
		loaders: map[asset.Kind]Loader{
			asset.Image: &imageLoader{client: client},
			asset.Video: media,
			asset.Audio: media,
		},
	}
}

// Store returns the handle store that backs every run of p.
func (p *Preloader) Store() *blob.Store {
	return p.store
}

// Load runs descriptors to completion and returns the result. It is the
// blocking form of Start followed by Wait.
func (p *Preloader) Load(ctx context.Context, descriptors []asset.Descriptor, onProgress ProgressFunc) Result {
	return p.Start(ctx, descriptors, onProgress).Wait()
}

// Start dispatches a load for every descriptor and returns immediately. A
// URL listed more than once is fetched once; each listing still counts
// toward progress.
//
// onProgress is called after every settled attempt with the completion
// percentage. Calls are serialized and never happen after Cancel returns.
// onProgress must not call Cancel or Release on the run it belongs to.
func (p *Preloader) Start(ctx context.Context, descriptors []asset.Descriptor, onProgress ProgressFunc) *Run {
	runCtx, cancel := context.WithCancel(ctx)
	agg := newAggregator(len(descriptors), onProgress)
	r := &Run{
		agg:    agg,
		cancel: cancel,
		store:  p.store,
		done:   make(chan struct{}),
	}

	tasks := group(descriptors)
	outcomes := make(chan outcome, len(tasks))
	var sem chan struct{}
	if p.concurrency > 0 {
		sem = make(chan struct{}, p.concurrency)
	}

	p.log.Debug("preload started", "assets", len(descriptors), "unique", len(tasks))
	for _, t := range tasks {
		go func(t outcome) {
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			t.handle, t.err = p.loadOne(runCtx, t.desc)
			outcomes <- t
		}(t)
	}

	go func() {
		settleAll(outcomes, len(tasks), agg)
		agg.complete()
		r.finish()
		cancel()
		p.log.Debug("preload settled", "assets", len(descriptors), "canceled", agg.isCanceled())
	}()
	return r
}

// loadOne runs the kind's strategy under the per-asset timeout and logs
// the failure, if any.
func (p *Preloader) loadOne(ctx context.Context, d asset.Descriptor) (blob.Handle, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	l, ok := p.loaders[d.Kind]
	if !ok {
		p.log.Warn("no loader for asset kind", "kind", d.Kind, "url", d.URL)
		return "", fmt.Errorf("%w: no loader for %s", ErrDecode, d.Kind)
	}

	start := time.Now()
	h, err := l.Load(ctx, d)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, ErrTimeout) && !errors.Is(err, ErrCanceled) {
			err = classify(ctx, ErrNetwork, err)
		}
		p.log.Warn("asset failed", "kind", d.Kind, "url", d.URL, "err", err)
		return "", err
	}
	p.log.Debug("asset loaded", "kind", d.Kind, "url", d.URL, "took", time.Since(start))
	return h, nil
}

// group collapses repeated URLs into one task weighted by how often the URL
// was listed. The first listing's kind wins.
func group(descriptors []asset.Descriptor) []outcome {
	index := make(map[string]int, len(descriptors))
	tasks := make([]outcome, 0, len(descriptors))
	for _, d := range descriptors {
		if i, ok := index[d.URL]; ok {
			tasks[i].weight++
			continue
		}
		index[d.URL] = len(tasks)
		tasks = append(tasks, outcome{desc: d, weight: 1})
	}
	return tasks
}
