package preload

import (
	"context"
	"errors"
	"fmt"

	"github.com/Snider/Preloader/pkg/asset"
)

// Markers for per-asset failures. Errors from the built-in loaders wrap one
// of them so callers can classify failures with errors.Is.
var (
	ErrStatus   = errors.New("bad response status")
	ErrNetwork  = errors.New("network error")
	ErrDecode   = errors.New("decode error")
	ErrTimeout  = errors.New("timeout")
	ErrCanceled = errors.New("canceled")
)

// LoadError records why one asset failed to load. Failures never abort a
// run; they are collected in Result.Failures.
type LoadError struct {
	URL  string
	Kind asset.Kind
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.URL, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// classify tags err with a marker. Context errors take precedence because
// an aborted request surfaces as a generic transport error.
func classify(ctx context.Context, marker error, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		marker = ErrTimeout
	case errors.Is(ctx.Err(), context.Canceled):
		marker = ErrCanceled
	}
	if err == nil || errors.Is(err, marker) {
		return marker
	}
	return fmt.Errorf("%w: %w", marker, err)
}

// Reason names the marker err wraps: "status", "network", "decode",
// "timeout", "canceled", or "unknown".
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrStatus):
		return "status"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrDecode):
		return "decode"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrCanceled):
		return "canceled"
	}
	return "unknown"
}
