package ui

import (
	"io"
	"math"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Caption is shown beside the percentage while assets load.
const Caption = "PREPARING THE EXPERIENCE"

// NewProgressBar creates and returns a new progress bar with a standard
// set of options suitable for the application, writing to w.
//
// Example:
//
//	bar := ui.NewProgressBar(os.Stderr, 100, ui.Caption)
//	bar.Set(42)
func NewProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(15),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

// Percent rounds a progress value to the whole number the overlay shows.
func Percent(progress float64) int {
	p := int(math.Round(progress))
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// barRenderer draws the overlay as a 0-100 progress bar.
type barRenderer struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

// NewBarRenderer returns a Renderer drawing a progress bar on w.
func NewBarRenderer(w io.Writer) Renderer {
	return &barRenderer{bar: NewProgressBar(w, 100, Caption)}
}

func (r *barRenderer) Update(percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.bar.Set(percent)
}

func (r *barRenderer) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.bar.Finish()
}
