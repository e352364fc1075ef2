package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar displays time-based progress of a load run.
type ProgressBar struct {
	w        io.Writer
	title    string
	total    time.Duration
	elapsed  time.Duration
	success  int64
	failed   int64
	width    int
	finished bool
	mu       sync.Mutex
}

// NewProgressBar creates a progress bar for a run lasting total.
func NewProgressBar(w io.Writer, title string, total time.Duration) *ProgressBar {
	return &ProgressBar{
		w:     w,
		title: title,
		total: total,
		width: 30,
	}
}

// Update records the elapsed time and request counters and redraws.
func (p *ProgressBar) Update(elapsed time.Duration, success, failed int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.elapsed = elapsed
	p.success = success
	p.failed = failed
	p.render()
}

// Finish fills the bar and ends the line. Later updates are ignored.
func (p *ProgressBar) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.finished = true
	if p.elapsed < p.total {
		p.elapsed = p.total
	}
	p.render()
	fmt.Fprintln(p.w)
}

func (p *ProgressBar) render() {
	percent := 1.0
	if p.total > 0 {
		percent = float64(p.elapsed) / float64(p.total)
	}
	if percent > 1 {
		percent = 1
	}

	filled := int(float64(p.width) * percent)
	bar := strings.Repeat("#", filled) + strings.Repeat("-", p.width-filled)

	var rps float64
	if p.elapsed > 0 {
		rps = float64(p.success) / p.elapsed.Seconds()
	}

	fmt.Fprintf(p.w, "\r%s [%s] %3.0f%% ok=%d failed=%d %.1f req/s",
		p.title, bar, percent*100, p.success, p.failed, rps)
}

// FormatDuration renders d rounded for humans, e.g. "1.25s" or "850ms".
func FormatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return d.String()
	}
}
