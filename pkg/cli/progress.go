package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress for long-running operations.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

const barWidth = 40

// BarProgress draws a single-line progress bar. It redraws only when the
// whole percentage changes, so per-node updates on large trees stay cheap.
type BarProgress struct {
	mu       sync.Mutex
	w        io.Writer
	label    string
	unit     string
	total    int64
	current  int64
	started  time.Time
	lastDraw int
}

// NewProgressReporter returns a BarProgress labelled "Progress" that counts
// items. A nil w writes to os.Stderr so the bar never mixes with command
// output.
func NewProgressReporter(w io.Writer) ProgressReporter {
	return NewLabeledProgress(w, "Progress", "items")
}

// NewLabeledProgress returns a BarProgress with the given line label and
// unit name, for example ("Importing", "nodes").
func NewLabeledProgress(w io.Writer, label, unit string) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &BarProgress{w: w, label: label, unit: unit, lastDraw: -1}
}

// Start resets the bar for total units.
func (p *BarProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = 0
	p.started = time.Now()
	p.lastDraw = -1
	p.draw(false)
}

// Update sets the number of completed units. Values beyond the total are
// clamped.
func (p *BarProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = min(current, p.total)
	p.draw(false)
}

// Finish draws the completed bar and ends the line.
func (p *BarProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.total
	p.draw(true)
	if p.total > 0 {
		fmt.Fprintln(p.w)
	}
}

// Error ends the bar with err.
func (p *BarProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "\n✗ Error: %v\n", err)
}

func (p *BarProgress) percent() int {
	if p.total <= 0 {
		return 0
	}
	return int(p.current * 100 / p.total)
}

func (p *BarProgress) draw(final bool) {
	if p.total <= 0 {
		return
	}
	pct := p.percent()
	if pct == p.lastDraw && !final {
		return
	}
	p.lastDraw = pct

	filled := barWidth * pct / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	line := fmt.Sprintf("\r%s: [%s] %3d%% (%d/%d %s)", p.label, bar, pct, p.current, p.total, p.unit)
	if final {
		line += fmt.Sprintf(" in %s", time.Since(p.started).Round(time.Millisecond))
	}
	fmt.Fprint(p.w, line)
}
