package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Report summarizes a repair run.
type Report struct {
	Scanned  int
	Missing  int
	Repaired int
}

func (r *Report) add(delta Report) {
	r.Scanned += delta.Scanned
	r.Missing += delta.Missing
	r.Repaired += delta.Repaired
}

// ProgressTracker accumulates the counts of a repair run and prints a
// status line each time another reportInterval messages have been scanned.
// Counts are kept even before Start; output begins with Start.
type ProgressTracker struct {
	mu       sync.Mutex
	out      io.Writer
	total    int
	interval int
	counts   Report
	printed  int
	began    time.Time
	running  bool
}

// NewProgressTracker creates a tracker for a run over total messages.
// A nil out discards output; reportInterval is at least 1.
func NewProgressTracker(out io.Writer, total, reportInterval int) *ProgressTracker {
	if out == nil {
		out = io.Discard
	}
	return &ProgressTracker{
		out:      out,
		total:    total,
		interval: max(reportInterval, 1),
	}
}

// Start resets the counts and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts = Report{}
	p.printed = 0
	p.began = time.Now()
	p.running = true
}

// Record adds delta to the running counts. Scanned never exceeds total.
func (p *ProgressTracker) Record(delta Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.counts.add(delta)
	p.counts.Scanned = min(p.counts.Scanned, p.total)
	if p.running && p.counts.Scanned-p.printed >= p.interval {
		p.print()
		p.printed = p.counts.Scanned
	}
}

// Snapshot returns the counts recorded so far.
func (p *ProgressTracker) Snapshot() Report {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts
}

// Elapsed returns the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return 0
	}
	return time.Since(p.began)
}

// Finish prints the final status line and returns the counts.
// An aborted run finishes short of total.
func (p *ProgressTracker) Finish() Report {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		p.print()
		fmt.Fprintln(p.out)
		p.running = false
	}
	return p.counts
}

// print writes the status line. Must be called with lock held.
func (p *ProgressTracker) print() {
	pct := 0.0
	if p.total > 0 {
		pct = float64(p.counts.Scanned) / float64(p.total) * 100
	}
	rate := 0.0
	if secs := time.Since(p.began).Seconds(); secs > 0 {
		rate = float64(p.counts.Scanned) / secs
	}
	fmt.Fprintf(p.out, "\rScanned %d/%d (%.1f%%) missing %d repaired %d - %.1f messages/s",
		p.counts.Scanned, p.total, pct, p.counts.Missing, p.counts.Repaired, rate)
}
