// Package progress tracks batch completion and renders the progress bar with
// an estimated-time-remaining figure. Purely observational: nothing here
// influences scheduling or stage behaviour.
package progress

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBarWidth is the fixed character width of the proportional bar.
const DefaultBarWidth = 30

// Estimator maintains the processed/total counters and start timestamp for
// one run. It is owned and mutated only by the top-level run loop.
type Estimator struct {
	total     int
	processed int
	start     time.Time
	barWidth  int
}

// NewEstimator starts tracking a batch of total items from start.
func NewEstimator(total int, start time.Time) *Estimator {
	if total < 0 {
		total = 0
	}
	return &Estimator{total: total, start: start, barWidth: DefaultBarWidth}
}

// Advance records one completed item. Processed never exceeds total.
func (e *Estimator) Advance() {
	if e.processed < e.total {
		e.processed++
	}
}

// Processed returns the completed item count.
func (e *Estimator) Processed() int { return e.processed }

// Total returns the batch size.
func (e *Estimator) Total() int { return e.total }

// Done reports whether every item has completed.
func (e *Estimator) Done() bool { return e.total > 0 && e.processed == e.total }

// ETA returns the estimated time remaining. The second return value is false
// before the first item completes, when no meaningful average exists yet.
func (e *Estimator) ETA(now time.Time) (time.Duration, bool) {
	if e.processed == 0 || e.total == 0 {
		return 0, false
	}
	elapsed := now.Sub(e.start)
	if elapsed < 0 {
		elapsed = 0
	}
	average := elapsed / time.Duration(e.processed)
	remaining := average * time.Duration(e.total-e.processed)
	return remaining, true
}

// Bar renders the fixed-width proportional bar. Filled width is
// floor(processed * barWidth / total).
func (e *Estimator) Bar() string {
	filled := 0
	if e.total > 0 {
		filled = e.processed * e.barWidth / e.total
	}
	if filled > e.barWidth {
		filled = e.barWidth
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", e.barWidth-filled) + "]"
}

// Report renders the full progress line for the current state.
func (e *Estimator) Report(now time.Time) string {
	if e.Done() {
		return fmt.Sprintf("%s %d/%d done in %s", e.Bar(), e.processed, e.total, roundDuration(now.Sub(e.start)))
	}
	eta, ok := e.ETA(now)
	if !ok {
		return fmt.Sprintf("%s %d/%d calculating", e.Bar(), e.processed, e.total)
	}
	return fmt.Sprintf("%s %d/%d ETA %s", e.Bar(), e.processed, e.total, roundDuration(eta))
}

func roundDuration(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if d >= time.Minute {
		return d.Round(time.Second)
	}
	return d.Round(100 * time.Millisecond)
}
