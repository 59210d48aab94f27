package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Reporter writes progress lines to a terminal or log stream. On an
// interactive terminal it redraws a single line in place; otherwise it emits
// one plain line per completed item so batch logs stay readable.
type Reporter struct {
	mu          sync.Mutex
	w           io.Writer
	estimator   *Estimator
	interactive bool
	now         func() time.Time
	halted      bool
}

// NewReporter builds a reporter over w for a batch of total items. Interactive
// rendering is chosen automatically when w is a terminal.
func NewReporter(w io.Writer, total int, start time.Time) *Reporter {
	return &Reporter{
		w:           w,
		estimator:   NewEstimator(total, start),
		interactive: isTerminal(w),
		now:         time.Now,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Estimator exposes the underlying counters for summary rendering.
func (r *Reporter) Estimator() *Estimator { return r.estimator }

// Start renders the initial progress line before any item completes, so a
// long-running first item still shows the batch is underway.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.halted {
		return
	}
	r.render()
}

// ItemCompleted records one finished item and redraws the progress line.
func (r *Reporter) ItemCompleted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.halted {
		return
	}
	r.estimator.Advance()
	r.render()
}

// Halt stops further output. Used when the run aborts so the progress line
// freezes at the failure point instead of reporting a full batch.
func (r *Reporter) Halt() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.halted {
		return
	}
	r.halted = true
	if r.interactive {
		fmt.Fprintln(r.w)
	}
}

// Finish emits the terminal report line and releases the redraw line.
func (r *Reporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.halted {
		return
	}
	r.halted = true
	if !r.interactive && r.estimator.Done() {
		// The last ItemCompleted already emitted the terminal report line.
		return
	}
	line := r.estimator.Report(r.now())
	if r.interactive {
		fmt.Fprintf(r.w, "\r%s\n", line)
		return
	}
	fmt.Fprintln(r.w, line)
}

func (r *Reporter) render() {
	line := r.estimator.Report(r.now())
	if r.interactive {
		fmt.Fprintf(r.w, "\r%s", line)
		return
	}
	fmt.Fprintln(r.w, line)
}
