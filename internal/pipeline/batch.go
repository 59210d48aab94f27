package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"turntable/internal/ledger"
	"turntable/internal/logging"
	"turntable/internal/progress"
	"turntable/internal/services"
	"turntable/internal/workitem"
)

// Processor runs one work item through the stage chain.
type Processor interface {
	ProcessItem(ctx context.Context, item workitem.Item) (Stage, error)
}

// Batch owns the run loop: one item fully processed before the next begins.
type Batch struct {
	Processor Processor
	// Store records run history. Optional; history recording failures are
	// logged and never interrupt the run.
	Store  *ledger.Store
	Logger *slog.Logger
	// ProgressWriter receives the progress bar. Optional.
	ProgressWriter io.Writer
	// Debug caps the run at the first discovered item.
	Debug bool
	// ContinueOnFailure records failed items and keeps going instead of
	// aborting the batch at the first stage failure.
	ContinueOnFailure bool
}

// Outcome is the result of one item.
type Outcome struct {
	Item     workitem.Item
	Stage    Stage
	Status   string
	Duration time.Duration
	Err      error
}

// Summary aggregates a finished (or aborted) run.
type Summary struct {
	Total     int
	Processed int
	Succeeded int
	Failed    int
	Outcomes  []Outcome
}

// Run processes the items in discovery order. The returned error is the
// first fatal failure under the fail-fast policy, or an aggregate failure
// when ContinueOnFailure recorded any failed items.
func (b *Batch) Run(ctx context.Context, items []workitem.Item) (Summary, error) {
	logger := b.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if b.Debug && len(items) > 1 {
		logger.Info("debug run, processing first item only", logging.Int("discovered", len(items)))
		items = items[:1]
	}

	reporter := progress.NewReporter(b.progressWriter(), len(items), time.Now())
	reporter.Start()
	summary := Summary{Total: len(items)}

	runID := b.beginRun(ctx, logger, len(items))

	var fatal error
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			fatal = services.Wrap(services.ErrStage, "", "run batch", "run interrupted", err)
			break
		}

		started := time.Now()
		stageReached, err := b.Processor.ProcessItem(ctx, item)
		outcome := Outcome{
			Item:     item,
			Stage:    stageReached,
			Duration: time.Since(started),
			Err:      err,
		}
		switch {
		case err == nil:
			outcome.Status = ledger.StatusCompleted
			summary.Succeeded++
		case ctx.Err() != nil:
			outcome.Status = ledger.StatusAborted
			summary.Failed++
		default:
			outcome.Status = ledger.StatusFailed
			summary.Failed++
		}
		summary.Processed++
		summary.Outcomes = append(summary.Outcomes, outcome)
		b.recordItem(ctx, logger, runID, outcome)

		if err != nil {
			itemLogger := logging.WithContext(services.WithItem(ctx, item.Base), logger)
			itemLogger.Error("item failed",
				logging.String("stage", string(stageReached)),
				logging.Error(err))
			if !b.ContinueOnFailure || ctx.Err() != nil {
				reporter.Halt()
				fatal = err
				break
			}
		}
		reporter.ItemCompleted()
	}

	if fatal == nil {
		reporter.Finish()
	}
	b.finishRun(ctx, logger, runID, summary)

	if fatal != nil {
		return summary, fatal
	}
	if summary.Failed > 0 {
		return summary, services.Wrap(services.ErrStage, "", "run batch",
			fmt.Sprintf("%d of %d items failed", summary.Failed, summary.Total), nil)
	}
	return summary, nil
}

func (b *Batch) progressWriter() io.Writer {
	if b.ProgressWriter != nil {
		return b.ProgressWriter
	}
	return io.Discard
}

func (b *Batch) beginRun(ctx context.Context, logger *slog.Logger, itemCount int) int64 {
	if b.Store == nil {
		return 0
	}
	runID, err := b.Store.BeginRun(ctx, itemCount)
	if err != nil {
		logger.Warn("run history unavailable", logging.Error(err))
		return 0
	}
	return runID
}

func (b *Batch) recordItem(ctx context.Context, logger *slog.Logger, runID int64, outcome Outcome) {
	if b.Store == nil || runID == 0 {
		return
	}
	record := ledger.ItemRecord{
		SourcePath: outcome.Item.SourcePath,
		Status:     outcome.Status,
		Stage:      string(outcome.Stage),
		Duration:   outcome.Duration,
	}
	if outcome.Err != nil {
		record.Error = outcome.Err.Error()
	}
	if err := b.Store.RecordItem(context.WithoutCancel(ctx), runID, record); err != nil {
		logger.Warn("record item history", logging.Error(err))
	}
}

func (b *Batch) finishRun(ctx context.Context, logger *slog.Logger, runID int64, summary Summary) {
	if b.Store == nil || runID == 0 {
		return
	}
	if err := b.Store.FinishRun(context.WithoutCancel(ctx), runID, summary.Succeeded, summary.Failed); err != nil {
		logger.Warn("finish run history", logging.Error(err))
	}
}
