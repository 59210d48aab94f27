package pipeline

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"turntable/internal/ledger"
	"turntable/internal/services"
	"turntable/internal/testsupport"
	"turntable/internal/workitem"
)

type stubProcessor struct {
	mu        sync.Mutex
	processed []string
	failBase  string
	failErr   error
}

func (p *stubProcessor) ProcessItem(_ context.Context, item workitem.Item) (Stage, error) {
	p.mu.Lock()
	p.processed = append(p.processed, item.Base)
	p.mu.Unlock()
	if item.Base == p.failBase {
		return StageRenderFrames, p.failErr
	}
	return StagePublish, nil
}

func (p *stubProcessor) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.processed...)
}

func items(t *testing.T, bases ...string) []workitem.Item {
	t.Helper()
	result := make([]workitem.Item, 0, len(bases))
	dir := t.TempDir()
	for _, base := range bases {
		path := testsupport.WriteModel(t, dir, base)
		item, err := workitem.New(path)
		if err != nil {
			t.Fatalf("new item: %v", err)
		}
		result = append(result, item)
	}
	return result
}

func TestBatchFailFastStopsAtFirstFailure(t *testing.T) {
	proc := &stubProcessor{
		failBase: "beta",
		failErr:  services.Wrap(services.ErrExternalTool, string(StageRenderFrames), "invoke renderer", "renderer failed", errors.New("exit status 1")),
	}
	batch := &Batch{Processor: proc}

	summary, err := batch.Run(context.Background(), items(t, "alpha", "beta", "gamma"))
	if err == nil {
		t.Fatal("expected batch failure")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("error class = %v", err)
	}
	if got := proc.seen(); len(got) != 2 || got[1] != "beta" {
		t.Fatalf("processed items = %v", got)
	}
	if summary.Processed != 2 || summary.Succeeded != 1 || summary.Failed != 1 {
		t.Fatalf("summary = %#v", summary)
	}
	last := summary.Outcomes[len(summary.Outcomes)-1]
	if last.Status != ledger.StatusFailed || last.Stage != StageRenderFrames {
		t.Fatalf("failed outcome = %#v", last)
	}
}

func TestBatchContinueOnFailureProcessesAll(t *testing.T) {
	proc := &stubProcessor{
		failBase: "beta",
		failErr:  services.Wrap(services.ErrExternalTool, string(StageRenderFrames), "invoke renderer", "renderer failed", nil),
	}
	batch := &Batch{Processor: proc, ContinueOnFailure: true}

	summary, err := batch.Run(context.Background(), items(t, "alpha", "beta", "gamma"))
	if err == nil {
		t.Fatal("expected aggregate failure")
	}
	if !strings.Contains(err.Error(), "1 of 3 items failed") {
		t.Fatalf("aggregate error = %v", err)
	}
	if got := proc.seen(); len(got) != 3 {
		t.Fatalf("processed items = %v", got)
	}
	if summary.Succeeded != 2 || summary.Failed != 1 {
		t.Fatalf("summary = %#v", summary)
	}
}

func TestBatchDebugCapsToOneItem(t *testing.T) {
	proc := &stubProcessor{}
	batch := &Batch{Processor: proc, Debug: true}

	summary, err := batch.Run(context.Background(), items(t, "alpha", "beta", "gamma"))
	if err != nil {
		t.Fatalf("debug run failed: %v", err)
	}
	if got := proc.seen(); len(got) != 1 || got[0] != "alpha" {
		t.Fatalf("processed items = %v", got)
	}
	if summary.Total != 1 || summary.Succeeded != 1 {
		t.Fatalf("summary = %#v", summary)
	}
}

func TestBatchCancelledBeforeStart(t *testing.T) {
	proc := &stubProcessor{}
	batch := &Batch{Processor: proc}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := batch.Run(ctx, items(t, "alpha"))
	if err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected interruption error, got %v", err)
	}
	if len(proc.seen()) != 0 || summary.Processed != 0 {
		t.Fatalf("items processed despite cancellation: %#v", summary)
	}
}

func TestBatchRecordsHistory(t *testing.T) {
	store, err := ledger.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	defer store.Close()

	proc := &stubProcessor{
		failBase: "beta",
		failErr:  services.Wrap(services.ErrExternalTool, string(StageRenderFrames), "invoke renderer", "renderer failed", nil),
	}
	batch := &Batch{Processor: proc, Store: store, ContinueOnFailure: true}

	if _, err := batch.Run(context.Background(), items(t, "alpha", "beta")); err == nil {
		t.Fatal("expected aggregate failure")
	}

	runs, err := store.RecentRuns(context.Background(), 1)
	if err != nil || len(runs) != 1 {
		t.Fatalf("recent runs: %v, %v", runs, err)
	}
	run := runs[0]
	if !run.Finished || run.Succeeded != 1 || run.Failed != 1 {
		t.Fatalf("run record = %#v", run)
	}

	records, err := store.RunItems(context.Background(), run.ID)
	if err != nil || len(records) != 2 {
		t.Fatalf("run items: %v, %v", records, err)
	}
	if records[0].Status != ledger.StatusCompleted {
		t.Fatalf("first record = %#v", records[0])
	}
	if records[1].Status != ledger.StatusFailed || records[1].Stage != string(StageRenderFrames) || records[1].Error == "" {
		t.Fatalf("second record = %#v", records[1])
	}
}

func TestBatchProgressOutput(t *testing.T) {
	var buf bytes.Buffer
	proc := &stubProcessor{}
	batch := &Batch{Processor: proc, ProgressWriter: &buf}

	if _, err := batch.Run(context.Background(), items(t, "alpha", "beta")); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if !strings.Contains(lines[0], "0/2") || !strings.Contains(lines[0], "calculating") {
		t.Fatalf("no initial report before the first item:\n%s", out)
	}
	if !strings.Contains(out, "1/2") || !strings.Contains(out, "2/2") {
		t.Fatalf("progress output missing counters:\n%s", out)
	}
	if strings.Count(out, "done in") != 1 {
		t.Fatalf("want exactly one terminal report:\n%s", out)
	}
}

func TestStageLabels(t *testing.T) {
	cases := map[Stage]string{
		StageDetectOrigin: "Detect Origin",
		StageRenderFrames: "Render Frames",
		StagePublish:      "Publish",
	}
	for stage, want := range cases {
		if got := stage.Label(); got != want {
			t.Fatalf("label for %s = %q, want %q", stage, got, want)
		}
	}
}

func TestChainOmitsTranscodeWithoutVideo(t *testing.T) {
	withVideo := Chain(true)
	withoutVideo := Chain(false)
	if len(withVideo) != len(withoutVideo)+1 {
		t.Fatalf("chain lengths: %d vs %d", len(withVideo), len(withoutVideo))
	}
	for _, stage := range withoutVideo {
		if stage == StageTranscode {
			t.Fatal("transcode present in no-video chain")
		}
	}
	if withVideo[len(withVideo)-1] != StagePublish || withoutVideo[len(withoutVideo)-1] != StagePublish {
		t.Fatal("publish must be the final stage")
	}
}
