package preflight

import (
	"context"
	"fmt"
	"strings"

	"turntable/internal/config"
	"turntable/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// VersionChecker verifies that a tool satisfies its minimum version.
type VersionChecker interface {
	CheckVersion(ctx context.Context) error
}

// RunAll executes every preflight check for the given configuration. The
// renderer check only runs when the renderer binary itself is available, so a
// missing binary is reported once rather than twice.
func RunAll(ctx context.Context, cfg *config.Config, renderer VersionChecker) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if cfg.Paths.WorkRoot != "" {
		results = append(results, CheckDirectoryAccess("Work root", cfg.Paths.WorkRoot))
	}
	results = append(results, CheckDirectoryAccess("Scratch root", cfg.Paths.ScratchRoot))
	results = append(results, CheckDirectoryAccess("Sandbox root", cfg.Paths.SandboxRoot))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	rendererAvailable := false
	for _, status := range statuses {
		result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional, Detail: status.Command}
		if !status.Available {
			result.Detail = status.Detail
		}
		if status.Name == "Renderer" {
			rendererAvailable = status.Available
		}
		results = append(results, result)
	}

	if rendererAvailable && renderer != nil {
		results = append(results, CheckRendererVersion(ctx, renderer, cfg.Tools.MinRendererYear))
	}

	return results
}

// Failed returns the names of required checks that did not pass.
func Failed(results []Result) []string {
	var failed []string
	for _, result := range results {
		if !result.Passed && !result.Optional {
			failed = append(failed, result.Name)
		}
	}
	return failed
}

// CheckRendererVersion invokes the renderer version probe and reports whether
// it meets the configured minimum release year.
func CheckRendererVersion(ctx context.Context, renderer VersionChecker, minYear int) Result {
	name := "Renderer version"
	if err := renderer.CheckVersion(ctx); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d or newer", minYear)}
}

// Summary renders a one-line outcome for log output.
func Summary(results []Result) string {
	failed := Failed(results)
	if len(failed) == 0 {
		return fmt.Sprintf("all %d checks passed", len(results))
	}
	return fmt.Sprintf("%d of %d checks failed: %s", len(failed), len(results), strings.Join(failed, ", "))
}
