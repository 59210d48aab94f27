package preflight

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"turntable/internal/testsupport"
)

type stubVersion struct {
	err error
}

func (s stubVersion) CheckVersion(context.Context) error { return s.err }

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("Work root", dir)
	if !result.Passed {
		t.Fatalf("expected writable temp dir to pass, got %#v", result)
	}

	result = CheckDirectoryAccess("Work root", filepath.Join(dir, "missing"))
	if result.Passed || !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected result for missing dir: %#v", result)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	result = CheckDirectoryAccess("Work root", file)
	if result.Passed || !strings.Contains(result.Detail, "not a directory") {
		t.Fatalf("unexpected result for plain file: %#v", result)
	}
}

func TestRunAllReportsToolAvailability(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	binDir := t.TempDir()
	for _, name := range []string{"renderer", "detector", "transcoder"} {
		path := filepath.Join(binDir, name)
		if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
			t.Fatalf("write stub %s: %v", name, err)
		}
	}
	cfg.Tools.Renderer = filepath.Join(binDir, "renderer")
	cfg.Tools.Detector = filepath.Join(binDir, "detector")
	cfg.Tools.Transcoder = filepath.Join(binDir, "transcoder")

	results := RunAll(context.Background(), cfg, stubVersion{})
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected clean preflight, failed checks: %v", failed)
	}
	if !strings.Contains(Summary(results), "passed") {
		t.Fatalf("summary = %q", Summary(results))
	}
}

func TestRunAllSkipsVersionCheckWhenRendererMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Tools.Renderer = "no-such-renderer-binary"

	results := RunAll(context.Background(), cfg, stubVersion{err: errors.New("should not run")})
	for _, result := range results {
		if result.Name == "Renderer version" {
			t.Fatal("version check ran despite missing renderer binary")
		}
	}
	failed := Failed(results)
	if len(failed) == 0 {
		t.Fatal("expected the renderer availability check to fail")
	}
}

func TestCheckRendererVersion(t *testing.T) {
	result := CheckRendererVersion(context.Background(), stubVersion{}, 2021)
	if !result.Passed || !strings.Contains(result.Detail, "2021") {
		t.Fatalf("unexpected pass result: %#v", result)
	}

	result = CheckRendererVersion(context.Background(), stubVersion{err: errors.New("renderer too old")}, 2021)
	if result.Passed || result.Detail != "renderer too old" {
		t.Fatalf("unexpected failure result: %#v", result)
	}
}

func TestDescribeHost(t *testing.T) {
	report := DescribeHost()
	if report.LogicalCPUs < 1 {
		t.Fatalf("cpu count = %d", report.LogicalCPUs)
	}
	if report.String() == "" {
		t.Fatal("empty host description")
	}
}
