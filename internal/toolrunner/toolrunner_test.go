package toolrunner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunForwardsLines(t *testing.T) {
	tool := writeScript(t, "echo first\necho second 1>&2")
	var lines []string
	err := New(0).Run(context.Background(), tool, nil, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "first") || !strings.Contains(joined, "second") {
		t.Fatalf("missing output lines: %q", joined)
	}
}

func TestRunReportsNonZeroExit(t *testing.T) {
	tool := writeScript(t, "exit 3")
	if err := New(0).Run(context.Background(), tool, nil, nil); err == nil {
		t.Fatal("expected exit status error")
	}
}

func TestRunHonorsTimeout(t *testing.T) {
	tool := writeScript(t, "sleep 10")
	err := New(1).Run(context.Background(), tool, nil, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout message, got %v", err)
	}
}

func TestOutputCollectsLines(t *testing.T) {
	tool := writeScript(t, "echo 'OpenSCAD version 2023.06'")
	out, err := New(0).Output(context.Background(), tool, []string{"--version"})
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if !strings.Contains(out, "2023.06") {
		t.Fatalf("output = %q", out)
	}
}
