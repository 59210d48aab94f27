package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"turntable/internal/config"
)

// NewConfig returns a validated default config whose directories live under
// temporary roots owned by the test.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.SandboxRoot = filepath.Join(base, "sandboxes")
	cfg.Paths.ScratchRoot = filepath.Join(base, "scratch")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.LedgerPath = filepath.Join(base, "history.db")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WriteModel creates a minimal model file and returns its path.
func WriteModel(t *testing.T, dir, base string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, base+".scad")
	if err := os.WriteFile(path, []byte("cube([2,2,2]);\n"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return path
}
