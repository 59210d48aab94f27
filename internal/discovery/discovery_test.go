package discovery

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"turntable/internal/services"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("cube(1);\n"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestScanFindsModelsRecursively(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.scad"))
	writeFile(t, filepath.Join(root, "sub", "a.scad"))
	writeFile(t, filepath.Join(root, "sub", "ignore.stl"))
	writeFile(t, filepath.Join(root, "upper.SCAD"))

	items, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	// Stable path order.
	for i := 1; i < len(items); i++ {
		if items[i-1].SourcePath >= items[i].SourcePath {
			t.Fatalf("items not sorted: %q >= %q", items[i-1].SourcePath, items[i].SourcePath)
		}
	}
}

func TestScanSkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.scad"))
	writeFile(t, filepath.Join(root, ".git", "skip.scad"))

	items, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(items) != 1 || items[0].Base != "keep" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestScanEmptyDirectoryFails(t *testing.T) {
	_, err := Scan(t.TempDir())
	if err == nil {
		t.Fatal("expected error for empty scan")
	}
	if !errors.Is(err, services.ErrNoInput) {
		t.Fatalf("expected ErrNoInput, got %v", err)
	}
}

func TestScanMissingRootFails(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing root")
	}
}
