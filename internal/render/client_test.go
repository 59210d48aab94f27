package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"turntable/internal/detect"
	"turntable/internal/services"
	"turntable/internal/testsupport"
	"turntable/internal/toolrunner"
)

func newClient(t *testing.T, exec *testsupport.FakeExecutor) *Client {
	t.Helper()
	client, err := NewClient("openscad", toolrunner.Runner{}, WithExecutor(exec))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestCheckVersionAcceptsRecentYear(t *testing.T) {
	exec := &testsupport.FakeExecutor{OutputLines: []string{"OpenSCAD version 2023.06"}}
	client := newClient(t, exec)
	if err := client.CheckVersion(context.Background(), 2021); err != nil {
		t.Fatalf("CheckVersion: %v", err)
	}
	year, err := client.Version(context.Background())
	if err != nil || year != 2023 {
		t.Fatalf("Version = %d, %v", year, err)
	}
	// Cached: only one probe despite two queries.
	if calls := exec.Calls(); len(calls) != 1 {
		t.Fatalf("expected one version probe, got %d", len(calls))
	}
}

func TestCheckVersionRejectsOldYear(t *testing.T) {
	exec := &testsupport.FakeExecutor{OutputLines: []string{"OpenSCAD version 2015.03"}}
	client := newClient(t, exec)
	err := client.CheckVersion(context.Background(), 2021)
	if !errors.Is(err, services.ErrToolVersion) {
		t.Fatalf("expected ErrToolVersion, got %v", err)
	}
}

func TestVersionWithoutYearFails(t *testing.T) {
	exec := &testsupport.FakeExecutor{OutputLines: []string{"mystery renderer v7"}}
	client := newClient(t, exec)
	if _, err := client.Version(context.Background()); !errors.Is(err, services.ErrToolVersion) {
		t.Fatalf("expected ErrToolVersion, got %v", err)
	}
}

func TestCenterWritesWrapperAndChecksArtifact(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	model := filepath.Join(inDir, "bracket.scad")
	if err := os.WriteFile(model, []byte("cube(1);\n"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	outPath := filepath.Join(outDir, "bracket-centered.stl")

	exec := &testsupport.FakeExecutor{
		RunFunc: func(ctx context.Context, binary string, args []string, onLine func(string)) error {
			return os.WriteFile(outPath, []byte("solid bracket"), 0o644)
		},
	}
	client := newClient(t, exec)

	offsets := detect.OffsetVector{XTrans: 10, XMid: 3, YTrans: 2, YMid: 2, ZTrans: 0, ZMid: -1}
	if err := client.Center(context.Background(), model, offsets, outPath); err != nil {
		t.Fatalf("Center: %v", err)
	}

	wrapper := filepath.Join(inDir, "center-bracket.scad")
	body, err := os.ReadFile(wrapper)
	if err != nil {
		t.Fatalf("wrapper not written: %v", err)
	}
	if !strings.Contains(string(body), "include <bracket.scad>") {
		t.Fatalf("wrapper body = %q", body)
	}

	calls := exec.Calls()
	joined := strings.Join(calls[0].Args, " ")
	for _, want := range []string{"tx=7", "ty=0", "tz=1", outPath} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

func TestCenterMissingArtifactFails(t *testing.T) {
	model := filepath.Join(t.TempDir(), "m.scad")
	if err := os.WriteFile(model, []byte("cube(1);\n"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	client := newClient(t, &testsupport.FakeExecutor{})
	err := client.Center(context.Background(), model, detect.OffsetVector{}, filepath.Join(t.TempDir(), "out.stl"))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestAnimateCollectsOrderedFrames(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	model := filepath.Join(inDir, "bracket-centered.stl")
	if err := os.WriteFile(model, []byte("solid"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	pattern := filepath.Join(outDir, "bracket-turn.png")
	settings := Settings{Width: 800, Height: 600, Frames: 3, ColorScheme: "Cornfield", CameraDistance: 140, CameraFOV: 22.5}

	exec := &testsupport.FakeExecutor{
		RunFunc: func(ctx context.Context, binary string, args []string, onLine func(string)) error {
			for i := 0; i < 3; i++ {
				name := filepath.Join(outDir, fmt.Sprintf("bracket-turn%05d.png", i))
				if err := os.WriteFile(name, []byte{0x89}, 0o644); err != nil {
					return err
				}
			}
			return nil
		},
	}
	client := newClient(t, exec)

	frames, err := client.Animate(context.Background(), model, pattern, settings)
	if err != nil {
		t.Fatalf("Animate: %v", err)
	}
	if len(frames) != 3 {
		t.Fatalf("frames = %v", frames)
	}
	for i, frame := range frames {
		want := fmt.Sprintf("bracket-turn%05d.png", i)
		if filepath.Base(frame) != want {
			t.Fatalf("frames[%d] = %s, want %s", i, filepath.Base(frame), want)
		}
	}

	joined := strings.Join(exec.Calls()[0].Args, " ")
	for _, want := range []string{"--animate 3", "--imgsize 800,600", "--colorscheme Cornfield", "--fov 22.5"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args %q missing %q", joined, want)
		}
	}
}

func TestAnimateFrameCountMismatchFails(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	model := filepath.Join(inDir, "m.stl")
	if err := os.WriteFile(model, []byte("solid"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	exec := &testsupport.FakeExecutor{
		RunFunc: func(ctx context.Context, binary string, args []string, onLine func(string)) error {
			return os.WriteFile(filepath.Join(outDir, "m-turn00000.png"), []byte{0x89}, 0o644)
		},
	}
	client := newClient(t, exec)

	_, err := client.Animate(context.Background(), model, filepath.Join(outDir, "m-turn.png"), Settings{Frames: 60})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !strings.Contains(err.Error(), "expected 60 frames") {
		t.Fatalf("error should report frame count: %v", err)
	}
}
