package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"turntable/internal/services"
)

func TestConsoleHandlerLiftsItemAndStage(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := services.WithItem(context.Background(), "widget")
	ctx = services.WithStage(ctx, "encode")
	WithContext(ctx, logger).Info("stage started", String("frames", "60"))

	line := buf.String()
	if !strings.Contains(line, "[widget encode]") {
		t.Fatalf("expected item/stage prefix, got %q", line)
	}
	if !strings.Contains(line, "stage started") {
		t.Fatalf("expected message, got %q", line)
	}
	if !strings.Contains(line, "frames=60") {
		t.Fatalf("expected attr, got %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("info leaked at warn level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("warn missing: %q", buf.String())
	}
}

func TestJSONHandlerFieldNames(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hello", String(FieldStage, "publish"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal: %v (%q)", err, buf.String())
	}
	if record["msg"] != "hello" {
		t.Fatalf("msg = %v", record["msg"])
	}
	if record["level"] != "info" {
		t.Fatalf("level = %v", record["level"])
	}
	if record[FieldStage] != "publish" {
		t.Fatalf("stage = %v", record[FieldStage])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
