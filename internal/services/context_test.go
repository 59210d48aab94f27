package services

import (
	"context"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithItem(ctx, "widget")
	ctx = WithStage(ctx, "ingest")
	ctx = WithScopeID(ctx, "widget-1f2e")

	if item, ok := ItemFromContext(ctx); !ok || item != "widget" {
		t.Fatalf("item = %q, %v", item, ok)
	}
	if stage, ok := StageFromContext(ctx); !ok || stage != "ingest" {
		t.Fatalf("stage = %q, %v", stage, ok)
	}
	if id, ok := ScopeIDFromContext(ctx); !ok || id != "widget-1f2e" {
		t.Fatalf("scope id = %q, %v", id, ok)
	}
}

func TestContextEmptyValuesIgnored(t *testing.T) {
	ctx := WithStage(context.Background(), "")
	if _, ok := StageFromContext(ctx); ok {
		t.Fatal("empty stage should not be stored")
	}
}
