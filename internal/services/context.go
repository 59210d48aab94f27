package services

import "context"

type contextKey string

const (
	itemKey  contextKey = "item"
	stageKey contextKey = "stage"
	scopeKey contextKey = "scope_id"
)

// WithItem annotates context with the work item base name.
func WithItem(ctx context.Context, item string) context.Context {
	if item == "" {
		return ctx
	}
	return context.WithValue(ctx, itemKey, item)
}

// ItemFromContext extracts the work item base name if present.
func ItemFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(itemKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithScopeID annotates context with the execution scope identifier.
func WithScopeID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, scopeKey, id)
}

// ScopeIDFromContext extracts the execution scope identifier if present.
func ScopeIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(scopeKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
