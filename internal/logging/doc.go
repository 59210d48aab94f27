// Package logging wraps log/slog with the console and JSON handlers used by
// the turntable CLI, plus attr helpers and context-derived fields so stage
// logs consistently carry item and stage identity.
package logging
