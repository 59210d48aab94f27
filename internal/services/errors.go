package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoInput marks a discovery scan that produced zero work items.
	ErrNoInput = errors.New("no input found")
	// ErrSandbox marks a failure to create or name an execution sandbox.
	ErrSandbox = errors.New("sandbox creation failure")
	// ErrExternalTool marks a collaborator invocation that failed or left
	// its expected artifact missing.
	ErrExternalTool = errors.New("external tool error")
	// ErrStage marks a local stage operation that failed, such as an
	// artifact copy between sandboxes.
	ErrStage = errors.New("stage failure")
	// ErrToolVersion marks a collaborator below the minimum supported version.
	ErrToolVersion = errors.New("incompatible tool version")
	// ErrCleanup marks a partial scope teardown. Warning class: logged,
	// never aborts the run on its own.
	ErrCleanup = errors.New("cleanup failure")
	// ErrConfiguration marks unusable configuration or missing binaries.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks malformed collaborator output or bad artifacts.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Exit codes reported by the CLI, one per fatal error kind.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitNoInput       = 2
	ExitConfiguration = 3
	ExitToolVersion   = 4
	ExitSandbox       = 5
)

// ExitCode maps an error to the process exit code the run should report.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrNoInput):
		return ExitNoInput
	case errors.Is(err, ErrConfiguration):
		return ExitConfiguration
	case errors.Is(err, ErrToolVersion):
		return ExitToolVersion
	case errors.Is(err, ErrSandbox):
		return ExitSandbox
	default:
		return ExitFailure
	}
}

// Fatal reports whether the error must abort the run. Cleanup failures are
// surfaced as warnings and never fatal by themselves.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrCleanup)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
