// Package testsupport provides shared fixtures for package tests: a scripted
// command executor and config helpers rooted in temporary directories.
package testsupport

import (
	"context"
	"strings"
	"sync"
)

// Call records one executor invocation.
type Call struct {
	Binary string
	Args   []string
}

// FakeExecutor satisfies toolrunner.Executor with scripted behaviour.
type FakeExecutor struct {
	mu sync.Mutex
	// RunFunc, when set, handles Run calls. A nil RunFunc succeeds silently.
	RunFunc func(ctx context.Context, binary string, args []string, onLine func(string)) error
	// OutputLines are emitted for Output calls when OutputFunc is nil.
	OutputLines []string
	// OutputFunc, when set, handles Output calls.
	OutputFunc func(ctx context.Context, binary string, args []string) (string, error)

	calls []Call
}

func (f *FakeExecutor) record(binary string, args []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Binary: binary, Args: append([]string{}, args...)})
}

// Calls returns a copy of every recorded invocation.
func (f *FakeExecutor) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call{}, f.calls...)
}

func (f *FakeExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	f.record(binary, args)
	if f.RunFunc != nil {
		return f.RunFunc(ctx, binary, args, onLine)
	}
	return nil
}

func (f *FakeExecutor) Output(ctx context.Context, binary string, args []string) (string, error) {
	f.record(binary, args)
	if f.OutputFunc != nil {
		return f.OutputFunc(ctx, binary, args)
	}
	return strings.Join(f.OutputLines, "\n"), nil
}
