// Package scope owns the ephemeral resources for processing one work item: a
// private scratch directory plus an input and an output sandbox. A scope,
// once opened, is released exactly once regardless of how stage execution
// terminates. This is the central resource-safety invariant of the tool.
package scope

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"turntable/internal/sandbox"
	"turntable/internal/services"
	"turntable/internal/workitem"
)

// Scope is the unit of resource ownership for one work item.
type Scope struct {
	// ID is the unique scope identifier: the sanitized item base name plus a
	// random disambiguator, so two items with the same base name in
	// different directories can never share resources.
	ID string
	// Scratch is the private scratch directory.
	Scratch string
	// Input is the sandbox the collaborators read from.
	Input sandbox.Sandbox
	// Output is the sandbox the collaborators write into.
	Output sandbox.Sandbox

	provider  sandbox.Provider
	closeOnce sync.Once
	closeErr  error
}

// Open creates the scratch directory and both sandboxes for the item.
// Resources created before a failure are rolled back so a failed open never
// leaks.
func Open(ctx context.Context, provider sandbox.Provider, scratchRoot string, item workitem.Item) (*Scope, error) {
	if provider == nil {
		return nil, services.Wrap(services.ErrSandbox, "", "open scope", "sandbox provider required", nil)
	}
	scratchRoot = strings.TrimSpace(scratchRoot)
	if scratchRoot == "" {
		return nil, services.Wrap(services.ErrSandbox, "", "open scope", "scratch root required", nil)
	}

	id := fmt.Sprintf("%s-%s", workitem.SanitizeSegment(item.Base), uuid.NewString()[:8])
	scratch := filepath.Join(scratchRoot, id)
	if err := os.Mkdir(scratch, 0o755); err != nil {
		return nil, services.Wrap(services.ErrSandbox, "", "open scope", "create scratch directory", err)
	}

	input, err := provider.Create(ctx, id+"-in")
	if err != nil {
		_ = os.RemoveAll(scratch)
		return nil, err
	}
	output, err := provider.Create(ctx, id+"-out")
	if err != nil {
		_ = provider.Remove(context.WithoutCancel(ctx), input.Name)
		_ = os.RemoveAll(scratch)
		return nil, err
	}

	return &Scope{
		ID:       id,
		Scratch:  scratch,
		Input:    input,
		Output:   output,
		provider: provider,
	}, nil
}

// Close releases the scratch directory and both sandboxes. Safe to call more
// than once; only the first call does work. Partial teardown failures are
// reported as a cleanup error naming the residual resource but do not undo
// releases that already succeeded.
func (s *Scope) Close() error {
	s.closeOnce.Do(func() {
		var residual []string
		var causes []error
		if err := os.RemoveAll(s.Scratch); err != nil {
			residual = append(residual, s.Scratch)
			causes = append(causes, err)
		}
		for _, sb := range []sandbox.Sandbox{s.Input, s.Output} {
			if err := s.provider.Remove(context.Background(), sb.Name); err != nil {
				residual = append(residual, sb.Name)
				causes = append(causes, err)
			}
		}
		if len(causes) > 0 {
			s.closeErr = services.Wrap(services.ErrCleanup, "", "close scope",
				fmt.Sprintf("resources need manual reclamation: %s", strings.Join(residual, ", ")),
				errors.Join(causes...))
		}
	})
	return s.closeErr
}
