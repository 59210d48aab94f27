// Package sandbox manages the isolated, named storage areas used to exchange
// artifacts with external collaborator tools. A directory-backed provider is
// the only implementation; the interface exists so the pipeline can run
// against fakes in tests.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"turntable/internal/services"
)

// Sandbox is a handle to one named storage area.
type Sandbox struct {
	Name string
	Path string
}

// Provider creates and releases named sandboxes.
type Provider interface {
	// Create allocates a sandbox with the given unique name. A name already
	// occupied (a stale sandbox from an interrupted run that survived the
	// sweep) is a creation failure, not something to silently reuse.
	Create(ctx context.Context, name string) (Sandbox, error)
	// Remove releases the named sandbox and everything inside it.
	Remove(ctx context.Context, name string) error
}

// DirProvider backs sandboxes with directories under a fixed root.
type DirProvider struct {
	root string
}

// NewDirProvider constructs a provider rooted at root. The root itself must
// already exist; per-sandbox directories are created on demand.
func NewDirProvider(root string) (*DirProvider, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("sandbox root required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("sandbox root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sandbox root %q is not a directory", root)
	}
	return &DirProvider{root: root}, nil
}

// Root returns the provider's base directory.
func (p *DirProvider) Root() string { return p.root }

func (p *DirProvider) Create(ctx context.Context, name string) (Sandbox, error) {
	if err := ctx.Err(); err != nil {
		return Sandbox{}, err
	}
	if err := validateName(name); err != nil {
		return Sandbox{}, services.Wrap(services.ErrSandbox, "", "create sandbox", err.Error(), nil)
	}
	path := filepath.Join(p.root, name)
	if err := os.Mkdir(path, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return Sandbox{}, services.Wrap(services.ErrSandbox, "", "create sandbox",
				fmt.Sprintf("name %q already occupied; a stale sandbox from an interrupted run may need manual removal", name), nil)
		}
		return Sandbox{}, services.Wrap(services.ErrSandbox, "", "create sandbox", "sandbox provider unavailable", err)
	}
	return Sandbox{Name: name, Path: path}, nil
}

func (p *DirProvider) Remove(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return services.Wrap(services.ErrCleanup, "", "remove sandbox", err.Error(), nil)
	}
	path := filepath.Join(p.root, name)
	if err := os.RemoveAll(path); err != nil {
		return services.Wrap(services.ErrCleanup, "", "remove sandbox", fmt.Sprintf("sandbox %q not released", name), err)
	}
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("sandbox name required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("sandbox name %q must be a single path segment", name)
	}
	return nil
}
