// Package detect wraps the origin-detector collaborator. Given a model file
// it produces a script-like artifact defining six named numeric variables,
// which this package parses into an OffsetVector without ever executing it.
package detect

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"turntable/internal/services"
	"turntable/internal/toolrunner"
)

const stageName = "detect-origin"

// Detector is the behaviour the DetectOrigin stage requires.
type Detector interface {
	Detect(ctx context.Context, modelPath, artifactPath string) (OffsetVector, error)
}

// Client invokes the configured origin-detector binary.
type Client struct {
	binary string
	exec   toolrunner.Executor
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec toolrunner.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// NewClient constructs a detector client for the given binary.
func NewClient(binary string, runner toolrunner.Runner, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("detector binary required")
	}
	client := &Client{binary: binary, exec: runner}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Detect runs the origin detector against modelPath, expecting it to write
// its offsets artifact to artifactPath, then parses the artifact.
func (c *Client) Detect(ctx context.Context, modelPath, artifactPath string) (OffsetVector, error) {
	args := []string{"--input", modelPath, "--output", artifactPath}
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return OffsetVector{}, services.Wrap(services.ErrExternalTool, stageName, "invoke detector", "origin detector failed", err)
	}

	file, err := os.Open(artifactPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return OffsetVector{}, services.Wrap(services.ErrExternalTool, stageName, "collect artifact",
				fmt.Sprintf("detector reported success but %s is absent", artifactPath), nil)
		}
		return OffsetVector{}, services.Wrap(services.ErrExternalTool, stageName, "collect artifact", "open offsets artifact", err)
	}
	defer file.Close()

	vector, err := ParseOffsets(file)
	if err != nil {
		return OffsetVector{}, services.Wrap(services.ErrValidation, stageName, "parse offsets", "malformed detector output", err)
	}
	return vector, nil
}
